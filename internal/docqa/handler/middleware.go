package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth 校验 Authorization 头中的 Bearer 令牌。
// token 为空时认证被禁用，所有请求直接放行。
// 比较使用常量时间算法，避免时序侧信道。
func BearerAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		presented := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			presented = strings.TrimPrefix(auth, "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Code:    401,
				Message: "Invalid or missing Bearer token",
			})
			return
		}

		c.Next()
	}
}

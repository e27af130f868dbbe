// Package textutil 提供文档问答相关的文本处理工具函数。
package textutil

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"
)

// HashString 计算字符串的 MD5 哈希值。
func HashString(s string) string {
	hash := md5.Sum([]byte(s))
	return hex.EncodeToString(hash[:])
}

// TruncateString 截断字符串到指定的最大 Unicode 字符数。
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen])
}

// SplitChunks 将文本分割成重叠的块。
// chunkSize 是每个块的大小（Unicode 字符数），overlap 是相邻块之间的重叠大小。
//
// 每个块的结束位置优先对齐到自然边界（段落 > 句子 > 单词），
// 找不到边界时按字符硬切。下一个块的起始位置恒等于上一个块的
// 结束位置减去 overlap，因此按顺序拼接所有块并去掉每个后续块
// 开头的 overlap 个字符，可以精确还原原始文本。
//
// 空白文本返回 nil。
func SplitChunks(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize - 1
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	pos := 0

	for {
		end := pos + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[pos:len(runes)]))
			break
		}

		// 边界不能低于 pos+overlap+1，否则下一个块无法前进
		floor := pos + overlap + 1
		if b := boundaryBefore(runes, floor, end); b > 0 {
			end = b
		}

		chunks = append(chunks, string(runes[pos:end]))
		pos = end - overlap
	}

	return chunks
}

// boundaryBefore 在 runes 的 (floor, end] 区间内寻找最靠后的自然边界，
// 返回边界之后的切割位置。段落边界优先于句子边界，句子边界优先于
// 单词边界。找不到任何边界返回 0。
func boundaryBefore(runes []rune, floor, end int) int {
	// 段落：连续两个换行符
	for i := end; i > floor; i-- {
		if runes[i-1] == '\n' && i >= 2 && runes[i-2] == '\n' {
			return i
		}
	}

	// 句子：终止标点（或换行）
	for i := end; i > floor; i-- {
		if isSentenceEnd(runes[i-1]) {
			return i
		}
	}

	// 单词：空白字符
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}

	return 0
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '。', '！', '？':
		return true
	}
	return false
}

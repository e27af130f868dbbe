// Package json provides a high-performance JSON serialization wrapper.
// It uses sonic on supported architectures (amd64/arm64) and falls back
// to the standard encoding/json elsewhere.
package json

import (
	stdjson "encoding/json"
	"io"
	"runtime"

	"github.com/bytedance/sonic"
)

var (
	// Marshal encodes v into JSON bytes.
	Marshal func(v interface{}) ([]byte, error)

	// Unmarshal decodes JSON bytes into v.
	Unmarshal func(data []byte, v interface{}) error

	// NewEncoder creates a JSON encoder for the writer.
	NewEncoder func(w io.Writer) Encoder

	// NewDecoder creates a JSON decoder for the reader.
	NewDecoder func(r io.Reader) Decoder

	usingSonic bool
)

// Encoder is a JSON encoder interface.
type Encoder interface {
	Encode(v interface{}) error
}

// Decoder is a JSON decoder interface.
type Decoder interface {
	Decode(v interface{}) error
}

func init() {
	// sonic 仅支持 amd64 和 arm64 架构
	if runtime.GOARCH == "amd64" || runtime.GOARCH == "arm64" {
		Marshal = sonic.Marshal
		Unmarshal = sonic.Unmarshal
		NewEncoder = func(w io.Writer) Encoder {
			return sonic.ConfigDefault.NewEncoder(w)
		}
		NewDecoder = func(r io.Reader) Decoder {
			return sonic.ConfigDefault.NewDecoder(r)
		}
		usingSonic = true
	} else {
		Marshal = stdjson.Marshal
		Unmarshal = stdjson.Unmarshal
		NewEncoder = func(w io.Writer) Encoder {
			return stdjson.NewEncoder(w)
		}
		NewDecoder = func(r io.Reader) Decoder {
			return stdjson.NewDecoder(r)
		}
	}
}

// UsingSonic reports whether the sonic implementation is active.
func UsingSonic() bool {
	return usingSonic
}

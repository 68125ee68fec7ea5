package client

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const crlf = "\r\n"

// Dechunk reverses HTTP/1.1 chunked transfer-encoding (RFC 7230 §4.1).
//
// Decoding stops at the zero-size chunk; anything after it (trailer
// fields, the final CRLF) is discarded without validation. Chunk
// extensions after ';' are ignored. A body that ends exactly on a chunk
// boundary without a zero-size chunk yields what was decoded so far.
// Every other framing violation returns an error matching [ErrInvalidChunk].
func Dechunk(src string) (string, error) {
	var out strings.Builder
	out.Grow(len(src))

	i := 0
	for i < len(src) {
		end := strings.Index(src[i:], crlf)
		if end < 0 {
			return "", invalidChunk(errors.New("missing CRLF after size"))
		}
		end += i

		size, err := chunkSize(src[i:end])
		if err != nil {
			return "", invalidChunk(err)
		}
		i = end + len(crlf)

		if size == 0 {
			return out.String(), nil
		}

		if size > uint64(len(src)-i) {
			return "", invalidChunk(fmt.Errorf("body shorter than declared size %d", size))
		}
		stop := i + int(size)

		out.WriteString(src[i:stop])
		i = stop

		if !strings.HasPrefix(src[i:], crlf) {
			return "", invalidChunk(errors.New("missing CRLF after data"))
		}
		i += len(crlf)
	}

	return out.String(), nil
}

// chunkSize parses the hex size token of a chunk-size line.
func chunkSize(line string) (uint64, error) {
	token, _, _ := strings.Cut(line, ";")
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, errors.New("empty chunk size")
	}

	size, err := strconv.ParseUint(token, 16, 63)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk size %q", token)
	}

	return size, nil
}

func invalidChunk(err error) *Error {
	return newError(KindInvalidChunk, "", err)
}

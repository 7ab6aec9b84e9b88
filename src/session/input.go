package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxLineBytes caps one line of operator input.
const DefaultMaxLineBytes = 1 << 20

// ErrLineTooLong reports an input line over the session's limit. The rest of
// the line is discarded and reading continues with the next one.
var ErrLineTooLong = errors.New("input line too long")

// readLine returns the next line without its terminator. A final line
// without a newline is returned before io.EOF.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var (
		buf []byte
		n   int
	)
	for {
		chunk, err := r.ReadSlice('\n')
		n += len(chunk)
		if n <= limit+2 {
			buf = append(buf, chunk...)
		}
		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF) && n > 0:
		case err != nil:
			return "", err
		}

		line := strings.TrimRight(string(buf), "\r\n")
		if n > limit+2 || len(line) > limit {
			return "", fmt.Errorf("%w: %d bytes, limit %d", ErrLineTooLong, n, limit)
		}
		return line, nil
	}
}

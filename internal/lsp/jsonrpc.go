package lsp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"strconv"
	"strings"
)

// maxMessageSize bounds a single payload; localization files are large but
// never this large.
const maxMessageSize = 64 << 20

var errMissingContentLength = errors.New("missing Content-Length header")

// readMessage reads one header block and its payload. Headers other than
// Content-Length are ignored.
func readMessage(r *bufio.Reader) ([]byte, error) {
	header, err := textproto.NewReader(r).ReadMIMEHeader()
	if err != nil {
		if errors.Is(err, io.EOF) && len(header) == 0 {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw := strings.TrimSpace(header.Get("Content-Length"))
	if raw == "" {
		return nil, errMissingContentLength
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid Content-Length %q", raw)
	}
	if n > maxMessageSize {
		return nil, fmt.Errorf("message of %d bytes exceeds %d", n, maxMessageSize)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return payload, nil
}

// writeMessage frames payload in a single Write.
func writeMessage(w io.Writer, payload []byte) error {
	var buf bytes.Buffer
	buf.Grow(len(payload) + 32)
	buf.WriteString("Content-Length: ")
	buf.WriteString(strconv.Itoa(len(payload)))
	buf.WriteString("\r\n\r\n")
	buf.Write(payload)
	_, err := w.Write(buf.Bytes())
	return err
}

package lsp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestFramingRoundTripsConsecutiveMessages(t *testing.T) {
	var buf bytes.Buffer
	msgs := []string{
		`{"jsonrpc":"2.0","method":"initialized"}`,
		`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{"text":"{\"ключ\":1}"}}`,
	}
	for _, m := range msgs {
		if err := writeMessage(&buf, []byte(m)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	r := bufio.NewReader(&buf)
	for i, want := range msgs {
		got, err := readMessage(r)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if string(got) != want {
			t.Fatalf("message %d = %s", i, got)
		}
	}
	if _, err := readMessage(r); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last message, got %v", err)
	}
}

func TestReadMessageHeaders(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"extra header", "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\nContent-Length: 2\r\n\r\n{}", "{}", false},
		{"lowercase name", "content-length: 2\r\n\r\n{}", "{}", false},
		{"missing length", "Content-Type: x\r\n\r\n{}", "", true},
		{"bad length", "Content-Length: two\r\n\r\n{}", "", true},
		{"oversize", "Content-Length: 999999999999\r\n\r\n", "", true},
		{"short payload", "Content-Length: 10\r\n\r\n{}", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readMessage(bufio.NewReader(strings.NewReader(tt.input)))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("payload = %q", got)
			}
		})
	}
}

package dispatch

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorWrappersEmbedBracketCodes(t *testing.T) {
	base := errors.New("boom")
	cases := []struct {
		name string
		fn   func(error) string
		code string
	}{
		{"unreachable", unreachableError, "[-1]"},
		{"handshake", handshakeError, "[-6]"},
		{"agent", agentError, "[-42]"},
		{"authRejected", authRejectedError, "[-19]"},
		{"channel", channelError, "[-23]"},
		{"io", ioError, "[-25]"},
		{"module", moduleError, "[-30]"},
	}
	for _, c := range cases {
		got := c.fn(base)
		if !strings.Contains(got, c.code) {
			t.Errorf("%s(err) = %q, want it to contain %q", c.name, got, c.code)
		}
		if !strings.Contains(got, "boom") {
			t.Errorf("%s(err) = %q, want it to contain the underlying message", c.name, got)
		}
	}
}

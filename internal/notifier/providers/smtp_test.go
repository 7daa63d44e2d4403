package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg := string(buildMessage("bot@example.com", "me@example.com", "xdrip report", "line one\nline two\r\n"))

	assert.Equal(t, "From: bot@example.com\r\n"+
		"To: me@example.com\r\n"+
		"Subject: xdrip report\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=\"utf-8\"\r\n"+
		"\r\n"+
		"line one\r\nline two\r\n", msg)
}

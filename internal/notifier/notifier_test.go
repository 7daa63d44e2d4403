package notifier

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xdrip/internal/campaign"
	"github.com/ibeckermayer/xdrip/internal/config"
)

type recordingSender struct {
	to, subject, body string
	err               error
}

func (r *recordingSender) Send(to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	return r.err
}

func TestSendSummary(t *testing.T) {
	t.Parallel()

	summary := campaign.Summary{
		StartedAt:    time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		LimitReached: true,
		Stats:        campaign.Stats{Success: 3, Error: 1},
	}

	rec := &recordingSender{}
	require.NoError(t, New(rec, "me@example.com").SendSummary(summary, "body"))

	assert.Equal(t, "me@example.com", rec.to)
	assert.Equal(t, "xdrip 2024-05-01: 3 sent, 1 failed (daily limit reached)", rec.subject)
	assert.Equal(t, "body", rec.body)

	rec.err = errors.New("smtp down")
	assert.EqualError(t, New(rec, "me@example.com").SendSummary(summary, "body"), "smtp down")
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	n, err := NewFromConfig(config.NotifyConfig{})
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = NewFromConfig(config.NotifyConfig{Provider: "smtp", SMTPHost: "localhost", SMTPPort: 25, FromAddr: "a@b.c", ToAddr: "d@e.f"})
	require.NoError(t, err)
	assert.NotNil(t, n)

	_, err = NewFromConfig(config.NotifyConfig{Provider: "pigeon"})
	assert.Error(t, err)
}

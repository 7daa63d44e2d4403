package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xdrip/internal/campaign"
	"github.com/ibeckermayer/xdrip/internal/store"
	"github.com/ibeckermayer/xdrip/internal/types"
)

func TestSummary(t *testing.T) {
	t.Parallel()

	b, err := New()
	require.NoError(t, err)

	start := time.Date(2025, 3, 9, 9, 0, 0, 0, time.Local)
	out, err := b.Summary(campaign.Summary{
		RunID:        "run-1",
		TargetsFile:  "targets.csv",
		StartedAt:    start,
		FinishedAt:   start.Add(95 * time.Second),
		SentBefore:   3,
		DailyLimit:   5,
		LimitReached: true,
		Stats:        campaign.Stats{Total: 6, Success: 2, Followed: 1, Error: 1, Skipped: 1, Unsent: 1},
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Campaign run-1\n")
	assert.Contains(t, out, "Started   2025-03-09 09:00 (1m35s)")
	assert.Contains(t, out, "Targets   targets.csv")
	assert.Contains(t, out, "  success   2\n")
	assert.Contains(t, out, "  unsent    1\n")
	assert.Contains(t, out, "Daily limit reached")
}

func TestSummaryWithoutLimit(t *testing.T) {
	t.Parallel()

	b, err := New()
	require.NoError(t, err)

	out, err := b.Summary(campaign.Summary{RunID: "r", DailyLimit: 5})
	require.NoError(t, err)
	assert.NotContains(t, out, "Targets")
	assert.NotContains(t, out, "Daily limit reached")
}

func TestLedger(t *testing.T) {
	t.Parallel()

	b, err := New()
	require.NoError(t, err)

	day := time.Date(2025, 3, 9, 0, 0, 0, 0, time.Local)
	out, err := b.Ledger(LedgerData{
		Day:        day,
		DailyLimit: 5,
		Sent:       1,
		Records: []store.SendRecord{
			{UserID: "alice", Status: types.StatusSuccess, AttemptedAt: day.Add(9 * time.Hour)},
			{UserID: "bob", Status: types.StatusFollowed, Error: "message composer did not open", AttemptedAt: day.Add(10 * time.Hour)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-09: 1/5 sent, 4 remaining\n"+
		"09:00:00  success   @alice\n"+
		"10:00:00  followed  @bob  message composer did not open\n", out)

	out, err = b.Ledger(LedgerData{Day: day, DailyLimit: 5, Sent: 7})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-09: 7/5 sent, 0 remaining\nno attempts yet\n", out)
}

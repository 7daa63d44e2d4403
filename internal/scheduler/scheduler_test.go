package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailySchedule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "09:00", want: "0 9 * * *"},
		{in: "18:45", want: "45 18 * * *"},
		{in: "00:05", want: "5 0 * * *"},
		{in: "9am", wantErr: true},
		{in: "25:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := DailySchedule(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddDailyJob(t *testing.T) {
	t.Parallel()

	s, err := New("UTC", time.Minute, nil)
	require.NoError(t, err)

	require.NoError(t, s.AddDailyJob("campaign", "07:30", func(context.Context) error { return nil }))
	assert.Error(t, s.AddDailyJob("bad", "7.30", func(context.Context) error { return nil }))

	s.Start()
	defer s.Stop()

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "campaign", jobs[0].Name)
	next := jobs[0].NextRun.In(time.UTC)
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 30, next.Minute())

	s.RemoveJob("campaign")
	assert.Empty(t, s.ListJobs())
}

func TestRunNow(t *testing.T) {
	t.Parallel()

	s, err := New("Local", 50*time.Millisecond, nil)
	require.NoError(t, err)

	errBoom := errors.New("boom")
	assert.ErrorIs(t, s.RunNow("fail", func(context.Context) error { return errBoom }), errBoom)

	err = s.RunNow("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStopCancelsRunningJobs(t *testing.T) {
	t.Parallel()

	s, err := New("Local", 0, nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		done <- s.RunNow("campaign", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	time.Sleep(10 * time.Millisecond)
	s.Stop()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("job was not cancelled")
	}
}

func TestNewInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, err := New("Mars/Olympus", time.Minute, nil)
	assert.Error(t, err)
}

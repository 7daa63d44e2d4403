package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xdrip/internal/types"
)

func TestOutputFilename(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 9, 7, 5, 2, 0, time.Local)
	assert.Equal(t, "2025-03-09_07-05-02_drip-users.csv", OutputFilename(now))
}

func TestWriteFollowersCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out", "followers.csv")
	records := []types.FollowerRecord{
		{UserID: "alice", Name: "Alice@dev", Nickname: "Alice", Profile: "likes \"go\", coffee"},
		{UserID: "bob", Name: "Bob", Nickname: "Bob"},
	}

	require.NoError(t, WriteFollowersCSV(path, records))
	// a later snapshot replaces the earlier one
	require.NoError(t, WriteFollowersCSV(path, records[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "userId,name,nickname,profile\nalice,Alice@dev,Alice,\"likes \"\"go\"\", coffee\"\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestTargetsRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "targets.csv")
	targets := []types.SendTarget{
		{UserID: "alice", Name: "Alice", Nickname: "Alice", Profile: "line one\nline two", Status: types.StatusFollowed, IsSend: true},
		{UserID: "bob", Name: "Bob", Nickname: "Bob", Status: types.StatusPending},
	}

	require.NoError(t, WriteTargetsCSV(path, targets))
	got, err := ReadTargetsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, targets, got)
}

func TestReadTargetsCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []types.SendTarget
	}{
		{
			name:    "rows without id or name are dropped",
			content: "userId,name,nickname,profile,status,isSend\nalice,Alice,A,,success,true\n,NoID,,,,true\nnoname,,,,,true\n",
			want: []types.SendTarget{
				{UserID: "alice", Name: "Alice", Nickname: "A", Status: types.StatusSuccess, IsSend: true},
			},
		},
		{
			name:    "missing and unknown status read as pending",
			content: "userId,name,status,isSend\na,A,,TRUE\nb,B,sent,true\n",
			want: []types.SendTarget{
				{UserID: "a", Name: "A", Status: types.StatusPending, IsSend: false},
				{UserID: "b", Name: "B", Status: types.StatusPending, IsSend: true},
			},
		},
		{
			name:    "collector output with byte order mark",
			content: "\ufeffuserId,name,nickname,profile\nalice,Alice,Alice,hi\n",
			want: []types.SendTarget{
				{UserID: "alice", Name: "Alice", Nickname: "Alice", Profile: "hi", Status: types.StatusPending},
			},
		},
		{
			name:    "columns in any order",
			content: "isSend,name,userId\ntrue,Carol,carol\n",
			want: []types.SendTarget{
				{UserID: "carol", Name: "Carol", Status: types.StatusPending, IsSend: true},
			},
		},
		{
			name:    "empty file",
			content: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "targets.csv")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			got, err := ReadTargetsCSV(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadTargetsCSVMissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadTargetsCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCollectorOutputImportsAsTargets(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), OutputFilename(time.Now()))
	records := []types.FollowerRecord{
		{UserID: "alice", Name: "Alice｜dev", Nickname: "Alice", Profile: "bio"},
		{UserID: "bob", Name: "Bob", Nickname: "Bob"},
	}
	require.NoError(t, WriteFollowersCSV(path, records))

	got, err := ReadTargetsCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, r := range records {
		assert.Equal(t, types.TargetFromFollower(r), got[i])
		assert.False(t, got[i].IsSend, "collected followers are not selected until chosen")
	}
}

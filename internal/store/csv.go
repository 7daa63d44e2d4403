package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ibeckermayer/xdrip/internal/types"
)

// FollowerHeader is the column order of collector output
var FollowerHeader = []string{"userId", "name", "nickname", "profile"}

// TargetHeader is the column order of campaign target files
var TargetHeader = []string{"userId", "name", "nickname", "profile", "status", "isSend"}

// OutputFilename names a collector output file after its start time
func OutputFilename(now time.Time) string {
	return now.Format("2006-01-02_15-04-05") + "_drip-users.csv"
}

// WriteFollowersCSV replaces path with records, atomically
func WriteFollowersCSV(path string, records []types.FollowerRecord) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, FollowerHeader)
	for _, r := range records {
		rows = append(rows, []string{r.UserID, r.Name, r.Nickname, r.Profile})
	}
	return writeAtomic(path, rows)
}

// WriteTargetsCSV replaces path with targets, atomically
func WriteTargetsCSV(path string, targets []types.SendTarget) error {
	rows := make([][]string, 0, len(targets)+1)
	rows = append(rows, TargetHeader)
	for _, t := range targets {
		isSend := "false"
		if t.IsSend {
			isSend = "true"
		}
		rows = append(rows, []string{t.UserID, t.Name, t.Nickname, t.Profile, string(t.Status), isSend})
	}
	return writeAtomic(path, rows)
}

func writeAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadTargetsCSV loads campaign targets from a file with a header row.
// Columns are matched by name and may appear in any order. Rows without a
// userId or name are dropped; a missing or unknown status reads as pending;
// isSend holds only for the literal "true". Collector output (no status
// and no isSend column) imports as pending and unselected.
func ReadTargetsCSV(path string) ([]types.SendTarget, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		col[strings.TrimSpace(name)] = i
	}
	_, hasStatus := col["status"]
	_, hasIsSend := col["isSend"]
	followersOnly := !hasStatus && !hasIsSend

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var targets []types.SendTarget
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		rec := types.FollowerRecord{
			UserID:   field(row, "userId"),
			Name:     field(row, "name"),
			Nickname: field(row, "nickname"),
			Profile:  field(row, "profile"),
		}
		if rec.UserID == "" || rec.Name == "" {
			continue
		}

		t := types.TargetFromFollower(rec)
		if !followersOnly {
			t.IsSend = field(row, "isSend") == "true"
			if t.Status, err = types.ParseStatus(field(row, "status")); err != nil {
				t.Status = types.StatusPending
			}
		}
		targets = append(targets, t)
	}

	return targets, nil
}

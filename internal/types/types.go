package types

import (
	"errors"
	"fmt"
)

// Status is the lifecycle label carried by a send target
type Status string

const (
	StatusPending  Status = "pending"
	StatusFollowed Status = "followed"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
)

// ParseStatus maps a stored label back to a Status. Empty input is pending.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case "":
		return StatusPending, nil
	case StatusPending, StatusFollowed, StatusSuccess, StatusError:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// FollowerRecord is one account discovered on a followers listing.
// It is comparable; two records are duplicates when every field matches.
type FollowerRecord struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Profile  string `json:"profile"`
}

// SendTarget is one user queued for outreach
type SendTarget struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Profile  string `json:"profile"`
	Status   Status `json:"status"`
	IsSend   bool   `json:"isSend"`
}

// TargetFromFollower converts a scraped record into a pending target.
func TargetFromFollower(r FollowerRecord) SendTarget {
	return SendTarget{
		UserID:   r.UserID,
		Name:     r.Name,
		Nickname: r.Nickname,
		Profile:  r.Profile,
		Status:   StatusPending,
	}
}

// SendPolicy configures a single send attempt. The caller owns
// CurrentSendCount and is responsible for persisting it between runs.
type SendPolicy struct {
	MinIntervalSeconds  int  `json:"minInterval" toml:"min_interval_seconds"`
	MaxIntervalSeconds  int  `json:"maxInterval" toml:"max_interval_seconds"`
	DailyLimit          int  `json:"dailyLimit" toml:"daily_limit"`
	CurrentSendCount    int  `json:"currentSendCount" toml:"-"`
	FollowBeforeMessage bool `json:"followBeforeDm" toml:"follow_before_dm"`
}

// Validate checks the policy invariants
func (p SendPolicy) Validate() error {
	var errs []error
	if p.MinIntervalSeconds < 0 {
		errs = append(errs, fmt.Errorf("min interval must be >= 0, got %d", p.MinIntervalSeconds))
	}
	if p.MaxIntervalSeconds < p.MinIntervalSeconds {
		errs = append(errs, fmt.Errorf("max interval %d is below min interval %d", p.MaxIntervalSeconds, p.MinIntervalSeconds))
	}
	if p.DailyLimit <= 0 {
		errs = append(errs, fmt.Errorf("daily limit must be > 0, got %d", p.DailyLimit))
	}
	if p.CurrentSendCount < 0 {
		errs = append(errs, fmt.Errorf("current send count must be >= 0, got %d", p.CurrentSendCount))
	}
	return errors.Join(errs...)
}

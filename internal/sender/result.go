package sender

import (
	"errors"
	"fmt"

	"github.com/ibeckermayer/xdrip/internal/markup"
	"github.com/ibeckermayer/xdrip/internal/types"
)

// Result is the terminal outcome of one send attempt. It is one of Sent,
// Followed or Failed.
type Result interface {
	Status() types.Status
	Success() bool
	// Err returns the cause, or nil for Sent
	Err() error

	result()
}

// Sent means the message was submitted
type Sent struct{}

// Followed means the follow landed but the message was not submitted
type Followed struct {
	Cause error
}

// Failed means nothing durable happened on the site
type Failed struct {
	Cause error
}

func (Sent) Status() types.Status     { return types.StatusSuccess }
func (Followed) Status() types.Status { return types.StatusFollowed }
func (Failed) Status() types.Status   { return types.StatusError }

func (Sent) Success() bool     { return true }
func (Followed) Success() bool { return false }
func (Failed) Success() bool   { return false }

func (Sent) Err() error       { return nil }
func (r Followed) Err() error { return r.Cause }
func (r Failed) Err() error   { return r.Cause }

func (Sent) result()     {}
func (Followed) result() {}
func (Failed) result()   {}

// Outcome is the wire shape printed by senddm
type Outcome struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Status  types.Status `json:"status"`
}

// Report flattens r into its wire shape
func Report(r Result) Outcome {
	out := Outcome{Success: r.Success(), Status: r.Status()}
	if err := r.Err(); err != nil {
		out.Error = err.Error()
	}
	return out
}

var (
	ErrLimitReached = errors.New("daily send limit reached")
	ErrWrongSite    = errors.New("navigation left the site")
	ErrNotFound     = errors.New("element not found")
)

// LimitError reports that the daily cap was already used up
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily send limit reached (%d messages)", e.Limit)
}

func (e *LimitError) Is(target error) bool { return target == ErrLimitReached }

// NavigationError reports a profile load that ended on a foreign host
type NavigationError struct {
	Want string
	Got  string
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("expected to land on %s, ended at %q", e.Want, e.Got)
}

func (e *NavigationError) Is(target error) bool { return target == ErrWrongSite }

// NotFoundError reports a missing UI affordance
type NotFoundError struct {
	Role markup.Role
}

func (e *NotFoundError) Error() string {
	switch e.Role {
	case markup.RoleFollow:
		return "no follow button found on profile"
	case markup.RoleMessage:
		return "no message button found on profile"
	case markup.RoleComposer:
		return "message composer did not open"
	case markup.RoleSend:
		return "send button not found"
	}
	return fmt.Sprintf("%s not found", e.Role)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ibeckermayer/xdrip/internal/types"
)

// request is one parsed senddm invocation
type request struct {
	Target  types.SendTarget
	Message string
	Policy  types.SendPolicy
	// PolicyFromArgs is false when the caller left the policy to config and
	// the ledger
	PolicyFromArgs bool
}

const usage = "senddm <user_json> <message> [<minInterval> <maxInterval> <dailyLimit> [<followBeforeDm>] <currentSendCount>]"

// arity accepts the argument counts senddm understands
func arity(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 2, 6, 7:
		return nil
	}
	return fmt.Errorf("accepts 2, 6 or 7 args, received %d\nusage: %s", len(args), usage)
}

// parseArgs turns positional args into a request. With two args the whole
// policy comes from defaults; otherwise an omitted followBeforeDm means
// no follow.
func parseArgs(args []string, defaults types.SendPolicy) (request, error) {
	if err := arity(nil, args); err != nil {
		return request{}, err
	}

	var req request
	if err := json.Unmarshal([]byte(args[0]), &req.Target); err != nil {
		return request{}, fmt.Errorf("invalid user json: %w", err)
	}
	if req.Target.UserID == "" {
		return request{}, errors.New("invalid user json: userId is required")
	}
	req.Message = args[1]
	req.Policy = defaults

	if len(args) == 2 {
		return req, req.Policy.Validate()
	}
	req.PolicyFromArgs = true

	ints := []struct {
		name string
		dst  *int
		arg  string
	}{
		{"minInterval", &req.Policy.MinIntervalSeconds, args[2]},
		{"maxInterval", &req.Policy.MaxIntervalSeconds, args[3]},
		{"dailyLimit", &req.Policy.DailyLimit, args[4]},
		{"currentSendCount", &req.Policy.CurrentSendCount, args[len(args)-1]},
	}
	for _, f := range ints {
		n, err := strconv.Atoi(f.arg)
		if err != nil {
			return request{}, fmt.Errorf("invalid %s %q: %w", f.name, f.arg, err)
		}
		*f.dst = n
	}

	// Following is opt-in once the caller passes the policy itself
	req.Policy.FollowBeforeMessage = false
	if len(args) == 7 {
		follow, err := strconv.ParseBool(args[5])
		if err != nil {
			return request{}, fmt.Errorf("invalid followBeforeDm %q: %w", args[5], err)
		}
		req.Policy.FollowBeforeMessage = follow
	}

	if err := req.Policy.Validate(); err != nil {
		return request{}, fmt.Errorf("invalid policy: %w", err)
	}
	return req, nil
}

// Package campaign sends a message to every selected target in a targets
// file, one sender attempt per target, under the shared daily limit.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/xdrip/internal/sender"
	"github.com/ibeckermayer/xdrip/internal/store"
	"github.com/ibeckermayer/xdrip/internal/types"
)

// Messenger makes one send attempt. *sender.Sender satisfies it.
type Messenger interface {
	Send(ctx context.Context, target types.SendTarget, message string, policy types.SendPolicy) sender.Result
}

// SenderFactory hands worker n its own Messenger and a func releasing it
type SenderFactory func(worker int) (Messenger, func(), error)

// Ledger is where attempts are recorded
type Ledger interface {
	RecordSend(ctx context.Context, r store.SendRecord) error
	CountToday(ctx context.Context) (int, error)
	LatestStatus(ctx context.Context, userID string) (types.Status, bool, error)
}

// Config describes one campaign run
type Config struct {
	// Templates are picked at random per target
	Templates []string
	// Policy supplies the interval bounds, the daily limit and whether to
	// follow first. Its CurrentSendCount is ignored in favour of the ledger.
	Policy types.SendPolicy
	// SkipExisting skips targets already marked success, in the file or in
	// the ledger
	SkipExisting bool
	// SelectAll sends to every target regardless of its isSend flag
	SelectAll bool
	Workers   int
	// TargetsPath is rewritten with updated statuses after every attempt.
	// Empty disables the rewrite.
	TargetsPath string
}

func (c Config) validate() error {
	var errs []error
	if len(c.Templates) == 0 {
		errs = append(errs, errors.New("at least one message template is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Workers))
	}
	if err := c.Policy.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Stats counts the outcome of every target in a run
type Stats struct {
	Total    int `json:"total"`
	Success  int `json:"success"`
	Error    int `json:"error"`
	Followed int `json:"followed"`
	Skipped  int `json:"skipped"`
	// Unsent targets were eligible but not attempted (limit or cancellation)
	Unsent int `json:"unsent"`
}

// Summary is the persisted record of one run
type Summary struct {
	RunID        string    `json:"runId"`
	TargetsFile  string    `json:"targetsFile"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	SentBefore   int       `json:"sentBefore"`
	DailyLimit   int       `json:"dailyLimit"`
	LimitReached bool      `json:"limitReached"`
	Stats        Stats     `json:"stats"`
}

// Exhausted reports whether the run left no selected target to retry:
// nothing unsent, failed or stuck after a follow
func (s Summary) Exhausted() bool {
	return s.Stats.Unsent == 0 && s.Stats.Error == 0 && s.Stats.Followed == 0
}

// Runner executes campaigns
type Runner struct {
	cfg          Config
	ledger       Ledger
	newSender    SenderFactory
	log          *zap.Logger
	pickTmpl     func(n int) int
	onAttempt    func(types.SendTarget, sender.Result)
	writeTargets func(path string, targets []types.SendTarget) error
}

// Option customizes a Runner
type Option func(*Runner)

// WithAttemptHook is called after every attempt, in completion order
func WithAttemptHook(fn func(types.SendTarget, sender.Result)) Option {
	return func(r *Runner) { r.onAttempt = fn }
}

// WithTemplatePicker replaces the random template choice
func WithTemplatePicker(fn func(n int) int) Option {
	return func(r *Runner) { r.pickTmpl = fn }
}

// New creates a Runner
func New(cfg Config, ledger Ledger, newSender SenderFactory, logger *zap.Logger, opts ...Option) (*Runner, error) {
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid campaign: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Runner{
		cfg:          cfg,
		ledger:       ledger,
		newSender:    newSender,
		log:          logger.Named("campaign"),
		pickTmpl:     rand.IntN,
		writeTargets: store.WriteTargetsCSV,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// eligible returns the indices of targets this run should attempt. The
// ledger is the source of truth for sends made outside the targets file
// (senddm, an older copy of the file), so a pending target it shows as sent
// or followed takes that status first.
func (r *Runner) eligible(ctx context.Context, targets []types.SendTarget, stats *Stats) ([]int, error) {
	var idx []int
	for i := range targets {
		t := &targets[i]
		if !t.IsSend && !r.cfg.SelectAll {
			stats.Skipped++
			continue
		}

		if t.Status == types.StatusPending || t.Status == types.StatusError {
			latest, ok, err := r.ledger.LatestStatus(ctx, t.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to read ledger status of %s: %w", t.UserID, err)
			}
			if ok && (latest == types.StatusSuccess || latest == types.StatusFollowed) {
				r.log.Debug("Status taken from ledger",
					zap.String("user_id", t.UserID),
					zap.String("file_status", string(t.Status)),
					zap.String("ledger_status", string(latest)))
				t.Status = latest
			}
		}

		if r.cfg.SkipExisting && t.Status == types.StatusSuccess {
			stats.Skipped++
			continue
		}
		idx = append(idx, i)
	}
	return idx, nil
}

// run is the mutable state of one Run call. mu guards targets, stats
// and the targets file.
type run struct {
	mu      sync.Mutex
	targets []types.SendTarget
	summary Summary
}

// Run attempts every eligible target once. targets is updated in place
// with each attempt's status. Send failures are counted, not returned; the
// error is reserved for cancellation and persistence failures.
func (r *Runner) Run(ctx context.Context, targets []types.SendTarget) (Summary, error) {
	sentBefore, err := r.ledger.CountToday(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read today's send count: %w", err)
	}

	st := &run{
		targets: targets,
		summary: Summary{
			RunID:       uuid.NewString(),
			TargetsFile: r.cfg.TargetsPath,
			StartedAt:   time.Now(),
			SentBefore:  sentBefore,
			DailyLimit:  r.cfg.Policy.DailyLimit,
			Stats:       Stats{Total: len(targets)},
		},
	}
	log := r.log.With(zap.String("run_id", st.summary.RunID))

	queue, err := r.eligible(ctx, targets, &st.summary.Stats)
	if err != nil {
		return Summary{}, err
	}
	counter := NewCounter(sentBefore, r.cfg.Policy.DailyLimit)

	log.Info("Starting campaign",
		zap.Int("targets", len(targets)),
		zap.Int("eligible", len(queue)),
		zap.Int("sent_today", sentBefore),
		zap.Int("daily_limit", r.cfg.Policy.DailyLimit),
		zap.Int("workers", r.cfg.Workers))

	work := make(chan int, len(queue))
	for _, i := range queue {
		work <- i
	}
	close(work)

	workers := min(r.cfg.Workers, max(len(queue), 1))
	attempted := 0
	var limitOnce sync.Once

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for w := range workers {
		g.Go(func() error {
			m, release, err := r.newSender(w)
			if err != nil {
				return fmt.Errorf("worker %d: %w", w, err)
			}
			defer release()

			for i := range work {
				if err := gctx.Err(); err != nil {
					return err
				}

				current, ok := counter.Reserve()
				if !ok {
					limitOnce.Do(func() {
						log.Info("Daily limit reached, stopping campaign", zap.Int("sent_today", current))
					})
					return nil
				}

				res, err := r.attempt(gctx, m, st, i, current)
				counter.Settle(res != nil && res.Success())
				if res != nil {
					st.mu.Lock()
					attempted++
					st.mu.Unlock()
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	}

	err = g.Wait()

	summary := st.summary
	summary.FinishedAt = time.Now()
	summary.Stats.Unsent = len(queue) - attempted
	summary.LimitReached = counter.Sent() >= r.cfg.Policy.DailyLimit && summary.Stats.Unsent > 0

	log.Info("Campaign finished",
		zap.Int("success", summary.Stats.Success),
		zap.Int("followed", summary.Stats.Followed),
		zap.Int("error", summary.Stats.Error),
		zap.Int("skipped", summary.Stats.Skipped),
		zap.Int("unsent", summary.Stats.Unsent),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)))

	return summary, err
}

// attempt sends to target i and records the outcome. A nil Result means
// the attempt was abandoned because ctx ended.
func (r *Runner) attempt(ctx context.Context, m Messenger, st *run, i, current int) (sender.Result, error) {
	st.mu.Lock()
	target := st.targets[i]
	st.mu.Unlock()

	policy := r.cfg.Policy
	policy.CurrentSendCount = current
	// Resume a half-finished target without following again
	if target.Status == types.StatusFollowed {
		policy.FollowBeforeMessage = false
	}

	msg := r.cfg.Templates[r.pickTmpl(len(r.cfg.Templates))]
	res := m.Send(ctx, target, msg, policy)

	if ctx.Err() != nil && errors.Is(res.Err(), ctx.Err()) {
		return nil, ctx.Err()
	}

	rec := store.SendRecord{
		RunID:       st.summary.RunID,
		UserID:      target.UserID,
		Status:      res.Status(),
		AttemptedAt: time.Now(),
	}
	if err := res.Err(); err != nil {
		rec.Error = err.Error()
	}
	// The attempt happened, so record it even if ctx ends now
	if err := r.ledger.RecordSend(context.WithoutCancel(ctx), rec); err != nil {
		return res, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	switch res.Status() {
	case types.StatusSuccess:
		st.summary.Stats.Success++
	case types.StatusFollowed:
		st.summary.Stats.Followed++
	default:
		st.summary.Stats.Error++
	}

	// A resumed follow that fails again is still followed
	if target.Status != types.StatusFollowed || res.Status() != types.StatusError {
		st.targets[i].Status = res.Status()
	}

	if r.onAttempt != nil {
		r.onAttempt(st.targets[i], res)
	}

	if r.cfg.TargetsPath == "" {
		return res, nil
	}
	if err := r.writeTargets(r.cfg.TargetsPath, st.targets); err != nil {
		return res, fmt.Errorf("failed to update targets file: %w", err)
	}
	return res, nil
}

// Package report renders campaign summaries and ledger listings as plain
// text for the terminal.
package report

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/ibeckermayer/xdrip/internal/campaign"
	"github.com/ibeckermayer/xdrip/internal/store"
)

// Builder renders reports from parsed templates
type Builder struct {
	summary *template.Template
	ledger  *template.Template
}

// New parses the report templates
func New() (*Builder, error) {
	funcs := template.FuncMap{
		"clock":    func(t time.Time) string { return t.Format("15:04:05") },
		"date":     func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		"duration": func(a, b time.Time) time.Duration { return b.Sub(a).Round(time.Second) },
		"remaining": func(limit, sent int) int {
			return max(limit-sent, 0)
		},
	}

	summary, err := template.New("summary").Funcs(funcs).Parse(summaryTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	ledger, err := template.New("ledger").Funcs(funcs).Parse(ledgerTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &Builder{summary: summary, ledger: ledger}, nil
}

// LedgerData is the input of the ledger listing
type LedgerData struct {
	Day        time.Time
	DailyLimit int
	Sent       int
	Records    []store.SendRecord
}

// Summary renders one campaign run
func (b *Builder) Summary(s campaign.Summary) (string, error) {
	var buf bytes.Buffer
	if err := b.summary.Execute(&buf, s); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

// Ledger renders a day's send attempts
func (b *Builder) Ledger(d LedgerData) (string, error) {
	var buf bytes.Buffer
	if err := b.ledger.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

const summaryTemplate = `Campaign {{.RunID}}
Started   {{date .StartedAt}} ({{duration .StartedAt .FinishedAt}})
{{- if .TargetsFile}}
Targets   {{.TargetsFile}}
{{- end}}

  total     {{.Stats.Total}}
  success   {{.Stats.Success}}
  followed  {{.Stats.Followed}}
  error     {{.Stats.Error}}
  skipped   {{.Stats.Skipped}}
  unsent    {{.Stats.Unsent}}

Sent today {{.SentBefore}} before this run, limit {{.DailyLimit}}
{{- if .LimitReached}}
Daily limit reached; rerun tomorrow to continue.
{{- end}}
`

const ledgerTemplate = `{{.Day.Format "2006-01-02"}}: {{.Sent}}/{{.DailyLimit}} sent, {{remaining .DailyLimit .Sent}} remaining
{{- range .Records}}
{{clock .AttemptedAt}}  {{printf "%-8s" .Status}}  @{{.UserID}}{{if .Error}}  {{.Error}}{{end}}
{{- else}}
no attempts yet
{{- end}}
`

package markup

import "context"

// Element is a located UI affordance
type Element interface {
	Click(ctx context.Context) error
	// Type enters text into the element as keystrokes
	Type(ctx context.Context, text string) error
	// LineBreak inserts a soft line break (Shift+Enter) without submitting
	LineBreak(ctx context.Context) error
}

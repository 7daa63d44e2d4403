package markup

import (
	"fmt"
	"strings"
)

// X.com DOM selectors and marker strings (Japanese UI).
// These are isolated here because X changes their DOM frequently.
// Update these, and bump Version, when scraping or sending breaks.

// Role names a UI affordance the rest of the code asks for
type Role string

const (
	RolePrimaryColumn Role = "primaryColumn"
	RoleListItem      Role = "listItem"
	RoleFollow        Role = "follow"
	RoleFollowBack    Role = "followBack"
	RoleFollowing     Role = "following"
	RoleMessage       Role = "message"
	RoleComposer      Role = "composer"
	RoleSend          Role = "send"
)

// Table maps roles to selector patterns. Patterns are tried in order;
// a %s verb is replaced with the target handle.
type Table struct {
	Version   string
	Selectors map[Role][]string
}

// Default is the markup revision the tools are built against
var Default = &Table{
	Version: "x-ja-2025.1",
	Selectors: map[Role][]string{
		RolePrimaryColumn: {`[data-testid="primaryColumn"]`},
		RoleListItem:      {`button`},
		RoleFollow:        {`[aria-label="フォロー @%s"]`},
		RoleFollowBack:    {`[aria-label="フォローバック @%s"]`},
		RoleFollowing:     {`[aria-label="フォロー中 @%s"]`},
		RoleMessage:       {`[aria-label="メッセージ"]`, `[data-testid="sendDMFromProfile"]`},
		RoleComposer:      {`[data-testid="dmComposerTextInput"]`},
		RoleSend:          {`[data-testid="dmComposerSendButton"]`, `[aria-label="送信"]`},
	},
}

// Resolve returns the concrete selectors for role, with handle filled in
func (t *Table) Resolve(role Role, handle string) ([]string, error) {
	patterns, ok := t.Selectors[role]
	if !ok || len(patterns) == 0 {
		return nil, fmt.Errorf("markup %s has no selector for role %q", t.Version, role)
	}
	out := make([]string, len(patterns))
	for i, p := range patterns {
		if strings.Contains(p, "%s") {
			out[i] = fmt.Sprintf(p, handle)
		} else {
			out[i] = p
		}
	}
	return out, nil
}

// Follower list markers
var (
	// RelationshipMarkers precede the bio fragments of a follower cell
	RelationshipMarkers = []string{"フォローされています", "フォロー中"}

	// BoilerplatePrefix is the duplicated button caption that leaks into bios
	BoilerplatePrefix = "フォローバック フォローバック "
)

// Nickname separators, tried in order
const (
	NicknameSeparator          = "@"
	NicknameFullWidthSeparator = "｜"
)

package markup

import (
	"slices"
	"strings"

	"github.com/ibeckermayer/xdrip/internal/types"
)

// ParseFollower applies the positional heuristic to the text fragments of
// one follower cell. ok is false when the cell lacks a name or a handle,
// which is also what any unrecognised markup produces.
func ParseFollower(fragments []string) (rec types.FollowerRecord, ok bool) {
	var profile strings.Builder
	inProfile := false

	for i, text := range fragments {
		switch {
		case i == 0:
			rec.Name = text
			rec.Nickname = Nickname(text)
		case strings.HasPrefix(text, "@"):
			rec.UserID = text[1:]
		case slices.Contains(RelationshipMarkers, text):
			inProfile = true
		case inProfile:
			profile.WriteString(text)
			profile.WriteString(" ")
		}
	}

	if rec.Name == "" || rec.UserID == "" {
		return types.FollowerRecord{}, false
	}

	rec.Profile = strings.TrimSpace(profile.String())
	if rest, found := strings.CutPrefix(rec.Profile, BoilerplatePrefix); found {
		rec.Profile = rest
	}
	return rec, true
}

// Nickname derives the short display label from a display name
func Nickname(name string) string {
	for _, sep := range []string{NicknameSeparator, NicknameFullWidthSeparator} {
		if before, _, found := strings.Cut(name, sep); found {
			return strings.TrimSpace(before)
		}
	}
	return name
}

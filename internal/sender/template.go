package sender

import "strings"

// NicknamePlaceholder is substituted with the target's nickname
const NicknamePlaceholder = "$${nick_name}"

// FormatMessage fills every placeholder occurrence in tmpl
func FormatMessage(tmpl, nickname string) string {
	return strings.NewReplacer(NicknamePlaceholder, nickname).Replace(tmpl)
}

// SplitLines breaks a message into the lines typed between soft breaks
func SplitLines(msg string) []string {
	lines := strings.Split(msg, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

package ui

import (
	"strings"
	"time"
	"unicode/utf8"
)

// formatListTime renders a sidebar timestamp: clock time for today,
// day/month otherwise.
func formatListTime(t *time.Time, now time.Time) string {
	if t == nil {
		return ""
	}
	if sameDay(*t, now) {
		return t.Format("15:04")
	}
	return t.Format("02/01")
}

// formatMessageTime renders a thread timestamp.
func formatMessageTime(t time.Time) string {
	return t.Format("15:04")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// initials returns the avatar letter for a handle.
func initials(handle string) string {
	if handle == "" {
		return "?"
	}
	r, _ := utf8.DecodeRuneInString(handle)
	return strings.ToUpper(string(r))
}

// unreadBadge renders an unread count, capped the way the original
// sidebar badge is.
func unreadBadge(count int) string {
	if count <= 0 {
		return ""
	}
	if count > 9 {
		return "9+"
	}
	return string(rune('0' + count))
}

// fitString truncates s to width runes, marking the cut with an
// ellipsis.
func fitString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// Package mention formats and parses Discord mention strings.
package mention

import "regexp"

var (
	userRx    = regexp.MustCompile(`^<@!?(\d+)>$`)
	channelRx = regexp.MustCompile(`<#(\d+)>`)
)

// User formats a user mention.
func User(userID string) string {
	return "<@" + userID + ">"
}

// Channel formats a channel mention.
func Channel(channelID string) string {
	return "<#" + channelID + ">"
}

// ParseUser extracts the user id from a mention string. The nickname form
// <@!id> is accepted alongside <@id>.
func ParseUser(s string) (string, bool) {
	m := userRx.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// FirstChannel extracts the first channel reference embedded in free text,
// e.g. the raid-channel pointer inside an announcement body.
func FirstChannel(text string) (string, bool) {
	m := channelRx.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

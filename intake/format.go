package intake

import (
	"fmt"
	"strings"

	"github.com/noamelf/whatsapp-me/events"
)

// summaryMarker prefixes every outbound event post. The content filter
// matches on it so the bot's own posts, echoed back by the protocol, are
// never re-analyzed.
const summaryMarker = "📅 *New event*"

func IsOwnSummary(text string) bool {
	return strings.Contains(text, summaryMarker)
}

// FormatSummary renders the human-readable event post sent to the target
// group.
func FormatSummary(ev events.Details, chatName string) string {
	var b strings.Builder
	b.WriteString(summaryMarker)
	b.WriteString("\n\n")

	if title := strings.TrimSpace(ev.Title); title != "" {
		fmt.Fprintf(&b, "*%s*\n", title)
	}
	when := strings.TrimSpace(ev.Date)
	if t := strings.TrimSpace(ev.Time); t != "" {
		if when != "" {
			when += ", " + t
		} else {
			when = t
		}
	}
	if when != "" {
		fmt.Fprintf(&b, "🗓 %s\n", when)
	}
	if loc := strings.TrimSpace(ev.Location); loc != "" {
		fmt.Fprintf(&b, "📍 %s\n", loc)
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	if chatName = strings.TrimSpace(chatName); chatName != "" {
		fmt.Fprintf(&b, "\n_spotted in %s_", chatName)
	}
	return strings.TrimRight(b.String(), "\n")
}

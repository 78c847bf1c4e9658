// Package calendar renders a detected event as a native calendar invite so
// recipients can add it with one tap.
package calendar

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/noamelf/whatsapp-me/events"
)

const defaultDuration = 2 * time.Hour

var ErrNoStartDate = errors.New("calendar: event has no parsable start date")

// startLayouts covers the shapes the model actually produces: full RFC3339,
// a zone-less local timestamp, and a bare date.
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Invite builds an .ics invite for the event. The UID is derived from the
// dedup fingerprint so re-sending the same occasion updates the existing
// calendar entry instead of creating a twin.
func Invite(d events.Details) (filename string, ics []byte, err error) {
	start, err := parseWhen(d.StartDateISO)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %q", ErrNoStartDate, d.StartDateISO)
	}
	end, endErr := parseWhen(d.EndDateISO)
	if endErr != nil || !end.After(start) {
		end = start.Add(defaultDuration)
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodRequest)
	cal.SetProductId("-//whatsapp-me//event bot//EN")

	ev := cal.AddEvent(inviteUID(d))
	now := time.Now().UTC()
	ev.SetCreatedTime(now)
	ev.SetDtStampTime(now)
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	ev.SetSummary(strings.TrimSpace(d.Title))
	if loc := strings.TrimSpace(d.Location); loc != "" {
		ev.SetLocation(loc)
	}
	if desc := strings.TrimSpace(d.Description); desc != "" {
		ev.SetDescription(desc)
	}

	return inviteFilename(d.Title), []byte(cal.Serialize()), nil
}

func parseWhen(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range startLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

func inviteUID(d events.Details) string {
	sum := sha256.Sum256([]byte(events.Fingerprint(d)))
	return hex.EncodeToString(sum[:16]) + "@whatsapp-me"
}

func inviteFilename(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "event"
	}
	if len(name) > 48 {
		name = name[:48]
	}
	return name + ".ics"
}

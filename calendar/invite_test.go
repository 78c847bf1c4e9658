package calendar

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/noamelf/whatsapp-me/events"
)

func TestInviteProducesParsableICS(t *testing.T) {
	d := events.Details{
		Title:        "Community Picnic",
		Location:     "HaYarkon Park",
		Description:  "Bring your own blanket",
		StartDateISO: "2026-09-05T11:00:00+03:00",
		EndDateISO:   "2026-09-05T14:00:00+03:00",
	}
	filename, data, err := Invite(d)
	if err != nil {
		t.Fatalf("Invite() error = %v", err)
	}
	if filename != "community-picnic.ics" {
		t.Fatalf("filename = %q", filename)
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}
	evs := cal.Events()
	if len(evs) != 1 {
		t.Fatalf("events = %d, want 1", len(evs))
	}
	ve := evs[0]
	if p := ve.GetProperty(ical.ComponentPropertySummary); p == nil || p.Value != "Community Picnic" {
		t.Fatalf("summary property = %v", p)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p == nil || p.Value != "HaYarkon Park" {
		t.Fatalf("location property = %v", p)
	}
	start, err := ve.GetStartAt()
	if err != nil {
		t.Fatalf("GetStartAt() error = %v", err)
	}
	if start.IsZero() {
		t.Fatalf("start time should be set")
	}
}

func TestInviteDefaultsEndToTwoHours(t *testing.T) {
	d := events.Details{Title: "Evening Talk", StartDateISO: "2026-09-05T19:00:00+03:00"}
	_, data, err := Invite(d)
	if err != nil {
		t.Fatalf("Invite() error = %v", err)
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}
	ve := cal.Events()[0]
	start, _ := ve.GetStartAt()
	end, err := ve.GetEndAt()
	if err != nil {
		t.Fatalf("GetEndAt() error = %v", err)
	}
	if got := end.Sub(start); got != 2*time.Hour {
		t.Fatalf("duration = %v, want 2h", got)
	}
}

func TestInviteStableUIDForSameOccasion(t *testing.T) {
	a := events.Details{Title: "Meeting", StartDateISO: "2026-09-01T10:00:00+03:00", Location: "Cafe"}
	b := events.Details{Title: "MEETING", StartDateISO: "2026-09-01T10:00:00+03:00", Location: "cafe"}
	_, icsA, err := Invite(a)
	if err != nil {
		t.Fatalf("Invite(a) error = %v", err)
	}
	_, icsB, err := Invite(b)
	if err != nil {
		t.Fatalf("Invite(b) error = %v", err)
	}
	uidA := extractUID(t, icsA)
	if uidA == "" || uidA != extractUID(t, icsB) {
		t.Fatalf("same occasion should produce the same UID")
	}
}

func TestInviteRejectsMissingStart(t *testing.T) {
	if _, _, err := Invite(events.Details{Title: "No date"}); !errors.Is(err, ErrNoStartDate) {
		t.Fatalf("Invite() error = %v, want ErrNoStartDate", err)
	}
}

// extractUID tolerates both LF and CRLF serializations.
func extractUID(t *testing.T, data []byte) string {
	t.Helper()
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, "UID:") {
			return strings.TrimPrefix(line, "UID:")
		}
	}
	return ""
}

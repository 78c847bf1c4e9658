package events

import "testing"

func TestFingerprintCaseAndWhitespaceInsensitive(t *testing.T) {
	a := Details{Title: "Meeting", StartDateISO: "2026-09-01T10:00:00+03:00", Location: "Cafe"}
	b := Details{Title: "  meeting ", StartDateISO: "2026-09-01T10:00:00+03:00", Location: "CAFE"}
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("fingerprints differ: %q vs %q", Fingerprint(a), Fingerprint(b))
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	d := Details{Title: "Beach cleanup", StartDateISO: "2026-09-05T09:00:00+03:00", Location: "Gordon Beach"}
	if Fingerprint(d) != Fingerprint(d) {
		t.Fatalf("fingerprint not deterministic")
	}
}

func TestFingerprintSensitiveToStartDate(t *testing.T) {
	a := Details{Title: "Meeting", StartDateISO: "2026-09-01T10:00:00+03:00", Location: "Cafe"}
	b := a
	b.StartDateISO = "2026-09-01T11:00:00+03:00"
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatalf("one-hour shift should change the fingerprint")
	}
}

func TestFingerprintSensitiveToTitleAndLocation(t *testing.T) {
	base := Details{Title: "Meeting", StartDateISO: "2026-09-01T10:00:00+03:00", Location: "Cafe"}
	differentTitle := base
	differentTitle.Title = "Standup"
	if Fingerprint(base) == Fingerprint(differentTitle) {
		t.Fatalf("title change should change the fingerprint")
	}
	differentLocation := base
	differentLocation.Location = "Office"
	if Fingerprint(base) == Fingerprint(differentLocation) {
		t.Fatalf("location change should change the fingerprint")
	}
}

func TestFingerprintMissingFieldsUsePlaceholder(t *testing.T) {
	d := Details{Title: "Meeting", StartDateISO: "2026-09-01T10:00:00+03:00"}
	got := Fingerprint(d)
	if got != "meeting|2026-09-01T10:00:00+03:00|" {
		t.Fatalf("Fingerprint() = %q", got)
	}
}

func TestFingerprintIgnoresTimeAndDescription(t *testing.T) {
	a := Details{Title: "Party", StartDateISO: "2026-09-01", Time: "19:00", Description: "bring snacks"}
	b := Details{Title: "Party", StartDateISO: "2026-09-01", Time: "21:00", Description: "totally different"}
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatalf("time/description should not participate in the fingerprint")
	}
}

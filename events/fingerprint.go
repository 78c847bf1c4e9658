package events

import "strings"

// Fingerprint derives the identity key used to decide whether two detected
// events describe the same real-world occasion. Title and location are
// case-folded and whitespace-normalized; the start date participates
// verbatim. Time, end date, description, and summary are intentionally left
// out: re-detections of the same occasion routinely disagree on those.
func Fingerprint(d Details) string {
	return normalizeKeyPart(d.Title) + "|" + strings.TrimSpace(d.StartDateISO) + "|" + normalizeKeyPart(d.Location)
}

func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

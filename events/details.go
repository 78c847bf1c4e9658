// Package events holds the event data contract shared with the LLM
// analyzer, the dedup fingerprint, and the persisted record of already
// published events.
package events

// Details is the per-event shape returned by the analyzer. All fields are
// free-form strings produced by the model; absent fields arrive empty.
type Details struct {
	IsEvent      bool   `json:"is_event"`
	Summary      string `json:"summary"`
	Title        string `json:"title"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	StartDateISO string `json:"start_date_iso"`
	EndDateISO   string `json:"end_date_iso"`
}

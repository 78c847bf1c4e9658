package analysis

import "testing"

const validPayload = `{"has_events":true,"events":[{"is_event":true,"title":"Coffee meetup","date":"2026-09-01","time":"10:00","location":"Nahalat Binyamin","start_date_iso":"2026-09-01T10:00:00+03:00"}]}`

func TestParseResultPlainJSON(t *testing.T) {
	res, err := ParseResult(validPayload)
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if !res.HasEvents || len(res.Events) != 1 {
		t.Fatalf("ParseResult() = %+v, want one event", res)
	}
	if res.Events[0].Title != "Coffee meetup" {
		t.Fatalf("Title = %q", res.Events[0].Title)
	}
}

func TestParseResultCodeFence(t *testing.T) {
	res, err := ParseResult("Here is the result:\n```json\n" + validPayload + "\n```\n")
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if !res.HasEvents {
		t.Fatalf("ParseResult() should extract JSON from code fence")
	}
}

func TestParseResultSurroundingProse(t *testing.T) {
	res, err := ParseResult("Sure! " + validPayload + " Let me know if you need more.")
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if !res.HasEvents {
		t.Fatalf("ParseResult() should extract the embedded JSON object")
	}
}

func TestParseResultMalformed(t *testing.T) {
	if _, err := ParseResult("I could not find any events, sorry!"); err == nil {
		t.Fatalf("ParseResult() expected error for non-JSON output")
	}
}

func TestParseResultEmptyEventsClearsFlag(t *testing.T) {
	res, err := ParseResult(`{"has_events":true,"events":[]}`)
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if res.HasEvents {
		t.Fatalf("has_events with no events should normalize to false")
	}
}

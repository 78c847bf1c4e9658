package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrParseFailure = errors.New("failed to parse event analysis from LLM output")

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n\\s*```")

// ParseResult decodes the analyzer's JSON contract from raw model output.
// Models sometimes wrap the JSON in a code fence or surround it with prose,
// so parsing falls back to fence and brace extraction before giving up.
func ParseResult(text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrParseFailure
	}

	var lastErr error
	if res, err := unmarshalResult([]byte(text)); err == nil {
		return res, nil
	} else {
		lastErr = err
	}

	if jsonStr := extractFromCodeBlock(text); jsonStr != "" {
		if res, err := unmarshalResult([]byte(jsonStr)); err == nil {
			return res, nil
		} else {
			lastErr = err
		}
	}

	if jsonStr := extractJSONObject(text); jsonStr != "" {
		if res, err := unmarshalResult([]byte(jsonStr)); err == nil {
			return res, nil
		} else {
			lastErr = err
		}
	}

	if lastErr != nil {
		return Result{}, lastErr
	}
	return Result{}, ErrParseFailure
}

func unmarshalResult(data []byte) (Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, err
	}
	if res.HasEvents && len(res.Events) == 0 {
		res.HasEvents = false
	}
	return res, nil
}

func extractFromCodeBlock(text string) string {
	matches := codeBlockRe.FindStringSubmatch(text)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

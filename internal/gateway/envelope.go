package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"loan-console/internal/common/errors"
)

// Envelope wraps every backend response. Callers branch on IsSuccessful,
// not on the HTTP status.
type Envelope struct {
	IsSuccessful   bool            `json:"isSuccessful"`
	ResponseObject json.RawMessage `json:"responseObject"`
	Message        string          `json:"message"`
	Errors         json.RawMessage `json:"errors"`
}

// Decode unmarshals ResponseObject into out. A false IsSuccessful flag is an
// application error even when the HTTP status was 2xx. out may be nil.
func (e *Envelope) Decode(out interface{}) error {
	if !e.IsSuccessful {
		return errors.NewApplicationError(0, e.FailureMessage())
	}
	if out == nil || len(e.ResponseObject) == 0 || bytes.Equal(e.ResponseObject, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(e.ResponseObject, out); err != nil {
		return errors.NewDecodeError(err)
	}
	return nil
}

// FailureMessage picks the best human-readable text out of the envelope.
func (e *Envelope) FailureMessage() string {
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	if msg := errorsText(e.Errors); msg != "" {
		return msg
	}
	return "The request was not successful."
}

// errorBody is the loose shape of a non-2xx JSON body.
type errorBody struct {
	Message string          `json:"message"`
	Errors  json.RawMessage `json:"errors"`
}

// extractErrorMessage walks the fallbacks for a non-2xx response: message,
// errors array, errors string, errors map, raw text, bare status.
func extractErrorMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)

	var eb errorBody
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &eb) == nil {
		if msg := strings.TrimSpace(eb.Message); msg != "" {
			return msg
		}
		if msg := errorsText(eb.Errors); msg != "" {
			return msg
		}
		return fmt.Sprintf("HTTP error! status: %d", status)
	}

	if len(trimmed) > 0 {
		text := string(trimmed)
		if r := []rune(text); len(r) > 100 {
			text = string(r[:100])
		}
		return fmt.Sprintf("Server error: %d - %s", status, text)
	}

	return fmt.Sprintf("HTTP error! status: %d", status)
}

// errorsText renders the errors member, which the backend sends as a list,
// a plain string or a field -> messages map.
func errorsText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var list []interface{}
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(flattenStrings(list), ", ")
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var m map[string]interface{}
	if json.Unmarshal(raw, &m) == nil {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var msgs []string
		for _, k := range keys {
			msgs = append(msgs, flattenStrings([]interface{}{m[k]})...)
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}

// flattenStrings collects non-empty strings from arbitrarily nested lists.
func flattenStrings(values []interface{}) []string {
	var out []string
	for _, v := range values {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case []interface{}:
			out = append(out, flattenStrings(t)...)
		}
	}
	return out
}

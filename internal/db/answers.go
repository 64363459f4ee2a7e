package db

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AnswerValue is a tagged variant over the two value shapes a submitted
// answer may take: a single text value, or an ordered list of chosen
// options. The zero value is an empty text answer.
type AnswerValue struct {
	text    string
	choices []string
	multi   bool
}

func TextAnswer(s string) AnswerValue {
	return AnswerValue{text: s}
}

func ChoicesAnswer(vals []string) AnswerValue {
	return AnswerValue{choices: vals, multi: true}
}

func (v AnswerValue) IsMulti() bool { return v.multi }

func (v AnswerValue) Text() string { return v.text }

func (v AnswerValue) Choices() []string { return v.choices }

// IsEmpty is the single emptiness predicate used by required-field
// validation: missing key, null, "", whitespace-only text, and an empty
// list all count as empty.
func (v AnswerValue) IsEmpty() bool {
	if v.multi {
		return len(v.choices) == 0
	}
	return strings.TrimSpace(v.text) == ""
}

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.multi {
		return json.Marshal(v.choices)
	}
	return json.Marshal(v.text)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = AnswerValue{}
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("answer list must contain only strings: %w", err)
		}
		*v = ChoicesAnswer(list)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("answer must be a string or a list of strings: %w", err)
	}
	*v = TextAnswer(s)
	return nil
}

// AnswerMap maps question field keys to submitted values. Stored as
// JSONB.
type AnswerMap map[string]AnswerValue

func (m AnswerMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *AnswerMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(AnswerMap)
		return nil
	}
	return json.Unmarshal(value.([]byte), m)
}

// Get returns the value for key; a missing key is an empty answer.
func (m AnswerMap) Get(key string) AnswerValue {
	return m[key]
}

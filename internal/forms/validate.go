package forms

import (
	"fmt"

	"github.com/nexioai/nexio-ingest/internal/db"
)

// ValidationError names the first field that failed validation. Nothing
// is persisted when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// ValidateAnswers checks a submitted answer set against the tenant's
// question schema in order_index order. Keys that match no question are
// allowed and flow through to the webhook payload untouched.
func ValidateAnswers(questions []*db.Question, answers db.AnswerMap) error {
	for _, q := range questions {
		value := answers.Get(q.FieldKey)

		if q.IsRequired && value.IsEmpty() {
			return &ValidationError{Field: q.FieldKey, Message: "answer is required"}
		}
		if value.IsEmpty() {
			continue
		}

		if q.Type.RequiresOptions() {
			if err := validateChoices(q, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateChoices(q *db.Question, value db.AnswerValue) error {
	allowed := make(map[string]bool, len(q.Options))
	for _, opt := range q.Options {
		allowed[opt] = true
	}

	if q.Type.MultiValue() {
		if !value.IsMulti() {
			return &ValidationError{Field: q.FieldKey, Message: "answer must be a list of options"}
		}
		for _, choice := range value.Choices() {
			if !allowed[choice] {
				return &ValidationError{Field: q.FieldKey, Message: fmt.Sprintf("%q is not a valid option", choice)}
			}
		}
		return nil
	}

	if value.IsMulti() {
		return &ValidationError{Field: q.FieldKey, Message: "answer must be a single option"}
	}
	if !allowed[value.Text()] {
		return &ValidationError{Field: q.FieldKey, Message: fmt.Sprintf("%q is not a valid option", value.Text())}
	}
	return nil
}

// ValidateQuestion enforces authoring-time invariants: choice questions
// must carry options, text questions must not.
func ValidateQuestion(q *db.Question) error {
	if q.FieldKey == "" {
		return &ValidationError{Field: "field_key", Message: "field key is required"}
	}
	if q.Type.RequiresOptions() && len(q.Options) == 0 {
		return &ValidationError{Field: q.FieldKey, Message: "options are required for choice questions"}
	}
	return nil
}

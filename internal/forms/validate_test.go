package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexioai/nexio-ingest/internal/db"
)

func questionSchema() []*db.Question {
	return []*db.Question{
		{FieldKey: "name", Type: db.QuestionTypeText, IsRequired: true, OrderIndex: 0},
		{FieldKey: "whatsapp", Type: db.QuestionTypeText, OrderIndex: 1},
		{FieldKey: "segmento", Type: db.QuestionTypeSelect, IsRequired: true, OrderIndex: 2,
			Options: db.StringSlice{"varejo", "servicos", "industria"}},
		{FieldKey: "canais", Type: db.QuestionTypeMultiselect, OrderIndex: 3,
			Options: db.StringSlice{"email", "whatsapp", "instagram"}},
	}
}

func TestValidateAnswers(t *testing.T) {
	questions := questionSchema()

	t.Run("valid submission", func(t *testing.T) {
		answers := db.AnswerMap{
			"name":     db.TextAnswer("Maria"),
			"segmento": db.TextAnswer("varejo"),
			"canais":   db.ChoicesAnswer([]string{"email", "instagram"}),
		}
		assert.NoError(t, ValidateAnswers(questions, answers))
	})

	t.Run("missing required field", func(t *testing.T) {
		answers := db.AnswerMap{"segmento": db.TextAnswer("varejo")}
		err := ValidateAnswers(questions, answers)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
	})

	t.Run("whitespace only counts as empty", func(t *testing.T) {
		answers := db.AnswerMap{
			"name":     db.TextAnswer("   "),
			"segmento": db.TextAnswer("varejo"),
		}
		var verr *ValidationError
		require.ErrorAs(t, ValidateAnswers(questions, answers), &verr)
		assert.Equal(t, "name", verr.Field)
	})

	t.Run("unknown option rejected", func(t *testing.T) {
		answers := db.AnswerMap{
			"name":     db.TextAnswer("Maria"),
			"segmento": db.TextAnswer("agro"),
		}
		var verr *ValidationError
		require.ErrorAs(t, ValidateAnswers(questions, answers), &verr)
		assert.Equal(t, "segmento", verr.Field)
	})

	t.Run("list answer for single select rejected", func(t *testing.T) {
		answers := db.AnswerMap{
			"name":     db.TextAnswer("Maria"),
			"segmento": db.ChoicesAnswer([]string{"varejo"}),
		}
		var verr *ValidationError
		require.ErrorAs(t, ValidateAnswers(questions, answers), &verr)
		assert.Equal(t, "segmento", verr.Field)
	})

	t.Run("text answer for multiselect rejected", func(t *testing.T) {
		answers := db.AnswerMap{
			"name":     db.TextAnswer("Maria"),
			"segmento": db.TextAnswer("varejo"),
			"canais":   db.TextAnswer("email"),
		}
		var verr *ValidationError
		require.ErrorAs(t, ValidateAnswers(questions, answers), &verr)
		assert.Equal(t, "canais", verr.Field)
	})

	t.Run("invalid choice inside multiselect rejected", func(t *testing.T) {
		answers := db.AnswerMap{
			"name":     db.TextAnswer("Maria"),
			"segmento": db.TextAnswer("varejo"),
			"canais":   db.ChoicesAnswer([]string{"email", "fax"}),
		}
		var verr *ValidationError
		require.ErrorAs(t, ValidateAnswers(questions, answers), &verr)
		assert.Equal(t, "canais", verr.Field)
	})

	t.Run("optional empty choice field skipped", func(t *testing.T) {
		answers := db.AnswerMap{
			"name":     db.TextAnswer("Maria"),
			"segmento": db.TextAnswer("varejo"),
			"canais":   db.ChoicesAnswer(nil),
		}
		assert.NoError(t, ValidateAnswers(questions, answers))
	})

	t.Run("extra keys flow through untouched", func(t *testing.T) {
		answers := db.AnswerMap{
			"name":       db.TextAnswer("Maria"),
			"segmento":   db.TextAnswer("varejo"),
			"utm_source": db.TextAnswer("instagram"),
		}
		assert.NoError(t, ValidateAnswers(questions, answers))
	})
}

func TestValidateQuestion(t *testing.T) {
	t.Run("choice question needs options", func(t *testing.T) {
		q := &db.Question{FieldKey: "plan", Type: db.QuestionTypeSelect}
		assert.Error(t, ValidateQuestion(q))
	})

	t.Run("text question without options is fine", func(t *testing.T) {
		q := &db.Question{FieldKey: "notes", Type: db.QuestionTypeTextarea}
		assert.NoError(t, ValidateQuestion(q))
	})

	t.Run("field key required", func(t *testing.T) {
		q := &db.Question{Type: db.QuestionTypeText}
		assert.Error(t, ValidateQuestion(q))
	})
}

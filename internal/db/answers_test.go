package db

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerValueUnmarshal(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		var v AnswerValue
		require.NoError(t, json.Unmarshal([]byte(`"Maria"`), &v))
		assert.False(t, v.IsMulti())
		assert.Equal(t, "Maria", v.Text())
	})

	t.Run("list", func(t *testing.T) {
		var v AnswerValue
		require.NoError(t, json.Unmarshal([]byte(`["email","phone"]`), &v))
		assert.True(t, v.IsMulti())
		assert.Equal(t, []string{"email", "phone"}, v.Choices())
	})

	t.Run("null is empty", func(t *testing.T) {
		var v AnswerValue
		require.NoError(t, json.Unmarshal([]byte(`null`), &v))
		assert.True(t, v.IsEmpty())
	})

	t.Run("number rejected", func(t *testing.T) {
		var v AnswerValue
		assert.Error(t, json.Unmarshal([]byte(`42`), &v))
	})

	t.Run("mixed list rejected", func(t *testing.T) {
		var v AnswerValue
		assert.Error(t, json.Unmarshal([]byte(`["a", 1]`), &v))
	})
}

func TestAnswerValueIsEmpty(t *testing.T) {
	assert.True(t, TextAnswer("").IsEmpty())
	assert.True(t, TextAnswer("   ").IsEmpty())
	assert.True(t, TextAnswer("\t\n").IsEmpty())
	assert.False(t, TextAnswer("x").IsEmpty())

	assert.True(t, ChoicesAnswer(nil).IsEmpty())
	assert.True(t, ChoicesAnswer([]string{}).IsEmpty())
	assert.False(t, ChoicesAnswer([]string{"a"}).IsEmpty())

	// A missing key yields the zero value, which is empty.
	m := AnswerMap{}
	assert.True(t, m.Get("absent").IsEmpty())
}

func TestAnswerValueMarshalRoundTrip(t *testing.T) {
	m := AnswerMap{
		"name":     TextAnswer("Maria"),
		"channels": ChoicesAnswer([]string{"email", "phone"}),
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var back AnswerMap
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "Maria", back.Get("name").Text())
	assert.Equal(t, []string{"email", "phone"}, back.Get("channels").Choices())
}

func TestAnswerMapScan(t *testing.T) {
	var m AnswerMap
	require.NoError(t, m.Scan([]byte(`{"city":"Recife","tags":["a","b"]}`)))
	assert.Equal(t, "Recife", m.Get("city").Text())
	assert.True(t, m.Get("tags").IsMulti())

	var empty AnswerMap
	require.NoError(t, empty.Scan(nil))
	assert.NotNil(t, empty)
	assert.Len(t, empty, 0)
}

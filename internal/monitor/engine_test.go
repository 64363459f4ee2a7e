package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractErrorInfo(t *testing.T) {
	t.Run("node as object", func(t *testing.T) {
		detail := map[string]interface{}{
			"data": map[string]interface{}{
				"resultData": map[string]interface{}{
					"error": map[string]interface{}{
						"message": "connection refused",
						"node":    map[string]interface{}{"name": "HTTP Request"},
					},
				},
			},
		}
		message, node := ExtractErrorInfo(detail)
		assert.Equal(t, "connection refused", message)
		assert.Equal(t, "HTTP Request", node)
	})

	t.Run("node as string", func(t *testing.T) {
		detail := map[string]interface{}{
			"data": map[string]interface{}{
				"resultData": map[string]interface{}{
					"error": map[string]interface{}{
						"message": "bad credentials",
						"node":    "Postgres",
					},
				},
			},
		}
		message, node := ExtractErrorInfo(detail)
		assert.Equal(t, "bad credentials", message)
		assert.Equal(t, "Postgres", node)
	})

	t.Run("missing levels yield empty strings", func(t *testing.T) {
		for _, detail := range []map[string]interface{}{
			nil,
			{},
			{"data": map[string]interface{}{}},
			{"data": map[string]interface{}{"resultData": map[string]interface{}{}}},
			{"data": "not a map"},
		} {
			message, node := ExtractErrorInfo(detail)
			assert.Empty(t, message)
			assert.Empty(t, node)
		}
	})
}

package rulepeg

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := NewLogger(&buf, "info", "json")
		require.NoError(t, err)
		logger.WithField("rule", "entry").Info("hello")
		logger.Debug("hidden")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "entry", entry["rule"])
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger(&bytes.Buffer{}, "loud", "text")
		require.Error(t, err)
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := NewLogger(&bytes.Buffer{}, "info", "xml")
		assert.EqualError(t, err, "unknown log format `xml`")
	})
}

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("prod emits json at info", func(t *testing.T) {
		var buf bytes.Buffer
		log := newWithWriter(envProd, &buf)

		log.Debug("hidden")
		log.Info("visible", "user_id", 7)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
		assert.Equal(t, "visible", record["msg"])
		assert.EqualValues(t, 7, record["user_id"])
	})

	t.Run("local emits text at debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := newWithWriter(envLocal, &buf)

		log.Debug("shown")

		assert.Contains(t, buf.String(), "msg=shown")
		assert.Contains(t, buf.String(), "level=DEBUG")
	})
}

package alerts

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/internal/cmd/output"
)

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, output.FormatTable, false)

	require.NoError(t, w.Write(Success("Archived %d records", 3)))
	require.NoError(t, w.Write(Warning("2 of 5 records were not changed").WithError(errors.New("r9: not found"))))

	assert.Equal(t, "✓ Archived 3 records\n! 2 of 5 records were not changed: r9: not found\n", buf.String())
}

func TestWriteStructured(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, output.FormatJSON, true).Write(Info("%d records are valid", 4)))
	assert.JSONEq(t, `{"level":"info","message":"4 records are valid"}`, buf.String())

	buf.Reset()
	require.NoError(t, NewWriter(&buf, output.FormatYAML, false).Write(Success("done").WithError(nil)))
	assert.Equal(t, "---\nlevel: success\nmessage: done\n", buf.String())
}

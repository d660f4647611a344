package version

import (
	"bytes"
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/internal/cmd/application"
)

func TestVersion(t *testing.T) {
	m := &application.Mock{VersionFunc: func() string { return "1.4.0" }}
	cmd := NewCommand(m)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	var info Info
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "test", info.BuiltBy)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

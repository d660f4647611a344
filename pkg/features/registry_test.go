package features

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/pkg/errors"
)

const registryYAML = `features:
  - feature_code: ess_leave
    module_code: leave
    route_path: /ess/leave
    description: Employee leave requests
  - feature_code: payroll_run
    module_code: payroll
    route_path: /admin/payroll/run
    description: Run payroll
`

func TestParseRegistry(t *testing.T) {
	entries, err := ParseRegistry(strings.NewReader(registryYAML), "registry.yaml")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, RegistryEntry{
		FeatureCode: "ess_leave",
		ModuleCode:  "leave",
		RoutePath:   "/ess/leave",
		Description: "Employee leave requests",
	}, entries[0])
}

func TestParseRegistryRejectsBadInput(t *testing.T) {
	t.Run("duplicate code", func(t *testing.T) {
		doc := registryYAML + "  - feature_code: ess_leave\n"
		_, err := ParseRegistry(strings.NewReader(doc), "dup.yaml")
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := ParseRegistry(strings.NewReader("features:\n  - module_code: leave\n"), "blank.yaml")
		assert.True(t, errors.IsValidationError(err))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := ParseRegistry(strings.NewReader("features:\n  - feature_code: a\n    colour: red\n"), "strict.yaml")
		var pe *errors.ParseError
		assert.ErrorAs(t, err, &pe)
	})
}

func TestMarshalRegistryRoundTrip(t *testing.T) {
	in := []RegistryEntry{{FeatureCode: "timesheet", ModuleCode: "time", RoutePath: "/timesheet", Description: "Timesheets"}}
	data, err := MarshalRegistry(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "feature_code: timesheet")

	out, err := ParseRegistry(strings.NewReader(string(data)), "roundtrip")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestFileRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(registryYAML), 0o600))

	entries, err := FileRegistry{Path: path}.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = FileRegistry{Path: filepath.Join(t.TempDir(), "missing.yaml")}.Entries(context.Background())
	var ioErr *errors.IOError
	assert.ErrorAs(t, err, &ioErr)
}

func TestStaticRegistryReturnsCopy(t *testing.T) {
	reg := StaticRegistry{{FeatureCode: "a"}}
	entries, err := reg.Entries(context.Background())
	require.NoError(t, err)
	entries[0].FeatureCode = "mutated"
	assert.Equal(t, "a", reg[0].FeatureCode)
}

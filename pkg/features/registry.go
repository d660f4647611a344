package features

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/featurereg/pkg/errors"
)

// RegistrySource supplies the code-declared feature registry. A source is
// read once per analysis pass.
type RegistrySource interface {
	Entries(ctx context.Context) ([]RegistryEntry, error)
}

// registryDocument is the on-disk registry layout.
type registryDocument struct {
	Features []RegistryEntry `yaml:"features"`
}

// ParseRegistry decodes and validates a YAML registry document. The name is
// used in error messages only.
func ParseRegistry(r io.Reader, name string) ([]RegistryEntry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}

	var doc registryDocument
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, errors.NewParseError("yaml", name, yaml.FormatError(err, false, true), err)
	}

	if err := ValidateRegistry(doc.Features); err != nil {
		return nil, err
	}
	return doc.Features, nil
}

// ValidateRegistry rejects entries without a code and duplicate codes.
func ValidateRegistry(entries []RegistryEntry) error {
	seen := make(map[string]struct{}, len(entries))
	for i, e := range entries {
		if strings.TrimSpace(e.FeatureCode) == "" {
			return errors.NewValidationError("feature_code", i, "registry entry has no feature code")
		}
		if _, dup := seen[e.FeatureCode]; dup {
			return errors.NewValidationError("feature_code", e.FeatureCode, "duplicate registry feature code")
		}
		seen[e.FeatureCode] = struct{}{}
	}
	return nil
}

// MarshalRegistry encodes entries in the registry document layout.
func MarshalRegistry(entries []RegistryEntry) ([]byte, error) {
	return yaml.MarshalWithOptions(registryDocument{Features: entries}, yaml.IndentSequence(true))
}

// StaticRegistry is an in-memory registry.
type StaticRegistry []RegistryEntry

// Entries implements RegistrySource.
func (s StaticRegistry) Entries(_ context.Context) ([]RegistryEntry, error) {
	out := make([]RegistryEntry, len(s))
	copy(out, s)
	return out, nil
}

// FileRegistry reads the registry from a YAML file on every pass.
type FileRegistry struct {
	Path string
}

// Entries implements RegistrySource.
func (f FileRegistry) Entries(ctx context.Context) ([]RegistryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, errors.WrapIO("read", f.Path, err)
	}
	return ParseRegistry(bytes.NewReader(data), f.Path)
}

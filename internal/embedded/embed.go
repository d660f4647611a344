// Package embedded carries the feature registry compiled into the binary.
package embedded

import (
	"bytes"
	"context"
	"embed"

	"github.com/agentstation/featurereg/pkg/features"
)

// FS embeds the default registry document.
//
//go:embed registry/*
var FS embed.FS

// RegistryPath is the registry document inside FS.
const RegistryPath = "registry/features.yaml"

// Registry reads the embedded registry.
type Registry struct{}

// Entries implements features.RegistrySource.
func (Registry) Entries(ctx context.Context) ([]features.RegistryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := FS.ReadFile(RegistryPath)
	if err != nil {
		return nil, err
	}
	return features.ParseRegistry(bytes.NewReader(data), "embedded:"+RegistryPath)
}

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/features"
	ft "github.com/agentstation/featurereg/pkg/features/featurestest"
)

func TestMemory(t *testing.T) {
	runConformance(t, func(t *testing.T) store.Store {
		return store.NewMemory()
	})
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory(ft.Record("payslip", "Payslip"))

	got, err := s.Get(ctx, "id-payslip")
	require.NoError(t, err)
	got.Review.Status = features.ReviewArchived

	again, err := s.Get(ctx, "id-payslip")
	require.NoError(t, err)
	assert.Equal(t, features.ReviewPending, again.Review.Status)
}

func TestMemoryHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.NewMemory().List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     store.Config
		wantErr bool
	}{
		{"memory", store.DefaultConfig(), false},
		{"sqlite with dsn", store.Config{Driver: "sqlite", DSN: "x.db"}, false},
		{"sqlite without dsn", store.Config{Driver: "sqlite"}, true},
		{"unknown driver", store.Config{Driver: "oracle", DSN: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

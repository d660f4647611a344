package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/featurereg/internal/store"
	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	ft "github.com/agentstation/featurereg/pkg/features/featurestest"
)

// runConformance exercises the behavior every Store backend must share.
func runConformance(t *testing.T, open func(t *testing.T) store.Store) {
	t.Helper()
	ctx := context.Background()

	seed := []features.FeatureRecord{
		ft.Record("leave_request", "Leave Request", ft.Complete("hr", "/leave", "Request leave")),
		ft.Record("payslip", "Payslip", ft.CreatedAfter(time.Hour)),
		ft.Record("old_report", "Old Report", ft.Status(features.ReviewKept), ft.CreatedAfter(2*time.Hour)),
	}

	t.Run("insert and list", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, seed...))

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "leave_request", got[0].FeatureCode)
		assert.Equal(t, "hr", got[0].ModuleCode)
		assert.Equal(t, "/leave", got[0].RoutePath)
		assert.Equal(t, features.SourceManualEntry, got[0].Source)
		assert.True(t, got[0].CreatedAt.Equal(utc.New(ft.Epoch)), "created_at round trips")
		assert.Empty(t, got[1].ModuleCode)
		assert.Equal(t, features.ReviewKept, got[2].Review.Status)
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, seed[0]))
		err := s.Insert(ctx, seed[0])
		assert.True(t, errors.IsAlreadyExists(err), "got %v", err)
	})

	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(ctx, "nope")
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("update review", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, seed...))

		at := utc.New(ft.Epoch.Add(24 * time.Hour))
		err := s.UpdateReview(ctx, "id-payslip", features.ReviewUpdate{
			Expected:   features.ReviewPending,
			Status:     features.ReviewArchived,
			ReviewedBy: "dana",
			ReviewedAt: &at,
		})
		require.NoError(t, err)

		got, err := s.Get(ctx, "id-payslip")
		require.NoError(t, err)
		assert.Equal(t, features.ReviewArchived, got.Review.Status)
		assert.Equal(t, "dana", got.Review.ReviewedBy)
		require.NotNil(t, got.Review.ReviewedAt)
		assert.True(t, got.Review.ReviewedAt.Equal(at))
	})

	t.Run("update review rejects stale status", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, seed...))

		err := s.UpdateReview(ctx, "id-old_report", features.ReviewUpdate{
			Expected: features.ReviewPending,
			Status:   features.ReviewArchived,
		})
		assert.True(t, errors.IsInvalidTransition(err), "got %v", err)

		got, err := s.Get(ctx, "id-old_report")
		require.NoError(t, err)
		assert.Equal(t, features.ReviewKept, got.Review.Status)
	})

	t.Run("update review missing", func(t *testing.T) {
		s := open(t)
		err := s.UpdateReview(ctx, "nope", features.ReviewUpdate{Status: features.ReviewArchived})
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("delete", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, seed...))
		require.NoError(t, s.Delete(ctx, "id-payslip", features.ReviewPending))

		_, err := s.Get(ctx, "id-payslip")
		assert.True(t, errors.IsNotFound(err))
		assert.True(t, errors.IsNotFound(s.Delete(ctx, "id-payslip", "")))

		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("delete stale status", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Insert(ctx, seed...))

		err := s.Delete(ctx, "id-old_report", features.ReviewPending)
		assert.True(t, errors.IsInvalidTransition(err), "got %v", err)

		got, err := s.Get(ctx, "id-old_report")
		require.NoError(t, err)
		assert.Equal(t, features.ReviewKept, got.Review.Status)
	})
}

package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/featurereg/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "feature record",
			ID:       "rec-1",
		}
		assert.Equal(t, "feature record with ID rec-1 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("feature record", "rec-2")
		wrapped := fmt.Errorf("archive: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "confirm",
			Message: "confirmation token required",
		}
		assert.Equal(t, "validation failed for field confirm: confirmation token required", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "no ids given"}
		assert.Equal(t, "validation failed: no ids given", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestDataFetchError(t *testing.T) {
	base := errors.New("connection refused")
	err := pkgerrors.NewDataFetchError("store", base)

	assert.Equal(t, "failed to fetch store: connection refused", err.Error())
	assert.True(t, pkgerrors.IsFetchError(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, pkgerrors.IsMutationError(err))
}

func TestMutationError(t *testing.T) {
	t.Run("wraps cause", func(t *testing.T) {
		cause := pkgerrors.NewNotFoundError("feature record", "rec-9")
		err := pkgerrors.NewMutationError("archive", "rec-9", cause)

		assert.Contains(t, err.Error(), "archive rec-9")
		assert.True(t, pkgerrors.IsMutationError(err))
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("transition cause", func(t *testing.T) {
		err := pkgerrors.WrapMutation("keep", "rec-3", pkgerrors.NewTransitionError("archived", "kept"))

		var te *pkgerrors.TransitionError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, "archived", te.From)
		assert.True(t, pkgerrors.IsInvalidTransition(err))
	})

	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapMutation("delete", "rec-1", nil))
	})
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("analysis", "batch_threshold must be positive", nil)
	assert.Contains(t, err.Error(), "analysis")
	assert.Contains(t, err.Error(), "batch_threshold")
	assert.Nil(t, err.Unwrap())
}

func TestParseError(t *testing.T) {
	t.Run("with file", func(t *testing.T) {
		err := &pkgerrors.ParseError{
			Format:  "yaml",
			File:    "registry.yaml",
			Message: "invalid indentation",
		}
		assert.Equal(t, "parse error in yaml file registry.yaml: invalid indentation", err.Error())
	})

	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("EOF")
		parseErr := pkgerrors.NewParseError("yaml", "records.yaml", "unexpected end", baseErr)
		assert.Equal(t, "records.yaml", parseErr.File)
		assert.Equal(t, baseErr, parseErr.Unwrap())
	})
}

func TestIOError(t *testing.T) {
	baseErr := errors.New("disk full")
	err := pkgerrors.WrapIO("write", "/tmp/orphans.csv", baseErr)

	ioErr, ok := err.(*pkgerrors.IOError)
	require.True(t, ok)
	assert.Equal(t, "write", ioErr.Operation)
	assert.Contains(t, err.Error(), "/tmp/orphans.csv")
	assert.Nil(t, pkgerrors.WrapIO("read", "file", nil))
}

func TestWrapFetch(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapFetch("registry", nil))

	err := pkgerrors.WrapFetch("registry", errors.New("bad yaml"))
	var fe *pkgerrors.DataFetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "registry", fe.Source)
}

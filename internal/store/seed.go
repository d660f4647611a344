package store

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/agentstation/featurereg/pkg/errors"
	"github.com/agentstation/featurereg/pkg/features"
	"github.com/agentstation/featurereg/pkg/logging"
)

type recordsDocument struct {
	Records []features.FeatureRecord `yaml:"records"`
}

// ParseRecords decodes a YAML records document. Records without an ID get a
// random UUID, records without a creation time get now, and an empty review
// status means pending.
func ParseRecords(r io.Reader, name string, now time.Time) ([]features.FeatureRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}

	var doc recordsDocument
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, errors.NewParseError("yaml", name, yaml.FormatError(err, false, true), err)
	}

	for i := range doc.Records {
		rec := &doc.Records[i]
		if strings.TrimSpace(rec.FeatureCode) == "" {
			return nil, errors.NewValidationError("feature_code", i, "record has no feature code")
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = utc.New(now)
		}
		rec.Source = features.ParseSource(string(rec.Source))
		status, err := features.ParseReviewStatus(string(rec.Review.Status))
		if err != nil {
			return nil, err
		}
		rec.Review.Status = status
	}
	return doc.Records, nil
}

// MarshalRecords encodes records in the import document layout.
func MarshalRecords(records []features.FeatureRecord) ([]byte, error) {
	return yaml.MarshalWithOptions(recordsDocument{Records: records}, yaml.IndentSequence(true))
}

// Import inserts parsed records into s.
func Import(ctx context.Context, s Store, records []features.FeatureRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.Insert(ctx, records...); err != nil {
		return err
	}
	logging.FromContext(ctx).Info().Int("records", len(records)).Msg("Imported feature records")
	return nil
}

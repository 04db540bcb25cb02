// Package engine implements the feature materialization engine: computing,
// validating and persisting feature columns on per-reference-frame tables.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/mkedata/crosswalk/internal/common"
	"github.com/mkedata/crosswalk/internal/feature"
	"github.com/mkedata/crosswalk/internal/model"
	"github.com/mkedata/crosswalk/internal/service"
)

// State tracks a (feature, reference-frame) pair through materialization.
type State string

// Materialization states. Persisted and Rejected are terminal.
const (
	StateNotComputed State = "not_computed"
	StateComputed    State = "computed"
	StateValidated   State = "validated"
	StatePersisted   State = "persisted"
	StateRejected    State = "rejected"
	StateSkipped     State = "skipped"
)

// Rejection records why one feature failed the validation gate.
type Rejection struct {
	Feature string
	Reason  string
}

// Report summarizes one materialization run: which features were persisted,
// which were skipped because their column already existed, and which were
// rejected with the specific rule violated.
type Report struct {
	Table     string
	Persisted []string
	Skipped   []string
	Rejected  []Rejection
}

// Config holds configuration options for the materializer.
type Config struct {
	ShowProgress bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{ShowProgress: true}
}

// Materializer orchestrates feature materialization against a store.
type Materializer struct {
	store    service.Store
	registry *feature.Registry
	config   Config
}

// New creates a materializer with the default configuration.
func New(store service.Store, registry *feature.Registry) *Materializer {
	return NewWithConfig(store, registry, DefaultConfig())
}

// NewWithConfig creates a materializer with custom configuration.
func NewWithConfig(store service.Store, registry *feature.Registry, config Config) *Materializer {
	return &Materializer{store: store, registry: registry, config: config}
}

// Materialize computes, validates and persists the requested features on
// the named reference-frame table. The table is created seeded from the
// mapping when absent; features whose column already exists are skipped;
// the eligibility feature is implicitly appended when absent. A validation
// rejection fails only that feature; store failures abort the run with the
// partial report.
func (m *Materializer) Materialize(ctx context.Context, features []string, table string) (*Report, error) {
	fr, err := model.ParseFrame(table)
	if err != nil {
		return nil, err
	}

	slog.Info("Starting materialization",
		"table", table, "mode", string(fr.Mode), "threshold", fr.Threshold,
		"features", len(features))

	exists, err := m.store.TableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := m.store.CreateFrameTable(ctx, table); err != nil {
			return nil, err
		}
	}

	features = ensureEligibility(features)
	report := &Report{Table: table}
	bar := m.newProgressBar(len(features), table)

	for _, name := range features {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		state, reason, err := m.materializeOne(ctx, name, fr)
		if err != nil {
			return report, fmt.Errorf("feature %s: %w", name, err)
		}
		switch state {
		case StatePersisted:
			report.Persisted = append(report.Persisted, name)
		case StateSkipped:
			report.Skipped = append(report.Skipped, name)
		case StateRejected:
			report.Rejected = append(report.Rejected, Rejection{Feature: name, Reason: reason})
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	slog.Info("Materialization complete",
		"table", table,
		"persisted", len(report.Persisted),
		"skipped", len(report.Skipped),
		"rejected", len(report.Rejected))
	return report, nil
}

// materializeOne walks a single feature through the state machine. A
// rejection is reported, not returned as an error; store failures are
// errors and abort the batch.
func (m *Materializer) materializeOne(ctx context.Context, name string, fr model.Frame) (State, string, error) {
	f, err := m.registry.Lookup(name)
	if err != nil {
		if errors.Is(err, common.ErrUnknownFeature) {
			slog.Warn("Unknown feature requested", "feature", name)
			return StateRejected, err.Error(), nil
		}
		return StateRejected, "", err
	}
	meta := f.Meta()

	exists, err := m.store.ColumnExists(ctx, fr.Table, meta.Column)
	if err != nil {
		return StateNotComputed, "", err
	}
	if exists {
		slog.Debug("Feature already materialized", "feature", meta.Column, "table", fr.Table)
		return StateSkipped, "", nil
	}

	data, err := f.Compute(ctx, m.store, fr)
	if err != nil {
		return StateNotComputed, "", err
	}
	slog.Debug("Computed feature", "feature", meta.Column, "rows", data.Len())

	eligibility := meta.Column == feature.EligibilityColumn
	if eligibility {
		err = feature.ValidateEligibility(meta, data)
	} else {
		err = feature.Validate(meta, data)
	}
	if err != nil {
		slog.Error("Feature rejected by validation gate",
			"feature", meta.Column, "table", fr.Table, "reason", err.Error())
		return StateRejected, err.Error(), nil
	}

	if eligibility {
		// The eligibility feature gates table membership itself, so it is
		// persisted by rebuilding the table as a join with its result.
		if err := m.store.RebuildWithEligibility(ctx, fr.Table, meta, data); err != nil {
			return StateValidated, "", err
		}
	} else {
		if err := m.store.PersistFeature(ctx, fr.Table, meta, data); err != nil {
			return StateValidated, "", err
		}
	}
	if err := m.store.AppendDictionary(ctx, meta); err != nil {
		return StateValidated, "", err
	}
	return StatePersisted, "", nil
}

// ensureEligibility appends the eligibility feature when absent. It is
// placed last so it filters every column persisted in this run as well.
func ensureEligibility(features []string) []string {
	for _, name := range features {
		if name == feature.EligibilityColumn {
			return features
		}
	}
	return append(append([]string{}, features...), feature.EligibilityColumn)
}

// Flatten expands a possibly-nested feature grouping from configuration
// into a flat name list.
func Flatten(list []any) []string {
	var out []string
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case []any:
			out = append(out, Flatten(v)...)
		case []string:
			out = append(out, v...)
		}
	}
	return out
}

func (m *Materializer) newProgressBar(total int, table string) *progressbar.ProgressBar {
	if !m.config.ShowProgress {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(fmt.Sprintf("Materializing %s...", table)),
	)
}

// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/mkedata/crosswalk/internal/frame"
	"github.com/mkedata/crosswalk/internal/model"
)

// Store defines the contract for the relational store adapter. The core
// components never hold a connection directly; they receive a Store.
type Store interface {
	// Schema introspection
	TableExists(ctx context.Context, table string) (bool, error)
	ColumnExists(ctx context.Context, table, column string) (bool, error)

	// Reference-frame feature tables
	CreateFrameTable(ctx context.Context, table string) error
	PersistFeature(ctx context.Context, table string, meta model.FeatureMeta, data *frame.Frame) error
	RebuildWithEligibility(ctx context.Context, table string, meta model.FeatureMeta, data *frame.Frame) error

	// Feature dictionary
	AppendDictionary(ctx context.Context, meta model.FeatureMeta) error
	GetDictionary(ctx context.Context) ([]model.FeatureMeta, error)

	// Identity mapping
	SaveMapping(ctx context.Context, entries []model.MappingEntry) error
	GetMapping(ctx context.Context) ([]model.MappingEntry, error)

	// Source populations
	LoadStudentRecords(ctx context.Context) ([]model.PersonRecord, error)
	LoadJusticeRecords(ctx context.Context) ([]model.PersonRecord, error)

	// QueryFrame runs a read-only parameterized query whose first column is
	// person_id and second column is the value, and collects the result into
	// a frame.
	QueryFrame(ctx context.Context, column, query string, args ...any) (*frame.Frame, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Feature is the contract every feature computation must satisfy.
type Feature interface {
	// Meta describes the feature for the dictionary; validated at
	// construction time.
	Meta() model.FeatureMeta
	// Compute returns one row per relevant person_id for the given
	// reference frame. Null handling is the feature's own responsibility;
	// the validation gate only enforces the postcondition.
	Compute(ctx context.Context, store Store, fr model.Frame) (*frame.Frame, error)
}

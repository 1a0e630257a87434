package sheets

import (
	"context"

	"nctracker/internal/core"
)

// Ports for outbound adapters.
type (
	// StoreInitializer creates the backing file and any missing sheet.
	StoreInitializer interface {
		EnsureStore(ctx context.Context) error
	}

	// SchemaMigrator upgrades a sheet still using the two column layout.
	SchemaMigrator interface {
		// MigrateLegacySchema reports whether the sheet was rewritten.
		MigrateLegacySchema(ctx context.Context, c core.Category) (bool, error)
	}

	RecordWriter interface {
		// Append stores the record and returns the stored value, with the
		// description collapsed to one line and NFC normalized.
		Append(ctx context.Context, c core.Category, r core.Record) (core.Record, error)
	}

	RecordLister interface {
		// List returns every record of the category in insertion order.
		List(ctx context.Context, c core.Category) ([]core.Record, error)
	}

	// Exporter copies the backing file somewhere else.
	Exporter interface {
		Export(ctx context.Context, destDir string, overwrite bool) (string, error)
	}

	// Store is the full set of operations a backend provides.
	Store interface {
		StoreInitializer
		SchemaMigrator
		RecordWriter
		RecordLister
		Exporter
		// Path locates the backing file for an external "open" action.
		Path() string
	}
)

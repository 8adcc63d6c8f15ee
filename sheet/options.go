package sheet

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/aggregate"
)

// OrphanPolicy decides where a view HEADERFOOTER record goes when no custom
// view in the sheet carries its identifier.
type OrphanPolicy int

const (
	// NearestPreceding attaches the record to the custom view whose
	// USERSVIEWBEGIN is the closest one before it in the input stream.  When
	// no view precedes it, or that view already has a HEADERFOOTER, the record
	// stays in the sheet.
	NearestPreceding OrphanPolicy = iota
	// KeepInSheet leaves every orphan in the sheet's page-settings block.
	KeepInSheet
)

func (p OrphanPolicy) String() string {
	switch p {
	case NearestPreceding:
		return "nearest-preceding"
	case KeepInSheet:
		return "keep-in-sheet"
	}
	return fmt.Sprintf("OrphanPolicy(%d)", int(p))
}

// ParseOrphanPolicy converts a configuration value into an OrphanPolicy.
func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch s {
	case "", "nearest-preceding":
		return NearestPreceding, nil
	case "keep-in-sheet":
		return KeepInSheet, nil
	}
	return 0, fmt.Errorf("sheet: unknown orphan policy %q", s)
}

type options struct {
	name          string
	log           *zap.Logger
	diags         *aggregate.Diagnostics
	lateScanLimit int
	orphan        OrphanPolicy
}

// Option configures Build.
type Option func(*options)

// WithName sets the sheet name used in errors and log entries.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger.  The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithDiagnostics sets the collector that receives soft conditions.  By
// default each sheet gets its own collector.
func WithDiagnostics(d *aggregate.Diagnostics) Option {
	return func(o *options) { o.diags = d }
}

// WithLateScanLimit bounds the classifier's late-member scan.
func WithLateScanLimit(n int) Option {
	return func(o *options) { o.lateScanLimit = n }
}

// WithOrphanPolicy selects how unmatched view HEADERFOOTER records are
// placed.
func WithOrphanPolicy(p OrphanPolicy) Option {
	return func(o *options) { o.orphan = p }
}

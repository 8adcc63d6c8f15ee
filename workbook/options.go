package workbook

import (
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/sheet"
)

type options struct {
	log           *zap.Logger
	workers       int
	lateScanLimit int
	orphan        sheet.OrphanPolicy
}

// Option configures Open, OpenReader and FromStream.
type Option func(*options)

// WithLogger sets the logger handed to every sheet build.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithWorkers bounds the number of sheets built concurrently.  Zero or less
// means one per CPU.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithLateScanLimit is passed through to sheet.WithLateScanLimit.
func WithLateScanLimit(n int) Option {
	return func(o *options) { o.lateScanLimit = n }
}

// WithOrphanPolicy is passed through to sheet.WithOrphanPolicy.
func WithOrphanPolicy(p sheet.OrphanPolicy) Option {
	return func(o *options) { o.orphan = p }
}

package main

import (
	"bytes"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/internal/config"
	"github.com/TsubasaBE/go-xls/workbook"
)

// cfbSignature starts every compound file.
var cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

func workbookOptions(cfg *config.Config, log *zap.Logger) ([]workbook.Option, error) {
	policy, err := cfg.Build.Orphans()
	if err != nil {
		return nil, err
	}
	return []workbook.Option{
		workbook.WithLogger(log),
		workbook.WithWorkers(cfg.Build.Workers),
		workbook.WithLateScanLimit(cfg.Build.LateScanLimit),
		workbook.WithOrphanPolicy(policy),
	}, nil
}

// loadWorkbook opens either a compound file or a raw Workbook stream.  Sheet
// build errors are logged and the partially built workbook is returned.
func loadWorkbook(env *localEnv, fname string) (*workbook.Workbook, error) {
	opts, err := workbookOptions(env.Cfg, env.Log)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, fmt.Errorf("unable to read source file '%s': %w", fname, err)
	}

	var wb *workbook.Workbook
	if bytes.HasPrefix(data, cfbSignature) {
		wb, err = workbook.OpenReader(bytes.NewReader(data), opts...)
	} else {
		env.Log.Debug("Source is not a compound file, reading it as a raw Workbook stream", zap.String("file", fname))
		wb, err = workbook.FromStream(data, opts...)
	}
	if wb == nil {
		return nil, fmt.Errorf("unable to open workbook '%s': %w", fname, err)
	}
	if err != nil {
		env.Log.Warn("Some sheets kept unbuilt records", zap.String("file", fname), zap.Error(err))
	}
	return wb, nil
}

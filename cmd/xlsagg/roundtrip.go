package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/workbook"
)

func runRoundTrip(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() != 2 {
		return errors.New("roundtrip expects SOURCE and DESTINATION")
	}
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

	wb, err := loadWorkbook(env, src)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	n, err := wb.WriteTo(&buf)
	if err != nil {
		return fmt.Errorf("unable to serialize '%s': %w", src, err)
	}
	if err := os.WriteFile(dst, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("unable to write destination file '%s': %w", dst, err)
	}
	env.Log.Info("Workbook stream written",
		zap.String("from", src), zap.String("to", dst),
		zap.Int64("bytes", n), zap.Int("sheets", len(wb.Sheets())), zap.Int("diagnostics", len(wb.Diagnostics())))

	if !cmd.Bool("verify") {
		return nil
	}
	opts, err := workbookOptions(env.Cfg, env.Log)
	if err != nil {
		return err
	}
	again, err := workbook.FromStream(buf.Bytes(), opts...)
	if again == nil {
		return fmt.Errorf("unable to read back '%s': %w", dst, err)
	}
	var second bytes.Buffer
	if _, err := again.WriteTo(&second); err != nil {
		return fmt.Errorf("unable to serialize '%s' again: %w", dst, err)
	}
	if !bytes.Equal(buf.Bytes(), second.Bytes()) {
		return fmt.Errorf("second pass over '%s' is not stable (%d vs %d bytes)", dst, buf.Len(), second.Len())
	}
	env.Log.Info("Round trip is stable", zap.String("file", dst))
	return nil
}

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/sheet"
	"github.com/TsubasaBE/go-xls/workbook"
)

var visibilityNames = map[int]string{
	workbook.SheetVisible:    "visible",
	workbook.SheetHidden:     "hidden",
	workbook.SheetVeryHidden: "very hidden",
}

func runDump(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	if cmd.Args().Len() != 1 {
		return errors.New("dump expects exactly one SOURCE")
	}
	wb, err := loadWorkbook(env, cmd.Args().Get(0))
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	only := cmd.Int("sheet")
	names := wb.Sheets()
	if only < 0 || only > len(names) {
		return fmt.Errorf("sheet %d out of range [1, %d]", only, len(names))
	}
	for i, name := range names {
		idx := i + 1
		if only != 0 && idx != only {
			continue
		}
		fmt.Fprintf(out, "Sheet %d %q (%s)\n", idx, name, visibilityNames[wb.SheetVisibility(name)])
		sh, err := wb.Sheet(idx)
		if err != nil && sh == nil {
			fmt.Fprintf(out, "  not built: %v\n", err)
			continue
		}
		dumpLayout(out, sh, env.Cfg.Dump.ShowPayload)
		for _, d := range sh.Diagnostics().Items() {
			fmt.Fprintf(out, "  ! %s\n", d)
		}
		if cmd.Bool("values") {
			if err := dumpValues(out, wb, idx, env.Cfg.Dump.NumberFormat); err != nil {
				return err
			}
		}
	}
	env.Log.Debug("Dump done", zap.Int("sheets", len(names)))
	return nil
}

// dumpLayout prints the serialized records grouped by the item that emits
// them.
func dumpLayout(out io.Writer, sh *sheet.Sheet, payload bool) {
	recs := sh.Serialize(0)
	pos := 0
	next := func(indent string, note string) {
		if pos >= len(recs) {
			return
		}
		r := recs[pos]
		pos++
		fmt.Fprintf(out, "%s%-16s %5d%s\n", indent, biff8.Name(r.Sid), len(r.Data), note)
		if payload && len(r.Data) > 0 {
			fmt.Fprintf(out, "%s  %s\n", indent, hex.EncodeToString(r.Data))
		}
	}
	for _, it := range sh.Items() {
		switch {
		case it.Generated():
			next("  ", " (computed)")
		case it.Aggregate != nil:
			n := len(aggregate.Records(it.Aggregate))
			fmt.Fprintf(out, "  [%s] %d records\n", it.Aggregate.Kind(), n)
			for range n {
				next("    ", "")
			}
		default:
			next("  ", "")
		}
	}
	fmt.Fprintf(out, "  %d records, %d bytes\n", len(recs), record.TotalSize(recs))
}

func dumpValues(out io.Writer, wb *workbook.Workbook, idx int, format bool) error {
	ws, err := wb.Worksheet(idx)
	if err != nil {
		return err
	}
	for row := range ws.Rows(true) {
		for _, c := range row {
			if c.V == nil {
				continue
			}
			v := fmt.Sprint(c.V)
			if format {
				v = wb.FormatCell(c.V, c.Style)
			}
			fmt.Fprintf(out, "  R%dC%d = %s\n", c.R+1, c.C+1, v)
		}
	}
	return nil
}

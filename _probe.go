//go:build ignore

package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/TsubasaBE/go-xls/workbook"
)

func main() {
	files, _ := filepath.Glob("xls/*.xls")
	for _, f := range files {
		wb, err := workbook.Open(f)
		if wb == nil {
			fmt.Printf("ERROR opening %s: %v\n", filepath.Base(f), err)
			continue
		}
		if err != nil {
			fmt.Printf("WARN %s: %v\n", filepath.Base(f), err)
		}
		sheets := wb.Sheets()
		fmt.Printf("\n=== %s ===\n", filepath.Base(f))
		fmt.Printf("  Sheets (%d): %v\n", len(sheets), sheets)
		for i, name := range sheets {
			ws, err := wb.Worksheet(i + 1)
			if err != nil {
				fmt.Printf("  Sheet(%d) %q: %v\n", i+1, name, err)
				continue
			}
			rowCount := 0
			cellCount := 0
			var firstRow []any
			for row := range ws.Rows(true) {
				if rowCount == 0 {
					for _, c := range row {
						firstRow = append(firstRow, c.V)
					}
				}
				rowCount++
				cellCount += len(row)
			}
			items := len(ws.Sheet().Items())
			if dim := ws.Dimension; dim != nil {
				fmt.Printf("  [%d] %q dim=(%d,%d %dx%d) items=%d rows=%d cells=%d first=%v\n",
					i+1, name, dim.R, dim.C, dim.H, dim.W, items, rowCount, cellCount, firstRow)
			} else {
				fmt.Printf("  [%d] %q dim=nil items=%d rows=%d cells=%d first=%v\n",
					i+1, name, items, rowCount, cellCount, firstRow)
			}
		}
		fmt.Printf("  diagnostics=%d\n", len(wb.Diagnostics()))

		var first, second bytes.Buffer
		if _, err := wb.WriteTo(&first); err != nil {
			fmt.Printf("  roundtrip: %v\n", err)
			continue
		}
		again, _ := workbook.FromStream(first.Bytes())
		if again == nil {
			fmt.Printf("  roundtrip: output unreadable\n")
			continue
		}
		_, _ = again.WriteTo(&second)
		fmt.Printf("  roundtrip: %d bytes, stable=%v\n", first.Len(), bytes.Equal(first.Bytes(), second.Bytes()))
	}
}

// Package cfb reads named streams out of a compound file (the OLE2 container
// of .xls and .ppt documents).
package cfb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/richardlehane/mscfb"
)

// ErrStreamNotFound is returned when none of the requested streams exist.
var ErrStreamNotFound = errors.New("cfb: stream not found")

// Well-known stream names.
const (
	WorkbookStream   = "Workbook"
	BookStream       = "Book"
	PowerPointStream = "PowerPoint Document"
)

// ReadStream returns the name and contents of the first stream in names,
// in order of preference, that the compound file contains.
func ReadStream(ra io.ReaderAt, names ...string) (string, []byte, error) {
	doc, err := mscfb.New(ra)
	if err != nil {
		return "", nil, fmt.Errorf("cfb: not a compound file: %w", err)
	}
	found := make(map[string][]byte)
	for {
		entry, err := doc.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("cfb: walking directory: %w", err)
		}
		if !slices.Contains(names, entry.Name) {
			continue
		}
		if _, dup := found[entry.Name]; dup {
			continue
		}
		buf := make([]byte, entry.Size)
		if _, err := io.ReadFull(entry, buf); err != nil {
			return "", nil, fmt.Errorf("cfb: reading stream %q: %w", entry.Name, err)
		}
		found[entry.Name] = buf
	}
	for _, n := range names {
		if b, ok := found[n]; ok {
			return n, b, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %q", ErrStreamNotFound, names)
}

// ReadFileStream opens the named file and reads a stream from it.
func ReadFileStream(path string, names ...string) (string, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("cfb: open %q: %w", path, err)
	}
	defer f.Close()
	return ReadStream(f, names...)
}

package aggregate

import "github.com/TsubasaBE/go-xls/record"

// Visitor receives records in canonical emission order.
type Visitor func(record.Record)

// Aggregate is implemented by every built aggregate.
type Aggregate interface {
	// Kind identifies the aggregate.
	Kind() Kind
	// Visit walks the aggregate's records in canonical order.
	Visit(v Visitor)
}

// Records collects the canonical record sequence of a.
func Records(a Aggregate) []record.Record {
	var out []record.Record
	a.Visit(func(r record.Record) { out = append(out, r) })
	return out
}

// Size returns the encoded size of a's canonical record sequence.
func Size(a Aggregate) int {
	n := 0
	a.Visit(func(r record.Record) { n += r.Size() })
	return n
}

// Package join attaches per-key results to the records they came from.
package join

import (
	"fmt"

	"github.com/ib-77/seqflow/pkg/processor"
	"github.com/ib-77/seqflow/pkg/table"
)

// Lookup finds the payload for a key.
type Lookup interface {
	Lookup(key string) (processor.Payload, bool)
}

// Left returns a new table with one row per record of src, in src order,
// carrying fields appended. Rows whose key has a result copy its values;
// every other row, and any field the result lacks, gets table.Absent().
// A record without keyField is a structural error and nothing is returned.
func Left(src *table.Table, keyField string, results Lookup, fields []string) (*table.Table, error) {
	out := table.New(src.Header()...)
	out.AddColumns(fields...)

	for i, rec := range src.Rows() {
		key, ok := rec.Get(keyField)
		if !ok || key.IsAbsent() {
			return nil, fmt.Errorf("row %d: field %q: %w", i+1, keyField, table.ErrKeyFieldMissing)
		}

		payload, hit := results.Lookup(key.String())
		row := rec.Clone()
		for _, f := range fields {
			v := table.Absent()
			if hit {
				if pv, ok := payload[f]; ok {
					v = pv
				}
			}
			row.Set(f, v)
		}
		out.Append(row)
	}
	return out, nil
}

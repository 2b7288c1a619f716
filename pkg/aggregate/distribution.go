package aggregate

import (
	"fmt"
	"io"
	"sort"

	"github.com/ib-77/seqflow/pkg/table"
)

// Share is how often one value occurs in a column.
type Share struct {
	Value   string
	Count   int
	Percent float64
}

// Distribution counts the values of field over t, skipping absent cells,
// most frequent first and ties by value.
func Distribution(t *table.Table, field string) []Share {
	counts := make(map[string]int)
	total := 0
	for _, v := range t.Column(field) {
		if v.IsAbsent() {
			continue
		}
		counts[v.String()]++
		total++
	}

	shares := make([]Share, 0, len(counts))
	for v, n := range counts {
		shares = append(shares, Share{Value: v, Count: n, Percent: 100 * float64(n) / float64(total)})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Value < shares[j].Value
	})
	return shares
}

// WriteDistribution prints shares as an aligned text table.
func WriteDistribution(w io.Writer, title string, shares []Share) error {
	if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
		return err
	}
	for _, s := range shares {
		if _, err := fmt.Fprintf(w, "  %-30s %6d %6.1f%%\n", s.Value, s.Count, s.Percent); err != nil {
			return err
		}
	}
	return nil
}

package rvsim

import (
	"fmt"
	"io"

	"github.com/ezrec/rvcache/cache"
)

// WriteReport renders o as the fixed-format Markdown table specified by
// SPEC_FULL.md §6: one header, one separator, then one row per policy.
func WriteReport(w io.Writer, o *Outcome) error {
	rows := []struct {
		name  string
		stats cache.Stats
	}{
		{cache.LRU.String(), o.LRU.Stats},
		{cache.PLRU.String(), o.PLRU.Stats},
	}

	if _, err := fmt.Fprintln(w, "| Policy | Hit % | Instr Hit % | Data Hit % | Instr Access | Instr Hit | Data Access | Data Hit |"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "|---|---|---|---|---|---|---|---|"); err != nil {
		return err
	}

	for _, row := range rows {
		s := row.stats
		_, err := fmt.Fprintf(w, "| %s | %s | %s | %s | %d | %d | %d | %d |\n",
			row.name,
			rate(s.TotalHit(), s.TotalAccess()),
			rate(s.Instr.Hit, s.Instr.Access),
			rate(s.DataHit(), s.DataAccess()),
			s.Instr.Access, s.Instr.Hit,
			s.DataAccess(), s.DataHit(),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// rate formats a hit/access ratio as a four-decimal percentage, or "nan%"
// when access is zero.
func rate(hit, access uint64) string {
	if access == 0 {
		return "nan%"
	}
	return fmt.Sprintf("%.4f%%", 100*float64(hit)/float64(access))
}

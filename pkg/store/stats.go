package store

import (
	"sort"
	"time"

	"github.com/devicelab-dev/surge-monitor/pkg/quote"
)

// CategoryStats summarizes one fare category across a log.
type CategoryStats struct {
	Name    string
	Samples int
	Promos  int
	Last    quote.Entry
	LastAt  time.Time
	Min     float64
	Max     float64
}

// Summarize aggregates records per category, sorted by name. Prices whose
// amount cannot be parsed count as samples but not towards Min and Max.
func Summarize(records []quote.Record) []CategoryStats {
	byName := make(map[string]*CategoryStats)
	priced := make(map[string]bool)

	for _, rec := range records {
		for name, e := range rec.Quotes {
			st, ok := byName[name]
			if !ok {
				st = &CategoryStats{Name: name}
				byName[name] = st
			}
			st.Samples++
			if e.IsPromo() {
				st.Promos++
			}
			if !rec.Timestamp.Before(st.LastAt) {
				st.Last = e
				st.LastAt = rec.Timestamp
			}

			amount, err := quote.ParseAmount(e.Current())
			if err != nil {
				continue
			}
			if !priced[name] || amount < st.Min {
				st.Min = amount
			}
			if !priced[name] || amount > st.Max {
				st.Max = amount
			}
			priced[name] = true
		}
	}

	out := make([]CategoryStats, 0, len(byName))
	for _, st := range byName {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

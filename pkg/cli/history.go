package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/surge-monitor/pkg/store"
)

var historyCommand = &cli.Command{
	Name:  "history",
	Usage: "Summarize recorded prices per fare category",
	Description: `Read the measurement log and print, for each fare category, the number
of samples, the latest quote, the lowest and highest amount and how often a
promotional price was shown.

Examples:
  surge-monitor history
  surge-monitor --output data/prices_bolt.csv history`,
	Action: runHistory,
}

func runHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	path := cfg.OutputPath()
	records, err := store.ReadAll(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no measurements at %s yet", path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	w := c.App.Writer
	if len(records) == 0 {
		fmt.Fprintf(w, "No measurements in %s\n", path)
		return nil
	}

	first, last := records[0].Timestamp, records[len(records)-1].Timestamp
	fmt.Fprintf(w, "%d measurements from %s to %s\n",
		len(records), first.Format(store.TimeLayout), last.Format(store.TimeLayout))

	printSection(w, fmt.Sprintf("%-20s %7s  %-24s %8s %8s %7s", "Category", "Samples", "Last", "Min", "Max", "Promos"))
	for _, st := range store.Summarize(records) {
		fmt.Fprintf(w, "%-20s %7d  %-24s %8.2f %8.2f %7d\n",
			st.Name, st.Samples, st.Last.String(), st.Min, st.Max, st.Promos)
	}
	return nil
}

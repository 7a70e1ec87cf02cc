package cli

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/surge-monitor/pkg/config"
	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/driver/appium"
	"github.com/devicelab-dev/surge-monitor/pkg/monitor"
)

var inspectCommand = &cli.Command{
	Name:  "inspect",
	Usage: "Dump the current screen and show which configured selectors match",
	Description: `Save the page source of the current screen and list the elements each
selector of the UI profile matches. Use it to update selectors after an app
release.

Examples:
  surge-monitor inspect
  surge-monitor inspect --wait --out results.xml`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "out",
			Usage: "Page source file (default: <home>/debug/screen_structure.xml)",
		},
		&cli.BoolFlag{
			Name:  "wait",
			Usage: "Wait for Enter before capturing, to navigate the app by hand",
		},
	},
	Action: runInspect,
}

// probe is a named selector shown by inspect.
type probe struct {
	name string
	sel  core.Selector
}

func profileProbes(p monitor.Profile) []probe {
	var probes []probe
	for _, t := range p.SearchTexts {
		probes = append(probes, probe{"search entry", core.Text(t)})
	}
	for _, t := range p.PopupTexts {
		probes = append(probes, probe{"popup button", core.Text(t)})
	}
	for _, l := range p.CloseLabels {
		probes = append(probes, probe{"close icon", core.Accessibility(l)})
	}
	return append(probes,
		probe{"confirm button", core.Text(p.ConfirmText)},
		probe{"address field", core.Class(p.AddressFieldClass)},
		probe{"suggestion", core.ID(p.SuggestionID)},
		probe{"fare card", core.ID(p.CardContainerID)},
		probe{"card title", core.ID(p.CardTitleID)},
		probe{"current price", core.ID(p.PrimaryPriceID)},
		probe{"reference price", core.ID(p.SecondaryPriceID)},
	)
}

func runInspect(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	closeLog, err := initLogging(c, cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	session, err := connect(cfg)
	if err != nil {
		return err
	}
	defer closeSession(session)

	w := c.App.Writer
	if c.Bool("wait") {
		fmt.Fprintln(w, "Navigate the app to the screen you want to inspect, then press Enter...")
		if _, err := bufio.NewReader(c.App.Reader).ReadString('\n'); err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
	}

	source, err := session.Source()
	if err != nil {
		return fmt.Errorf("get page source: %w", err)
	}

	path := c.String("out")
	if path == "" {
		path = filepath.Join(config.GetDebugDir(), "screen_structure.xml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		return fmt.Errorf("save page source: %w", err)
	}
	fmt.Fprintf(w, "%s✓%s Page source saved to %s\n", color(colorGreen), color(colorReset), path)

	elements, err := appium.ParsePageSource(source)
	if err != nil {
		return fmt.Errorf("parse page source: %w", err)
	}

	for _, p := range profileProbes(cfg.UI) {
		matches := appium.FilterBySelector(elements, p.sel)
		mark := color(colorGray) + "-" + color(colorReset)
		if len(matches) > 0 {
			mark = color(colorGreen) + "✓" + color(colorReset)
		}
		printSection(w, fmt.Sprintf("%s %s %s (%d)", mark, p.name, p.sel.Describe(), len(matches)))
		for _, m := range matches {
			fmt.Fprintf(w, "    %s\n", m.Summary())
		}
	}
	return nil
}

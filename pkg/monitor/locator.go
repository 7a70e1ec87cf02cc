package monitor

import (
	"fmt"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/logger"
)

// LocateResult is the outcome of LocateSearchEntry.
type LocateResult struct {
	Element      core.Element // the clicked entry, valid when Found
	Found        bool
	UsedFallback bool // a blind tap was issued instead
	Attempts     int
}

// Locator finds and opens the search entry on the map screen.
type Locator struct {
	deps Deps
}

// NewLocator creates a search entry locator.
func NewLocator(d Deps) *Locator {
	return &Locator{deps: d.withDefaults()}
}

// LocateSearchEntry looks for the search entry and clicks it, up to
// SearchAttempts times. A miss or a failed click counts as a failed attempt;
// between attempts a safe map area is tapped to clear dimming overlays. When
// every attempt fails it taps SearchFallbackPoint blind and reports
// UsedFallback; the caller carries on optimistically.
func (l *Locator) LocateSearchEntry() (LocateResult, error) {
	p := l.deps.Profile
	attempts := p.SearchAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		el, ok, err := l.findAnchor()
		if err != nil {
			return LocateResult{Attempts: attempt}, err
		}
		if ok {
			err := l.deps.Session.Click(el)
			if err == nil {
				return LocateResult{Element: el, Found: true, Attempts: attempt}, nil
			}
			if err := tolerate("search click", err); err != nil {
				return LocateResult{Attempts: attempt}, fmt.Errorf("open search: %w", err)
			}
			logger.Info("Search bar click failed (attempt %d/%d)", attempt, attempts)
		} else {
			logger.Info("Search bar missing (attempt %d/%d)", attempt, attempts)
		}

		if attempt < attempts {
			if err := wake(l.deps); err != nil {
				return LocateResult{Attempts: attempt}, err
			}
			l.deps.Clock.Sleep(p.Timings.RetrySettle)
		}
	}

	logger.Info("Fallback: blind tap on search area at %s", p.SearchFallbackPoint)
	if _, _, err := core.TapAt(l.deps.Session, p.SearchFallbackPoint); err != nil {
		return LocateResult{Attempts: attempts}, err
	}
	l.deps.Metrics.RecordFallbackTap("search")
	return LocateResult{UsedFallback: true, Attempts: attempts}, nil
}

// findAnchor tries every search text once.
func (l *Locator) findAnchor() (core.Element, bool, error) {
	for _, text := range l.deps.Profile.SearchTexts {
		el, err := l.deps.Session.FindElement(core.Text(text))
		if err == nil {
			return el, true, nil
		}
		if err := tolerate("search lookup", err); err != nil {
			return core.Element{}, false, err
		}
	}
	return core.Element{}, false, nil
}

// wake taps the safe map area to dismiss dimming and idle overlays.
// Tap failures are ignored unless the session is gone.
func wake(d Deps) error {
	_, _, err := core.TapAt(d.Session, d.Profile.WakePoint)
	return tolerate("wake tap", err)
}

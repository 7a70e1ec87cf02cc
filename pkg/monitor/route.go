package monitor

import (
	"fmt"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/logger"
)

// Route is the origin/destination pair measured by every cycle.
type Route struct {
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
}

// Label returns the persisted form of the route.
func (r Route) Label() string {
	return r.Origin + " -> " + r.Destination
}

// RouteField selects one of the address inputs on the search screen.
type RouteField int

const (
	Origin RouteField = iota
	Destination
)

func (f RouteField) String() string {
	if f == Destination {
		return "destination"
	}
	return "origin"
}

// fieldIndex picks the input for f among n visible fields. The destination
// is the second field when two exist; a single field serves both.
func fieldIndex(f RouteField, n int) int {
	if f == Destination && n >= 2 {
		return 1
	}
	return 0
}

// Router types addresses into the search screen and picks suggestions.
type Router struct {
	deps Deps
}

// NewRouter creates a router.
func NewRouter(d Deps) *Router {
	return &Router{deps: d.withDefaults()}
}

// EnterAddress types address into the field for f and selects the first
// suggestion, tapping SuggestionFallbackPoint when none shows up. It returns
// false without error when no address field is on screen.
func (r *Router) EnterAddress(f RouteField, address string) (bool, error) {
	s := r.deps.Session

	fields, err := s.FindElements(core.Class(r.deps.Profile.AddressFieldClass))
	if err != nil {
		if err := tolerate("address field lookup", err); err != nil {
			return false, err
		}
		fields = nil
	}
	if len(fields) == 0 {
		logger.Warn("No address field on screen for %s", f)
		return false, nil
	}

	field := fields[fieldIndex(f, len(fields))]
	logger.Info("Entering %s: %s", f, address)

	if err := s.Click(field); err != nil {
		return false, fmt.Errorf("focus %s field: %w", f, err)
	}
	if err := s.Clear(field); err != nil {
		return false, fmt.Errorf("clear %s field: %w", f, err)
	}
	if err := s.TypeText(field, address); err != nil {
		return false, fmt.Errorf("type %s: %w", f, err)
	}

	if err := r.pickSuggestion(); err != nil {
		return false, fmt.Errorf("pick %s suggestion: %w", f, err)
	}
	return true, nil
}

// pickSuggestion waits for the suggestion list and clicks its first row.
func (r *Router) pickSuggestion() error {
	s := r.deps.Session
	t := r.deps.Profile.Timings

	r.deps.Clock.Sleep(t.SuggestionSettle)

	var rows []core.Element
	ok, err := core.WaitUntil(r.deps.Clock, t.SuggestionTimeout, t.SuggestionPoll, func() (bool, error) {
		found, err := s.FindElements(core.ID(r.deps.Profile.SuggestionID))
		if err != nil {
			return false, err
		}
		rows = found
		return len(rows) > 0, nil
	})
	if err != nil {
		if err := tolerate("suggestion lookup", err); err != nil {
			return err
		}
		ok = false
	}

	if ok {
		err := s.Click(rows[0])
		if err == nil {
			return nil
		}
		if err := tolerate("suggestion click", err); err != nil {
			return err
		}
	}

	logger.Info("No suggestion to click, tapping %s", r.deps.Profile.SuggestionFallbackPoint)
	if _, _, err := core.TapAt(s, r.deps.Profile.SuggestionFallbackPoint); err != nil {
		return err
	}
	r.deps.Metrics.RecordFallbackTap("suggestion")
	return nil
}

// ConfirmOnMap presses the "confirm location" button if the app asks for
// one after the origin is picked. It reports whether the button was there.
func (r *Router) ConfirmOnMap() (bool, error) {
	s := r.deps.Session

	buttons, err := s.FindElements(core.Text(r.deps.Profile.ConfirmText))
	if err != nil {
		return false, tolerate("confirm lookup", err)
	}
	if len(buttons) == 0 {
		return false, nil
	}

	logger.Info("Confirming location on map")
	if err := s.Click(buttons[0]); err != nil {
		return false, tolerate("confirm click", err)
	}
	r.deps.Clock.Sleep(r.deps.Profile.Timings.ConfirmSettle)
	return true, nil
}

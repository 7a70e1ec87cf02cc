package monitor

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/logger"
	"github.com/devicelab-dev/surge-monitor/pkg/quote"
)

// State is a step of the measurement cycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingMapReady
	StateSearchLocated
	StateRouteEntered
	StateDestinationEntered
	StateAwaitingResults
	StateExtracted
	StateDone
	StateFailed
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingMapReady:
		return "awaiting_map_ready"
	case StateSearchLocated:
		return "search_located"
	case StateRouteEntered:
		return "route_entered"
	case StateDestinationEntered:
		return "destination_entered"
	case StateAwaitingResults:
		return "awaiting_results"
	case StateExtracted:
		return "extracted"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// OutcomeKind classifies a finished cycle.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota // at least one quote
	OutcomeEmpty                      // results screen read, nothing on it
	OutcomeFailure                    // a step raised an error
)

// String returns the string representation of OutcomeKind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one cycle. Quotes is non-empty only for
// OutcomeSuccess, Err is set only for OutcomeFailure.
type Outcome struct {
	Kind       OutcomeKind
	Quotes     quote.Set
	Err        error
	State      State // last state reached; the failing step follows it
	CapturedAt time.Time
	Duration   time.Duration
}

// Terminal returns the state the cycle ended in.
func (o Outcome) Terminal() State {
	if o.Kind == OutcomeFailure {
		return StateFailed
	}
	return StateDone
}

// Cycle drives the app from a fresh launch to a set of quotes. It holds no
// state between runs.
type Cycle struct {
	deps  Deps
	route Route

	popups    *Popups
	locator   *Locator
	router    *Router
	extractor *Extractor
}

// NewCycle creates a cycle for route.
func NewCycle(d Deps, route Route) *Cycle {
	d = d.withDefaults()
	return &Cycle{
		deps:      d,
		route:     route,
		popups:    NewPopups(d),
		locator:   NewLocator(d),
		router:    NewRouter(d),
		extractor: NewExtractor(d),
	}
}

// step is one transition: run moves the app from the previous state into next.
type step struct {
	next State
	run  func() error
}

// Run executes one cycle. It never panics on driver faults: every error is
// reported through a Failure outcome together with the state it happened in.
func (c *Cycle) Run() Outcome {
	start := c.deps.Clock.Now()
	state := StateIdle
	var quotes quote.Set

	steps := []step{
		{StateAwaitingMapReady, c.awaitMap},
		{StateSearchLocated, c.openSearch},
		{StateRouteEntered, c.enterOrigin},
		{StateDestinationEntered, c.enterDestination},
		{StateAwaitingResults, c.awaitResults},
		{StateExtracted, func() error {
			var err error
			quotes, err = c.extractor.Extract()
			return err
		}},
	}

	for _, st := range steps {
		if err := st.run(); err != nil {
			logger.Error("Cycle failed entering %s: %v", st.next, err)
			return c.finish(start, Outcome{
				Kind:  OutcomeFailure,
				Err:   fmt.Errorf("%s: %w", st.next, err),
				State: state,
			})
		}
		logger.Debug("Cycle state %s -> %s", state, st.next)
		state = st.next
	}

	if len(quotes) == 0 {
		logger.Warn("No prices found on the results screen")
		return c.finish(start, Outcome{Kind: OutcomeEmpty, State: StateExtracted})
	}

	logger.Info("Captured %d categories", len(quotes))
	return c.finish(start, Outcome{
		Kind:       OutcomeSuccess,
		Quotes:     quotes,
		State:      StateDone,
		CapturedAt: c.deps.Clock.Now(),
	})
}

func (c *Cycle) finish(start time.Time, o Outcome) Outcome {
	o.Duration = c.deps.Clock.Now().Sub(start)
	c.deps.Metrics.ObserveCycle(o.Kind.String(), o.State.String(), o.Duration)
	if o.Kind == OutcomeSuccess {
		c.deps.Metrics.SetQuoteCount(len(o.Quotes))
	}
	return o
}

func (c *Cycle) awaitMap() error {
	t := c.deps.Profile.Timings
	logger.Info("Waiting for map to load...")
	c.deps.Clock.Sleep(t.MapSettle)

	if err := wake(c.deps); err != nil {
		return err
	}
	c.deps.Clock.Sleep(t.WakeSettle)
	return nil
}

func (c *Cycle) openSearch() error {
	if _, err := c.popups.DismissOne(); err != nil {
		return err
	}

	if _, err := c.locator.LocateSearchEntry(); err != nil {
		return err
	}
	c.deps.Clock.Sleep(c.deps.Profile.Timings.SearchSettle)
	return nil
}

func (c *Cycle) enterOrigin() error {
	if _, err := c.router.EnterAddress(Origin, c.route.Origin); err != nil {
		return err
	}
	c.deps.Clock.Sleep(c.deps.Profile.Timings.OriginSettle)
	return nil
}

func (c *Cycle) enterDestination() error {
	if _, err := c.router.ConfirmOnMap(); err != nil {
		return err
	}
	_, err := c.router.EnterAddress(Destination, c.route.Destination)
	return err
}

func (c *Cycle) awaitResults() error {
	t := c.deps.Profile.Timings
	logger.Info("Waiting for prices...")

	container := core.ID(c.deps.Profile.CardContainerID)
	ok, err := core.WaitUntil(c.deps.Clock, t.ResultsTimeout, t.ResultsPoll, func() (bool, error) {
		cards, err := c.deps.Session.FindElements(container)
		if err != nil {
			return false, tolerate("results lookup", err)
		}
		return len(cards) > 0, nil
	})
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("Results screen did not appear within %s", t.ResultsTimeout)
	}
	c.deps.Clock.Sleep(t.PriceSettle)
	return nil
}

package monitor

import (
	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/logger"
)

// Dismissal reports what DismissOne closed, if anything.
type Dismissal struct {
	Dismissed bool
	Match     string // phrase or accessibility label that matched
	ByLabel   bool   // matched a close icon rather than a text button
}

// Popups dismisses transient dialogs, one per call.
type Popups struct {
	deps Deps
}

// NewPopups creates a popup dismisser.
func NewPopups(d Deps) *Popups {
	return &Popups{deps: d.withDefaults()}
}

// DismissOne closes at most one popup. Text phrases are tried in order, then
// close icons by accessibility label. Nothing to dismiss is not an error;
// only session-fatal faults are returned.
func (p *Popups) DismissOne() (Dismissal, error) {
	logger.Debug("Checking for popups/modals...")

	for _, phrase := range p.deps.Profile.PopupTexts {
		ok, err := p.tryDismiss(core.Text(phrase))
		if err != nil {
			return Dismissal{}, err
		}
		if ok {
			logger.Info("Closed popup: %q", phrase)
			p.deps.Metrics.RecordPopup(phrase)
			return Dismissal{Dismissed: true, Match: phrase}, nil
		}
	}

	for _, label := range p.deps.Profile.CloseLabels {
		ok, err := p.tryDismiss(core.Accessibility(label))
		if err != nil {
			return Dismissal{}, err
		}
		if ok {
			logger.Info("Closed popup via close icon %q", label)
			p.deps.Metrics.RecordPopup(label)
			return Dismissal{Dismissed: true, Match: label, ByLabel: true}, nil
		}
	}

	return Dismissal{}, nil
}

// tryDismiss clicks the first element matching sel and waits for the
// dialog to animate away.
func (p *Popups) tryDismiss(sel core.Selector) (bool, error) {
	s := p.deps.Session

	elements, err := s.FindElements(sel)
	if err != nil {
		return false, tolerate("popup lookup "+sel.Describe(), err)
	}
	if len(elements) == 0 {
		return false, nil
	}

	if err := s.Click(elements[0]); err != nil {
		return false, tolerate("popup click "+sel.Describe(), err)
	}
	p.deps.Clock.Sleep(p.deps.Profile.Timings.PopupSettle)
	return true, nil
}

// tolerate swallows faults an opportunistic step may ignore. Absence and
// command errors are logged and dropped; session-fatal errors are returned.
func tolerate(step string, err error) error {
	if err == nil || core.IsNotFound(err) {
		return nil
	}
	if core.IsSessionFatal(err) {
		return err
	}
	logger.Debug("%s: ignoring %v", step, err)
	return nil
}

package monitor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/logger"
	"github.com/devicelab-dev/surge-monitor/pkg/quote"
)

// ErrExtraction is returned when the fare cards cannot be read at all.
var ErrExtraction = errors.New("price extraction failed")

var errIncompleteCard = errors.New("card has no name")

// Extractor reads fare cards from the results screen.
type Extractor struct {
	deps Deps
}

// NewExtractor creates an extractor.
func NewExtractor(d Deps) *Extractor {
	return &Extractor{deps: d.withDefaults()}
}

// Extract reads every fare card on screen. A card missing its name or
// current price is skipped; when two cards share a name the last one wins.
// An empty set with a nil error means no card was readable.
func (e *Extractor) Extract() (quote.Set, error) {
	cards, err := e.deps.Session.FindElements(core.ID(e.deps.Profile.CardContainerID))
	if err != nil {
		return nil, fmt.Errorf("%w: list cards: %w", ErrExtraction, err)
	}
	logger.Info("Analyzing %d offers...", len(cards))

	set := make(quote.Set, len(cards))
	for i, card := range cards {
		name, entry, err := e.readCard(card)
		if err != nil {
			if core.IsSessionFatal(err) {
				return nil, fmt.Errorf("%w: card %d: %w", ErrExtraction, i+1, err)
			}
			logger.Debug("Skipping card %d: %v", i+1, err)
			continue
		}
		if _, dup := set[name]; dup {
			logger.Debug("Category %q listed twice, keeping the later card", name)
		}
		set[name] = entry
	}
	return set, nil
}

func (e *Extractor) readCard(card core.Element) (string, quote.Entry, error) {
	p := e.deps.Profile

	name, err := e.childText(card, core.ID(p.CardTitleID))
	if err != nil {
		return "", quote.Entry{}, err
	}
	if name == "" {
		return "", quote.Entry{}, errIncompleteCard
	}

	price, err := e.childText(card, core.ID(p.PrimaryPriceID))
	if err != nil {
		return "", quote.Entry{}, err
	}

	reference, err := e.reference(card)
	if err != nil {
		return "", quote.Entry{}, err
	}

	entry, err := quote.NewEntry(price, reference)
	if err != nil {
		return "", quote.Entry{}, err
	}
	return name, entry, nil
}

// reference returns the struck-through price if the card shows one.
func (e *Extractor) reference(card core.Element) (string, error) {
	s := e.deps.Session

	el, err := s.FindElementIn(card, core.ID(e.deps.Profile.SecondaryPriceID))
	if err != nil {
		if core.IsSessionFatal(err) {
			return "", err
		}
		return "", nil
	}

	visible, err := s.IsVisible(el)
	if err != nil || !visible {
		if core.IsSessionFatal(err) {
			return "", err
		}
		return "", nil
	}

	text, err := s.Text(el)
	if err != nil {
		if core.IsSessionFatal(err) {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(text), nil
}

func (e *Extractor) childText(card core.Element, sel core.Selector) (string, error) {
	el, err := e.deps.Session.FindElementIn(card, sel)
	if err != nil {
		return "", err
	}
	text, err := e.deps.Session.Text(el)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Package monitor runs one price measurement cycle against the ride-hailing
// app: dismiss popups, find the search entry, enter the route, read the fare
// cards.
package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/metrics"
)

// Profile holds everything app-specific: selectors, on-screen texts,
// fallback tap targets and settle times.
type Profile struct {
	// Texts
	SearchTexts []string `yaml:"searchTexts"` // search entry anchors, any may match
	PopupTexts  []string `yaml:"popupTexts"`  // dismissal buttons, tried in order
	CloseLabels []string `yaml:"closeLabels"` // close icon accessibility labels
	ConfirmText string   `yaml:"confirmText"` // "confirm location on map" button

	// Selectors
	AddressFieldClass string `yaml:"addressFieldClass"`
	SuggestionID      string `yaml:"suggestionId"`
	CardContainerID   string `yaml:"cardContainerId"`
	CardTitleID       string `yaml:"cardTitleId"`
	PrimaryPriceID    string `yaml:"primaryPriceId"`
	SecondaryPriceID  string `yaml:"secondaryPriceId"`

	// Tap targets
	WakePoint               core.Point `yaml:"wakePoint"`
	SearchFallbackPoint     core.Point `yaml:"searchFallbackPoint"`
	SuggestionFallbackPoint core.Point `yaml:"suggestionFallbackPoint"`

	SearchAttempts int     `yaml:"searchAttempts"`
	Timings        Timings `yaml:"timings"`
}

// Timings are the settle waits and polling bounds of a cycle.
type Timings struct {
	MapSettle         time.Duration `yaml:"mapSettle"`         // after app activation
	WakeSettle        time.Duration `yaml:"wakeSettle"`        // after the initial recovery tap
	RetrySettle       time.Duration `yaml:"retrySettle"`       // between search lookups
	PopupSettle       time.Duration `yaml:"popupSettle"`       // after a dismissal
	SearchSettle      time.Duration `yaml:"searchSettle"`      // after tapping search
	SuggestionSettle  time.Duration `yaml:"suggestionSettle"`  // after typing, before reading suggestions
	SuggestionTimeout time.Duration `yaml:"suggestionTimeout"` // extra bound while suggestions are absent
	SuggestionPoll    time.Duration `yaml:"suggestionPoll"`
	OriginSettle      time.Duration `yaml:"originSettle"`  // after the origin is picked
	ConfirmSettle     time.Duration `yaml:"confirmSettle"` // after confirming the map pin
	ResultsTimeout    time.Duration `yaml:"resultsTimeout"`
	ResultsPoll       time.Duration `yaml:"resultsPoll"`
	PriceSettle       time.Duration `yaml:"priceSettle"` // after cards appear, for prices to fill
}

// DefaultProfile returns the profile for the Bolt Android client (Polish locale).
func DefaultProfile() Profile {
	return Profile{
		SearchTexts: []string{"Dokąd jedziemy", "Gdzie jedziemy"},
		PopupTexts: []string{
			"Może później", "Pomiń", "Nie teraz",
			"Anuluj", "Odrzuć", "Nie zezwalaj", "Zamknij",
		},
		CloseLabels: []string{"Zamknij", "Close"},
		ConfirmText: "Potwierdź",

		AddressFieldClass: "android.widget.EditText",
		SuggestionID:      "ee.mtakso.client:id/title",
		CardContainerID:   "ee.mtakso.client:id/categoryItemContainer",
		CardTitleID:       "ee.mtakso.client:id/title",
		PrimaryPriceID:    "ee.mtakso.client:id/primaryPrice",
		SecondaryPriceID:  "ee.mtakso.client:id/secondaryPrice",

		WakePoint:               core.Percent(50, 35),
		SearchFallbackPoint:     core.Percent(50, 40),
		SuggestionFallbackPoint: core.Point{X: core.Coord{Value: 50, Percent: true}, Y: core.Coord{Value: 640}},

		SearchAttempts: 3,
		Timings: Timings{
			MapSettle:         10 * time.Second,
			WakeSettle:        3 * time.Second,
			RetrySettle:       2 * time.Second,
			PopupSettle:       1 * time.Second,
			SearchSettle:      5 * time.Second,
			SuggestionSettle:  5 * time.Second,
			SuggestionTimeout: 3 * time.Second,
			SuggestionPoll:    500 * time.Millisecond,
			OriginSettle:      4 * time.Second,
			ConfirmSettle:     4 * time.Second,
			ResultsTimeout:    15 * time.Second,
			ResultsPoll:       1 * time.Second,
			PriceSettle:       2 * time.Second,
		},
	}
}

// Validate checks that every selector the cycle needs is set.
func (p Profile) Validate() error {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(p.SearchTexts) == 0 {
		missing = append(missing, "searchTexts")
	}
	check("addressFieldClass", p.AddressFieldClass)
	check("suggestionId", p.SuggestionID)
	check("cardContainerId", p.CardContainerID)
	check("cardTitleId", p.CardTitleID)
	check("primaryPriceId", p.PrimaryPriceID)
	check("secondaryPriceId", p.SecondaryPriceID)

	if len(missing) > 0 {
		return core.ErrInvalidConfig.WithMessage("ui profile is missing " + strings.Join(missing, ", "))
	}
	if p.SearchAttempts < 1 {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("searchAttempts must be at least 1, got %d", p.SearchAttempts))
	}
	return nil
}

// Deps are the collaborators shared by every step of a cycle.
type Deps struct {
	Session core.Session
	Clock   core.Clock
	Profile Profile
	Metrics *metrics.Recorder // optional
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = core.RealClock{}
	}
	return d
}

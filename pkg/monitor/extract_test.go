package monitor

import (
	"errors"
	"testing"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/driver/mock"
	"github.com/devicelab-dev/surge-monitor/pkg/quote"
)

func putCards(s *mock.Session, cards ...*mock.Node) {
	s.Put(core.ID(DefaultProfile().CardContainerID), cards...)
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		cards []*mock.Node
		want  quote.Set
	}{
		{
			name: "skips card without name",
			cards: []*mock.Node{
				card("Bolt", "18,50 zł", "", false),
				card("", "21,00 zł", "", false),
				card("Comfort", "24,00 zł", "", false),
				card("XL", "31,00 zł", "", false),
			},
			want: quote.Set{
				"Bolt":    quote.MustEntry("18,50 zł", ""),
				"Comfort": quote.MustEntry("24,00 zł", ""),
				"XL":      quote.MustEntry("31,00 zł", ""),
			},
		},
		{
			name: "skips card without price",
			cards: []*mock.Node{
				card("Bolt", "", "", false),
				card("Comfort", "24,00 zł", "", false),
			},
			want: quote.Set{"Comfort": quote.MustEntry("24,00 zł", "")},
		},
		{
			name: "promo keeps visible reference",
			cards: []*mock.Node{
				card("Bolt", "14,00 zł", "28,00 zł", false),
			},
			want: quote.Set{"Bolt": quote.MustEntry("14,00 zł", "28,00 zł")},
		},
		{
			name: "hidden reference dropped",
			cards: []*mock.Node{
				card("Bolt", "14,00 zł", "28,00 zł", true),
			},
			want: quote.Set{"Bolt": quote.MustEntry("14,00 zł", "")},
		},
		{
			name: "reference equal to price dropped",
			cards: []*mock.Node{
				card("Bolt", "14,00 zł", "14,00 zł", false),
			},
			want: quote.Set{"Bolt": quote.MustEntry("14,00 zł", "")},
		},
		{
			name: "duplicate name keeps last",
			cards: []*mock.Node{
				card("Bolt", "14,00 zł", "", false),
				card("Bolt", "15,00 zł", "", false),
			},
			want: quote.Set{"Bolt": quote.MustEntry("15,00 zł", "")},
		},
		{
			name:  "no cards",
			cards: nil,
			want:  quote.Set{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mock.New()
			putCards(s, tt.cards...)
			deps, _ := newDeps(s)

			got, err := NewExtractor(deps).Extract()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries %v, want %d", len(got), got, len(tt.want))
			}
			for name, want := range tt.want {
				if got[name] != want {
					t.Errorf("%s = %v, want %v", name, got[name], want)
				}
			}
		})
	}
}

func TestExtract_ContainerLookupFails(t *testing.T) {
	s := mock.New()
	s.FailFind(core.ID(DefaultProfile().CardContainerID), core.ErrCommandFailed)
	deps, _ := newDeps(s)

	_, err := NewExtractor(deps).Extract()
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}

func TestExtract_SessionLostMidCard(t *testing.T) {
	s := mock.New()
	putCards(s, card("Bolt", "14,00 zł", "", false))
	s.Fail("Text", core.ErrSessionLost)
	deps, _ := newDeps(s)

	_, err := NewExtractor(deps).Extract()
	if !errors.Is(err, ErrExtraction) || !core.IsSessionFatal(err) {
		t.Fatalf("err = %v, want fatal extraction error", err)
	}
}

package monitor

import (
	"testing"
	"time"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
	"github.com/devicelab-dev/surge-monitor/pkg/driver/mock"
)

func TestDismissOne_NothingOnScreen(t *testing.T) {
	s := mock.New()
	deps, clock := newDeps(s)

	got, err := NewPopups(deps).DismissOne()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Dismissed {
		t.Errorf("dismissed %q, want nothing", got.Match)
	}
	assertSleeps(t, clock)
	assertCalls(t, s.CallsWithPrefix("click"))
}

func TestDismissOne_FirstPhraseInOrderWins(t *testing.T) {
	s := mock.New()
	s.Put(core.Text("Zamknij"), &mock.Node{ID: "close"})
	s.Put(core.Text("Pomiń"), &mock.Node{ID: "skip"})
	deps, clock := newDeps(s)

	got, err := NewPopups(deps).DismissOne()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Dismissed || got.Match != "Pomiń" || got.ByLabel {
		t.Errorf("got %+v, want Pomiń", got)
	}
	assertCalls(t, s.CallsWithPrefix("click"), "click skip")
	assertSleeps(t, clock, time.Second)
}

func TestDismissOne_CloseIcon(t *testing.T) {
	s := mock.New()
	s.Put(core.Accessibility("Close"), &mock.Node{ID: "x"})
	deps, _ := newDeps(s)

	got, err := NewPopups(deps).DismissOne()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Dismissed || !got.ByLabel || got.Match != "Close" {
		t.Errorf("got %+v, want close icon", got)
	}
}

func TestDismissOne_LookupFaultSkipsPhrase(t *testing.T) {
	s := mock.New()
	s.FailFind(core.Text("Może później"), core.ErrCommandFailed)
	s.Put(core.Text("Nie teraz"), &mock.Node{ID: "later"})
	deps, _ := newDeps(s)

	got, err := NewPopups(deps).DismissOne()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Match != "Nie teraz" {
		t.Errorf("match = %q, want Nie teraz", got.Match)
	}
}

func TestDismissOne_ClickFaultTriesNext(t *testing.T) {
	s := mock.New()
	s.Put(core.Text("Pomiń"), &mock.Node{ID: "skip"})
	s.Fail("Click", core.ErrCommandFailed)
	deps, clock := newDeps(s)

	got, err := NewPopups(deps).DismissOne()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Dismissed {
		t.Errorf("got %+v, want nothing dismissed", got)
	}
	assertSleeps(t, clock)
}

func TestDismissOne_SessionLost(t *testing.T) {
	s := mock.New()
	s.FailFind(core.Text("Może później"), core.ErrSessionLost)
	deps, _ := newDeps(s)

	_, err := NewPopups(deps).DismissOne()
	if !core.IsSessionFatal(err) {
		t.Fatalf("err = %v, want session fatal", err)
	}
}

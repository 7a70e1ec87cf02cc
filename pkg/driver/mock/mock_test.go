package mock

import (
	"errors"
	"reflect"
	"testing"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
)

func TestFindElement(t *testing.T) {
	s := New()
	sel := core.ID("price")
	s.Put(sel, &Node{Text: "14,00 zł"})

	el, err := s.FindElement(sel)
	if err != nil {
		t.Fatalf("FindElement: %v", err)
	}
	text, err := s.Text(el)
	if err != nil || text != "14,00 zł" {
		t.Errorf("Text = %q, %v", text, err)
	}

	s.Remove(sel)
	if _, err := s.FindElement(sel); !core.IsNotFound(err) {
		t.Errorf("after Remove err = %v, want not found", err)
	}
}

func TestFindElements_Empty(t *testing.T) {
	s := New()
	els, err := s.FindElements(core.Class("android.widget.EditText"))
	if err != nil || len(els) != 0 {
		t.Errorf("FindElements = %v, %v; want empty", els, err)
	}
}

func TestFailFind_Queue(t *testing.T) {
	s := New()
	sel := core.Text("Dokąd jedziemy")
	s.Put(sel, &Node{ID: "search"})
	s.FailFind(sel, core.ErrElementNotFound, core.ErrSessionLost)

	if _, err := s.FindElement(sel); !core.IsNotFound(err) {
		t.Errorf("first lookup err = %v", err)
	}
	if _, err := s.FindElements(sel); !core.IsSessionFatal(err) {
		t.Errorf("second lookup err = %v", err)
	}
	el, err := s.FindElement(sel)
	if err != nil || el.ID != "search" {
		t.Errorf("third lookup = %v, %v", el, err)
	}
}

func TestFindElementIn(t *testing.T) {
	s := New()
	card := (&Node{}).Child(core.ID("title"), &Node{Text: "Bolt"})
	s.Put(core.ID("card"), card)

	parent, err := s.FindElement(core.ID("card"))
	if err != nil {
		t.Fatal(err)
	}
	child, err := s.FindElementIn(parent, core.ID("title"))
	if err != nil {
		t.Fatalf("FindElementIn: %v", err)
	}
	if text, _ := s.Text(child); text != "Bolt" {
		t.Errorf("child text = %q", text)
	}
	if _, err := s.FindElementIn(parent, core.ID("primaryPrice")); !core.IsNotFound(err) {
		t.Errorf("missing child err = %v", err)
	}
}

func TestTypeText(t *testing.T) {
	s := New()
	s.Put(core.ID("field"), &Node{ID: "f", Text: "old"})
	el := core.Element{ID: "f"}

	if err := s.Clear(el); err != nil {
		t.Fatal(err)
	}
	if err := s.TypeText(el, "Bronowicka 57"); err != nil {
		t.Fatal(err)
	}
	if text, _ := s.Text(el); text != "Bronowicka 57" {
		t.Errorf("text = %q", text)
	}
}

func TestStaleElement(t *testing.T) {
	s := New()
	if err := s.Click(core.Element{ID: "gone"}); core.CategoryOf(err) != core.ErrCategoryCommand {
		t.Errorf("err = %v, want command error", err)
	}
}

func TestIsVisible(t *testing.T) {
	s := New()
	s.Put(core.ID("ref"), &Node{ID: "r", Hidden: true})
	visible, err := s.IsVisible(core.Element{ID: "r"})
	if err != nil || visible {
		t.Errorf("IsVisible = %v, %v", visible, err)
	}
}

func TestFail(t *testing.T) {
	s := New()
	s.Fail("Tap", core.ErrSessionLost)
	if err := s.Tap(1, 2); !errors.Is(err, core.ErrSessionLost) {
		t.Errorf("Tap err = %v", err)
	}
	s.Fail("Tap", nil)
	if err := s.Tap(1, 2); err != nil {
		t.Errorf("Tap after clear err = %v", err)
	}
}

func TestCalls(t *testing.T) {
	s := New()
	s.Put(core.ID("x"), &Node{ID: "x"})
	_ = s.TerminateApp("ee.mtakso.client")
	_ = s.ActivateApp("ee.mtakso.client")
	_, _ = s.FindElement(core.ID("x"))
	_ = s.Tap(540, 840)
	_ = s.Click(core.Element{ID: "x"})
	_ = s.Close()

	want := []string{
		"terminate ee.mtakso.client",
		"activate ee.mtakso.client",
		`find id="x"`,
		"tap 540,840",
		"click x",
		"close",
	}
	if got := s.Calls(); !reflect.DeepEqual(got, want) {
		t.Errorf("Calls() = %q, want %q", got, want)
	}
	if got := s.CallsWithPrefix("tap"); len(got) != 1 {
		t.Errorf("CallsWithPrefix(tap) = %q", got)
	}
	if s.Closed() != 1 {
		t.Errorf("Closed() = %d", s.Closed())
	}
}

func TestWindowSize(t *testing.T) {
	s := New()
	w, h, err := s.WindowSize()
	if err != nil || w != 1080 || h != 2400 {
		t.Errorf("WindowSize = %d, %d, %v", w, h, err)
	}
}

func TestFailNext(t *testing.T) {
	s := New()
	s.Put(core.ID("x"), &Node{ID: "x"})
	s.FailNext("Click", core.ErrCommandFailed)
	s.Fail("Click", core.ErrSessionLost)

	el := core.Element{ID: "x"}
	if err := s.Click(el); core.CategoryOf(err) != core.ErrCategoryCommand {
		t.Errorf("first click err = %v, want queued error", err)
	}
	if err := s.Click(el); !errors.Is(err, core.ErrSessionLost) {
		t.Errorf("second click err = %v, want persistent error", err)
	}
	s.Fail("Click", nil)
	if err := s.Click(el); err != nil {
		t.Errorf("third click err = %v", err)
	}
}

package appium

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
)

func TestSession_Strategy(t *testing.T) {
	s := NewSession(&Client{})

	tests := []struct {
		sel          core.Selector
		wantStrategy string
		wantValue    string
	}{
		{core.ID("ee.mtakso.client:id/title"), "id", "ee.mtakso.client:id/title"},
		{core.Text("Dokąd jedziemy"), "-android uiautomator", `new UiSelector().textContains("Dokąd jedziemy")`},
		{core.Text(`say "hi"`), "-android uiautomator", `new UiSelector().textContains("say \"hi\"")`},
		{core.Accessibility("Zamknij"), "accessibility id", "Zamknij"},
		{core.Class("android.widget.EditText"), "class name", "android.widget.EditText"},
	}

	for _, tt := range tests {
		t.Run(tt.sel.Describe(), func(t *testing.T) {
			strategy, value := s.strategy(tt.sel)
			if strategy != tt.wantStrategy || value != tt.wantValue {
				t.Errorf("strategy() = (%q, %q), want (%q, %q)", strategy, value, tt.wantStrategy, tt.wantValue)
			}
		})
	}
}

func TestSession_FindElementWrapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeW3CError(w, http.StatusNotFound, "no such element", "not here")
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"
	s := NewSession(client)

	_, err := s.FindElement(core.Text("Potwierdź"))
	if !core.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}

	_, err = s.FindElementIn(core.Element{ID: "card"}, core.ID("secondaryPrice"))
	if !errors.Is(err, core.ErrElementNotFound) {
		t.Fatalf("expected not-found error from scoped lookup, got %v", err)
	}
}

func TestSession_FindElementsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"value": []interface{}{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"
	s := NewSession(client)

	elements, err := s.FindElements(core.ID("categoryItemContainer"))
	if err != nil {
		t.Fatalf("FindElements failed: %v", err)
	}
	if len(elements) != 0 {
		t.Errorf("expected no elements, got %v", elements)
	}
}

func TestSession_WindowSizeCachedAndFetched(t *testing.T) {
	rectCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/session/s/window/rect" {
			rectCalls++
			writeJSON(w, map[string]interface{}{
				"value": map[string]interface{}{"width": 720.0, "height": 1600.0},
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"
	s := NewSession(client)

	for i := 0; i < 2; i++ {
		w, h, err := s.WindowSize()
		if err != nil {
			t.Fatalf("WindowSize failed: %v", err)
		}
		if w != 720 || h != 1600 {
			t.Errorf("WindowSize() = %dx%d", w, h)
		}
	}
	if rectCalls != 1 {
		t.Errorf("expected one window/rect call, got %d", rectCalls)
	}
}

func TestSession_Interaction(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		writeJSON(w, map[string]interface{}{"value": nil})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.sessionID = "s"
	s := NewSession(client)
	field := core.Element{ID: "f"}

	if err := s.Click(field); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(field); err != nil {
		t.Fatal(err)
	}
	if err := s.TypeText(field, "Kraków"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"POST /session/s/element/f/click",
		"POST /session/s/element/f/clear",
		"POST /session/s/element/f/value",
		"DELETE /session/s",
	}
	if len(paths) != len(want) {
		t.Fatalf("got requests %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("request %d = %q, want %q", i, paths[i], want[i])
		}
	}
}

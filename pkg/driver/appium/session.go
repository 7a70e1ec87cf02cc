package appium

import (
	"fmt"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
)

// Session implements core.Session on top of an Appium Client.
type Session struct {
	client *Client
}

var _ core.Session = (*Session)(nil)

// Open connects to the Appium server and creates a session.
func Open(serverURL string, capabilities map[string]interface{}) (*Session, error) {
	client := NewClient(serverURL)
	if err := client.Connect(capabilities); err != nil {
		return nil, err
	}
	return &Session{client: client}, nil
}

// NewSession wraps an already connected client.
func NewSession(client *Client) *Session {
	return &Session{client: client}
}

// Close deletes the Appium session.
func (s *Session) Close() error {
	return s.client.Disconnect()
}

// ActivateApp implements core.Session.
func (s *Session) ActivateApp(appID string) error {
	return s.client.LaunchApp(appID)
}

// TerminateApp implements core.Session.
func (s *Session) TerminateApp(appID string) error {
	return s.client.TerminateApp(appID)
}

// FindElement implements core.Session.
func (s *Session) FindElement(sel core.Selector) (core.Element, error) {
	strategy, value := s.strategy(sel)
	id, err := s.client.FindElement(strategy, value)
	if err != nil {
		return core.Element{}, fmt.Errorf("find %s: %w", sel.Describe(), err)
	}
	return core.Element{ID: id}, nil
}

// FindElements implements core.Session.
func (s *Session) FindElements(sel core.Selector) ([]core.Element, error) {
	strategy, value := s.strategy(sel)
	ids, err := s.client.FindElements(strategy, value)
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", sel.Describe(), err)
	}
	elements := make([]core.Element, 0, len(ids))
	for _, id := range ids {
		elements = append(elements, core.Element{ID: id})
	}
	return elements, nil
}

// FindElementIn implements core.Session.
func (s *Session) FindElementIn(parent core.Element, sel core.Selector) (core.Element, error) {
	strategy, value := s.strategy(sel)
	id, err := s.client.FindElementFrom(parent.ID, strategy, value)
	if err != nil {
		return core.Element{}, fmt.Errorf("find %s in %s: %w", sel.Describe(), parent.ID, err)
	}
	return core.Element{ID: id}, nil
}

// Tap implements core.Session.
func (s *Session) Tap(x, y int) error {
	return s.client.Tap(x, y)
}

// Click implements core.Session.
func (s *Session) Click(el core.Element) error {
	return s.client.ClickElement(el.ID)
}

// Clear implements core.Session.
func (s *Session) Clear(el core.Element) error {
	return s.client.ClearElement(el.ID)
}

// TypeText implements core.Session.
func (s *Session) TypeText(el core.Element, text string) error {
	return s.client.SendKeysToElement(el.ID, text)
}

// Text implements core.Session.
func (s *Session) Text(el core.Element) (string, error) {
	return s.client.GetElementText(el.ID)
}

// IsVisible implements core.Session.
func (s *Session) IsVisible(el core.Element) (bool, error) {
	return s.client.IsElementDisplayed(el.ID)
}

// WindowSize implements core.Session. The size is fetched once and cached;
// a zero size triggers a refetch.
func (s *Session) WindowSize() (int, int, error) {
	w, h := s.client.ScreenSize()
	if w > 0 && h > 0 {
		return w, h, nil
	}
	if err := s.client.fetchScreenSize(); err != nil {
		return 0, 0, err
	}
	w, h = s.client.ScreenSize()
	if w <= 0 || h <= 0 {
		return 0, 0, core.ErrCommandFailed.WithMessage("window size unavailable")
	}
	return w, h, nil
}

// Source implements core.Session.
func (s *Session) Source() (string, error) {
	return s.client.Source()
}

// strategy maps a core selector to a WebDriver locator strategy.
// Text lookups use UiAutomator queries (fast) instead of XPath.
func (s *Session) strategy(sel core.Selector) (string, string) {
	switch sel.Kind {
	case core.ByID:
		return "id", sel.Value
	case core.ByText:
		return "-android uiautomator", fmt.Sprintf(`new UiSelector().textContains("%s")`, escapeUiAutomatorString(sel.Value))
	case core.ByAccessibility:
		return "accessibility id", sel.Value
	case core.ByClass:
		return "class name", sel.Value
	default:
		return "xpath", sel.Value
	}
}

// escapeUiAutomatorString escapes quotes for UiAutomator string
func escapeUiAutomatorString(s string) string {
	var result string
	for _, c := range s {
		switch c {
		case '"':
			result += `\"`
		case '\\':
			result += `\\`
		default:
			result += string(c)
		}
	}
	return result
}

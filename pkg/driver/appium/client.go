// Package appium implements core.Session against an Appium server via the
// W3C WebDriver protocol.
package appium

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
)

// W3C WebDriver element identifier key (standard constant)
const w3cElementKey = "element-6066-11e4-a52e-4f735466cecf"

// DefaultHTTPTimeout bounds a single WebDriver request. Appium's own
// newCommandTimeout governs how long the session survives between commands.
const DefaultHTTPTimeout = 5 * time.Minute

// Client handles HTTP communication with Appium server.
type Client struct {
	serverURL string
	sessionID string
	client    *http.Client
	screenW   int
	screenH   int
}

// NewClient creates a new Appium client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client: &http.Client{
			Timeout: DefaultHTTPTimeout,
		},
	}
}

// Connect creates a new session with the given capabilities.
func (c *Client) Connect(capabilities map[string]interface{}) error {
	body := map[string]interface{}{
		"capabilities": map[string]interface{}{
			"alwaysMatch": capabilities,
		},
	}

	resp, err := c.post("/session", body)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	value, ok := resp["value"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("invalid session response")
	}

	c.sessionID, _ = value["sessionId"].(string)
	if c.sessionID == "" {
		return fmt.Errorf("no session ID in response")
	}

	c.fetchScreenSize()

	// Element lookups are polled by the caller, so the server must not add its
	// own selector wait on top.
	c.SetSettings(map[string]interface{}{
		"waitForSelectorTimeout": 0,
	})

	return nil
}

// Disconnect closes the session.
func (c *Client) Disconnect() error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.delete(c.sessionPath())
	c.sessionID = ""
	return err
}

// ScreenSize returns the screen dimensions.
func (c *Client) ScreenSize() (int, int) {
	return c.screenW, c.screenH
}

func (c *Client) fetchScreenSize() error {
	resp, err := c.get(c.sessionPath() + "/window/rect")
	if err != nil {
		return err
	}
	if value, ok := resp["value"].(map[string]interface{}); ok {
		if w, ok := value["width"].(float64); ok {
			c.screenW = int(w)
		}
		if h, ok := value["height"].(float64); ok {
			c.screenH = int(h)
		}
	}
	return nil
}

// Element Operations

// FindElement finds a single element.
func (c *Client) FindElement(strategy, value string) (string, error) {
	return c.findElement(c.sessionPath()+"/element", strategy, value)
}

// FindElementFrom finds a single element inside the element parentID.
func (c *Client) FindElementFrom(parentID, strategy, value string) (string, error) {
	return c.findElement(c.elementPath(parentID)+"/element", strategy, value)
}

func (c *Client) findElement(path, strategy, value string) (string, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(path, body)
	if err != nil {
		return "", err
	}

	elemValue, ok := resp["value"].(map[string]interface{})
	if !ok {
		return "", core.ErrElementNotFound
	}

	id := extractElementID(elemValue)
	if id == "" {
		return "", core.ErrElementNotFound
	}
	return id, nil
}

// FindElements finds multiple elements.
func (c *Client) FindElements(strategy, value string) ([]string, error) {
	body := map[string]interface{}{
		"using": strategy,
		"value": value,
	}

	resp, err := c.post(c.sessionPath()+"/elements", body)
	if err != nil {
		return nil, err
	}

	values, ok := resp["value"].([]interface{})
	if !ok {
		return nil, nil
	}

	var ids []string
	for _, v := range values {
		if elem, ok := v.(map[string]interface{}); ok {
			if id := extractElementID(elem); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// ClickElement clicks an element using WebDriver standard endpoint.
func (c *Client) ClickElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/click", map[string]interface{}{})
	return err
}

// ClearElement clears an element's text.
func (c *Client) ClearElement(elementID string) error {
	_, err := c.post(c.elementPath(elementID)+"/clear", map[string]interface{}{})
	return err
}

// SendKeysToElement types text into an element.
func (c *Client) SendKeysToElement(elementID, text string) error {
	chars := make([]string, 0, len(text))
	for _, ch := range text {
		chars = append(chars, string(ch))
	}
	_, err := c.post(c.elementPath(elementID)+"/value", map[string]interface{}{
		"text":  text,
		"value": chars,
	})
	return err
}

// GetElementText returns an element's text.
func (c *Client) GetElementText(elementID string) (string, error) {
	resp, err := c.get(c.elementPath(elementID) + "/text")
	if err != nil {
		return "", err
	}
	text, _ := resp["value"].(string)
	return text, nil
}

// IsElementDisplayed checks if element is visible.
func (c *Client) IsElementDisplayed(elementID string) (bool, error) {
	resp, err := c.get(c.elementPath(elementID) + "/displayed")
	if err != nil {
		return false, err
	}
	displayed, _ := resp["value"].(bool)
	return displayed, nil
}

// Touch/Gesture Operations (W3C Actions)

func (c *Client) performTouchAction(actions []map[string]interface{}) error {
	payload := []map[string]interface{}{
		{
			"type":       "pointer",
			"id":         "finger1",
			"parameters": map[string]interface{}{"pointerType": "touch"},
			"actions":    actions,
		},
	}
	_, err := c.post(c.sessionPath()+"/actions", map[string]interface{}{"actions": payload})
	return err
}

// Tap performs a tap at coordinates using W3C touch actions.
func (c *Client) Tap(x, y int) error {
	return c.performTouchAction([]map[string]interface{}{
		{"type": "pointerMove", "duration": 0, "x": x, "y": y, "origin": "viewport"},
		{"type": "pointerDown", "button": 0},
		{"type": "pause", "duration": 50},
		{"type": "pointerUp", "button": 0},
	})
}

// App Management

// LaunchApp activates an app.
func (c *Client) LaunchApp(appID string) error {
	_, err := c.post(c.sessionPath()+"/appium/device/activate_app", c.appBody(appID))
	return err
}

// TerminateApp terminates an app.
func (c *Client) TerminateApp(appID string) error {
	_, err := c.post(c.sessionPath()+"/appium/device/terminate_app", c.appBody(appID))
	return err
}

func (c *Client) appBody(appID string) map[string]interface{} {
	return map[string]interface{}{"appId": appID}
}

// Screen Operations

// Source returns the page source XML.
func (c *Client) Source() (string, error) {
	resp, err := c.get(c.sessionPath() + "/source")
	if err != nil {
		return "", err
	}
	source, _ := resp["value"].(string)
	return source, nil
}

// SetSettings updates Appium driver settings.
// UiAutomator2 understands waitForIdleTimeout and waitForSelectorTimeout.
func (c *Client) SetSettings(settings map[string]interface{}) error {
	_, err := c.post(c.sessionPath()+"/appium/settings", map[string]interface{}{
		"settings": settings,
	})
	return err
}

// HTTP Helpers

func (c *Client) sessionPath() string {
	return "/session/" + c.sessionID
}

func (c *Client) elementPath(elementID string) string {
	return c.sessionPath() + "/element/" + elementID
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.request("GET", path, nil)
}

func (c *Client) post(path string, body interface{}) (map[string]interface{}, error) {
	return c.request("POST", path, body)
}

func (c *Client) delete(path string) (map[string]interface{}, error) {
	return c.request("DELETE", path, nil)
}

func (c *Client) request(method, path string, body interface{}) (map[string]interface{}, error) {
	url := c.serverURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.ErrServerUnreachable.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.ErrServerUnreachable.WithCause(err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, core.ErrCommandFailed.WithCause(fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode, err))
	}

	// Check for WebDriver error
	if errValue, ok := result["value"].(map[string]interface{}); ok {
		if errType, ok := errValue["error"].(string); ok {
			errMsg, _ := errValue["message"].(string)
			return result, mapWebDriverError(errType, errMsg)
		}
	}

	return result, nil
}

// mapWebDriverError converts a W3C error code into the core error taxonomy.
func mapWebDriverError(code, message string) error {
	cause := fmt.Errorf("%s: %s", code, message)
	switch code {
	case "no such element":
		return core.ErrElementNotFound.WithCause(cause)
	case "invalid session id":
		return core.ErrSessionLost.WithCause(cause)
	case "timeout", "script timeout":
		return core.ErrWaitTimeout.WithCause(cause)
	default:
		return core.ErrCommandFailed.WithCause(cause).WithDetails(map[string]interface{}{"code": code})
	}
}

func extractElementID(value map[string]interface{}) string {
	// W3C format
	if id, ok := value[w3cElementKey].(string); ok {
		return id
	}
	// Legacy format
	if id, ok := value["ELEMENT"].(string); ok {
		return id
	}
	return ""
}

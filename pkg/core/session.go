// Package core defines the contract between the measurement engine and the
// UI automation driver, plus the shared error, timing and coordinate types.
package core

import "fmt"

// Session is the interaction capability a measurement cycle drives.
// Implementations: appium.Session (real device), mock.Session (tests).
//
// Lookups report absence with ErrElementNotFound (FindElement, FindElementIn)
// or an empty slice (FindElements). Any other error is a driver fault.
type Session interface {
	// App lifecycle
	ActivateApp(appID string) error
	TerminateApp(appID string) error

	// Element finding
	FindElement(sel Selector) (Element, error)
	FindElements(sel Selector) ([]Element, error)
	FindElementIn(parent Element, sel Selector) (Element, error)

	// Interaction
	Tap(x, y int) error
	Click(el Element) error
	Clear(el Element) error
	TypeText(el Element, text string) error

	// Element state
	Text(el Element) (string, error)
	IsVisible(el Element) (bool, error)

	// Screen
	WindowSize() (width, height int, err error)
	Source() (string, error)

	// Close releases the driver session.
	Close() error
}

// Element is an opaque handle to an on-screen element, valid for the
// lifetime of the session that returned it.
type Element struct {
	ID string
}

// SelectorKind is the lookup strategy of a Selector.
type SelectorKind int

const (
	ByID            SelectorKind = iota // Stable resource identifier
	ByText                              // Visible text contains value
	ByAccessibility                     // Accessibility label (content-desc) equals value
	ByClass                             // Element class/type
)

// String returns the string representation of SelectorKind
func (k SelectorKind) String() string {
	switch k {
	case ByID:
		return "id"
	case ByText:
		return "text"
	case ByAccessibility:
		return "accessibility"
	case ByClass:
		return "class"
	default:
		return "unknown"
	}
}

// Selector describes how to look up an element.
type Selector struct {
	Kind  SelectorKind
	Value string
}

// ID returns a selector matching a resource identifier.
func ID(value string) Selector { return Selector{Kind: ByID, Value: value} }

// Text returns a selector matching elements whose text contains value.
func Text(value string) Selector { return Selector{Kind: ByText, Value: value} }

// Accessibility returns a selector matching an accessibility label.
func Accessibility(value string) Selector { return Selector{Kind: ByAccessibility, Value: value} }

// Class returns a selector matching an element class.
func Class(value string) Selector { return Selector{Kind: ByClass, Value: value} }

// Describe returns a human-readable description of the selector.
func (s Selector) Describe() string {
	return fmt.Sprintf("%s=%q", s.Kind, s.Value)
}

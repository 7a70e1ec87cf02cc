package appium

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
)

// Bounds represents element position and size
type Bounds struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Center returns the center point of the bounds
func (b Bounds) Center() (int, int) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// ParsedElement represents an element from a UiAutomator2 page source.
type ParsedElement struct {
	Bounds    Bounds
	Enabled   bool
	Displayed bool
	Clickable bool
	Depth     int
	Children  []*ParsedElement
	Parent    *ParsedElement

	Text        string
	ResourceID  string
	ContentDesc string
	ClassName   string
}

// rootName is the wrapper element of a UiAutomator2 page source. It is
// skipped; its children become the roots of the flattened list.
const rootName = "hierarchy"

// ParsePageSource parses page source XML into a flat element list.
func ParsePageSource(xmlData string) ([]*ParsedElement, error) {
	decoder := xml.NewDecoder(strings.NewReader(xmlData))

	var elements []*ParsedElement
	foundRoot := false
	var parseElement func() (*ParsedElement, error)

	parseElement = func() (*ParsedElement, error) {
		for {
			token, err := decoder.Token()
			if err != nil {
				return nil, err
			}

			switch t := token.(type) {
			case xml.StartElement:
				if t.Name.Local == rootName {
					foundRoot = true
					continue
				}

				elem := &ParsedElement{Enabled: true, Displayed: true}
				parseAttrs(elem, t)

				for {
					child, err := parseElement()
					if err != nil || child == nil {
						break
					}
					elem.Children = append(elem.Children, child)
				}
				return elem, nil

			case xml.EndElement:
				return nil, nil
			}
		}
	}

	var parseErr error
	for {
		elem, err := parseElement()
		if err != nil {
			if err != io.EOF {
				parseErr = err
			}
			break
		}
		if elem != nil {
			elements = append(elements, flattenElement(elem, 0)...)
		}
	}

	if parseErr != nil && len(elements) == 0 {
		return nil, parseErr
	}
	if !foundRoot {
		return nil, fmt.Errorf("invalid page source: no %s element found", rootName)
	}
	return elements, nil
}

func parseAttrs(elem *ParsedElement, t xml.StartElement) {
	elem.ClassName = t.Name.Local
	for _, attr := range t.Attr {
		switch attr.Name.Local {
		case "text":
			elem.Text = attr.Value
		case "resource-id":
			elem.ResourceID = attr.Value
		case "content-desc":
			elem.ContentDesc = attr.Value
		case "class":
			elem.ClassName = attr.Value
		case "bounds":
			elem.Bounds = parseBounds(attr.Value)
		case "enabled":
			elem.Enabled = attr.Value == "true"
		case "displayed":
			elem.Displayed = attr.Value != "false"
		case "clickable":
			elem.Clickable = attr.Value == "true"
		}
	}
}

// flattenElement flattens a tree of elements into a list, setting depth and parent.
func flattenElement(elem *ParsedElement, depth int) []*ParsedElement {
	elem.Depth = depth
	result := []*ParsedElement{elem}
	for _, child := range elem.Children {
		child.Parent = elem
		result = append(result, flattenElement(child, depth+1)...)
	}
	return result
}

// parseBounds parses Android bounds string "[x1,y1][x2,y2]".
func parseBounds(s string) Bounds {
	s = strings.ReplaceAll(s, "][", ",")
	s = strings.Trim(s, "[]")
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}
	}

	x1, _ := strconv.Atoi(parts[0])
	y1, _ := strconv.Atoi(parts[1])
	x2, _ := strconv.Atoi(parts[2])
	y2, _ := strconv.Atoi(parts[3])

	return Bounds{
		X:      x1,
		Y:      y1,
		Width:  x2 - x1,
		Height: y2 - y1,
	}
}

// FilterBySelector returns the elements matching sel, using the same
// semantics the Session applies on the server side.
func FilterBySelector(elements []*ParsedElement, sel core.Selector) []*ParsedElement {
	var result []*ParsedElement
	for _, elem := range elements {
		if matchesSelector(elem, sel) {
			result = append(result, elem)
		}
	}
	return result
}

func matchesSelector(elem *ParsedElement, sel core.Selector) bool {
	switch sel.Kind {
	case core.ByID:
		return elem.ResourceID == sel.Value
	case core.ByText:
		return strings.Contains(elem.Text, sel.Value)
	case core.ByAccessibility:
		return elem.ContentDesc == sel.Value
	case core.ByClass:
		return elem.ClassName == sel.Value
	}
	return false
}

// Summary returns a one-line description of the element for inspection output.
func (e *ParsedElement) Summary() string {
	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf("%s=%q", key, value))
		}
	}

	add("class", e.ClassName)
	add("id", e.ResourceID)
	add("text", e.Text)
	add("desc", e.ContentDesc)
	cx, cy := e.Bounds.Center()
	parts = append(parts, fmt.Sprintf("center=(%d,%d)", cx, cy))
	if !e.Displayed {
		parts = append(parts, "hidden")
	}
	return strings.Repeat("  ", e.Depth) + strings.Join(parts, " ")
}

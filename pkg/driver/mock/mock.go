// Package mock provides a scriptable core.Session for testing without a device.
package mock

import (
	"fmt"
	"strings"
	"sync"

	"github.com/devicelab-dev/surge-monitor/pkg/core"
)

// Node is a fake on-screen element.
type Node struct {
	ID       string
	Text     string
	Hidden   bool
	Children map[core.Selector]*Node
}

// Child adds a child reachable through FindElementIn and returns n.
func (n *Node) Child(sel core.Selector, child *Node) *Node {
	if n.Children == nil {
		n.Children = make(map[core.Selector]*Node)
	}
	n.Children[sel] = child
	return n
}

// Session is a fake core.Session. Elements are registered per selector;
// failures can be queued per selector or set per operation.
type Session struct {
	Width  int
	Height int

	// PageSource is returned by Source.
	PageSource string

	mu       sync.Mutex
	screen   map[core.Selector][]*Node
	nodes    map[string]*Node
	findErrs map[core.Selector][]error
	opErrs   map[string]error
	opQueue  map[string][]error
	calls    []string
	closed   int
	nextID   int
}

var _ core.Session = (*Session)(nil)

// New creates a mock session with a 1080x2400 window.
func New() *Session {
	return &Session{
		Width:    1080,
		Height:   2400,
		screen:   make(map[core.Selector][]*Node),
		nodes:    make(map[string]*Node),
		findErrs: make(map[core.Selector][]error),
		opErrs:   make(map[string]error),
		opQueue:  make(map[string][]error),
	}
}

// Put places nodes on screen for sel, replacing any previous ones.
// Nodes without an ID get a generated one.
func (s *Session) Put(sel core.Selector, nodes ...*Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		s.register(n)
	}
	s.screen[sel] = nodes
}

// Remove takes every node for sel off screen.
func (s *Session) Remove(sel core.Selector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.screen, sel)
}

// FailFind queues errors returned, in order, by the next lookups of sel
// (FindElement, FindElements or FindElementIn).
func (s *Session) FailFind(sel core.Selector, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findErrs[sel] = append(s.findErrs[sel], errs...)
}

// Fail makes every call of op return err until cleared with a nil err.
// op is the method name, e.g. "Tap", "TerminateApp", "Click".
func (s *Session) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.opErrs, op)
		return
	}
	s.opErrs[op] = err
}

// FailNext queues errors returned, in order, by the next calls of op before
// any error set with Fail applies.
func (s *Session) FailNext(op string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opQueue[op] = append(s.opQueue[op], errs...)
}

// Calls returns the recorded interaction log.
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsWithPrefix returns the recorded calls starting with prefix.
func (s *Session) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range s.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Closed returns how many times Close was called.
func (s *Session) Closed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) register(n *Node) {
	if n.ID == "" {
		s.nextID++
		n.ID = fmt.Sprintf("mock-%d", s.nextID)
	}
	s.nodes[n.ID] = n
	for _, child := range n.Children {
		s.register(child)
	}
}

func (s *Session) record(format string, args ...interface{}) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}

// popFindErr returns the next queued error for sel. Caller holds mu.
func (s *Session) popFindErr(sel core.Selector) error {
	queue := s.findErrs[sel]
	if len(queue) == 0 {
		return nil
	}
	s.findErrs[sel] = queue[1:]
	return queue[0]
}

// opErr returns the next queued error for op, else the persistent one.
// Caller holds mu.
func (s *Session) opErr(op string) error {
	if queue := s.opQueue[op]; len(queue) > 0 {
		s.opQueue[op] = queue[1:]
		return queue[0]
	}
	return s.opErrs[op]
}

func (s *Session) node(el core.Element) (*Node, error) {
	n, ok := s.nodes[el.ID]
	if !ok {
		return nil, core.ErrCommandFailed.WithMessage("stale element " + el.ID)
	}
	return n, nil
}

// ActivateApp implements core.Session.
func (s *Session) ActivateApp(appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("activate %s", appID)
	return s.opErr("ActivateApp")
}

// TerminateApp implements core.Session.
func (s *Session) TerminateApp(appID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("terminate %s", appID)
	return s.opErr("TerminateApp")
}

// FindElement implements core.Session.
func (s *Session) FindElement(sel core.Selector) (core.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("find %s", sel.Describe())
	if err := s.popFindErr(sel); err != nil {
		return core.Element{}, err
	}
	if err := s.opErr("FindElement"); err != nil {
		return core.Element{}, err
	}
	nodes := s.screen[sel]
	if len(nodes) == 0 {
		return core.Element{}, core.ErrElementNotFound.WithMessage("no element for " + sel.Describe())
	}
	return core.Element{ID: nodes[0].ID}, nil
}

// FindElements implements core.Session.
func (s *Session) FindElements(sel core.Selector) ([]core.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("findAll %s", sel.Describe())
	if err := s.popFindErr(sel); err != nil {
		return nil, err
	}
	if err := s.opErr("FindElements"); err != nil {
		return nil, err
	}
	var out []core.Element
	for _, n := range s.screen[sel] {
		out = append(out, core.Element{ID: n.ID})
	}
	return out, nil
}

// FindElementIn implements core.Session.
func (s *Session) FindElementIn(parent core.Element, sel core.Selector) (core.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.popFindErr(sel); err != nil {
		return core.Element{}, err
	}
	p, err := s.node(parent)
	if err != nil {
		return core.Element{}, err
	}
	child, ok := p.Children[sel]
	if !ok {
		return core.Element{}, core.ErrElementNotFound.WithMessage("no " + sel.Describe() + " in " + parent.ID)
	}
	return core.Element{ID: child.ID}, nil
}

// Tap implements core.Session.
func (s *Session) Tap(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("tap %d,%d", x, y)
	return s.opErr("Tap")
}

// Click implements core.Session.
func (s *Session) Click(el core.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("click %s", el.ID)
	if err := s.opErr("Click"); err != nil {
		return err
	}
	_, err := s.node(el)
	return err
}

// Clear implements core.Session.
func (s *Session) Clear(el core.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("clear %s", el.ID)
	if err := s.opErr("Clear"); err != nil {
		return err
	}
	n, err := s.node(el)
	if err != nil {
		return err
	}
	n.Text = ""
	return nil
}

// TypeText implements core.Session.
func (s *Session) TypeText(el core.Element, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("type %s %s", el.ID, text)
	if err := s.opErr("TypeText"); err != nil {
		return err
	}
	n, err := s.node(el)
	if err != nil {
		return err
	}
	n.Text += text
	return nil
}

// Text implements core.Session.
func (s *Session) Text(el core.Element) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.opErr("Text"); err != nil {
		return "", err
	}
	n, err := s.node(el)
	if err != nil {
		return "", err
	}
	return n.Text, nil
}

// IsVisible implements core.Session.
func (s *Session) IsVisible(el core.Element) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.opErr("IsVisible"); err != nil {
		return false, err
	}
	n, err := s.node(el)
	if err != nil {
		return false, err
	}
	return !n.Hidden, nil
}

// WindowSize implements core.Session.
func (s *Session) WindowSize() (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.opErr("WindowSize"); err != nil {
		return 0, 0, err
	}
	return s.Width, s.Height, nil
}

// Source implements core.Session.
func (s *Session) Source() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.opErr("Source"); err != nil {
		return "", err
	}
	return s.PageSource, nil
}

// Close implements core.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	s.record("close")
	return s.opErr("Close")
}

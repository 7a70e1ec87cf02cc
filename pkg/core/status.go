package core

// ErrorCategory classifies the type of error for logging and recovery decisions
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryLookup                          // Element absent, not visible
	ErrCategoryTimeout                         // Bounded wait elapsed
	ErrCategoryConnection                      // Session or server connection lost
	ErrCategoryCommand                         // Driver rejected a command
	ErrCategoryConfig                          // Invalid configuration, missing required field
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryLookup:
		return "lookup"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryCommand:
		return "command"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

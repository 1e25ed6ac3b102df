package step

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is wrapped by every SyntaxError.
	ErrSyntax = errors.New("step: syntax error")
	// ErrDuplicateID is returned when two instances share an id.
	ErrDuplicateID = errors.New("step: duplicate instance id")
)

// SyntaxError reports malformed input with its position.
type SyntaxError struct {
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("step: line %d col %d: %s", e.Line, e.Col, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

func newSyntaxError(line, col int, format string, args ...any) error {
	return &SyntaxError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

func errUnterminatedDirective(s string) error {
	return fmt.Errorf("unterminated control directive near %q", truncate(s, 16))
}

func errBadDirective(s string) error {
	return fmt.Errorf("malformed control directive near %q", truncate(s, 16))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

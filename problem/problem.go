package problem

import (
	"errors"
	"fmt"
)

// List contains a list of problems.
// Typically functions bubble up an observed error.
// A List can be used to note the error and continue
// function execution thus turning "error" into the "problem".
type List struct {
	errors []error
}

// Add adds a problem to the list using fmt.Errorf.
func (p *List) Add(format string, args ...interface{}) *List {
	p.errors = append(p.errors, fmt.Errorf(format, args...))
	return p
}

// Errors returns all added problems.
func (p *List) Errors() []error {
	return p.errors
}

// Empty returns true if no problem was added.
func (p *List) Empty() bool {
	return len(p.errors) == 0
}

// Err joins all problems into one error, or returns nil for an empty list.
func (p *List) Err() error {
	if p.Empty() {
		return nil
	}
	return errors.Join(p.errors...)
}

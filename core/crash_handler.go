package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"

	"github.com/pkg/errors"
)

var (
	restoreMu sync.Mutex
	restoreFn func()
)

// SetRestore installs the terminal restore hook run before a crash report is printed
// Keeps core independent of the screen implementation
func SetRestore(fn func()) {
	restoreMu.Lock()
	restoreFn = fn
	restoreMu.Unlock()
}

// HandleCrash is the unified panic handler that resets the terminal and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	restoreMu.Lock()
	fn := restoreFn
	restoreMu.Unlock()
	if fn != nil {
		fn()
	}

	os.Stdout.Sync()
	os.Stderr.Sync()

	// \r\n for raw mode compatibility
	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())

	os.Stderr.Sync()
	os.Exit(1)
}

// Go runs a function in a new goroutine with panic recovery.
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash.
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}

// PanicError carries a recovered panic value and the stack at the point of recovery
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Recover runs fn and converts a panic into a *PanicError
// Used at frame boundaries where a failing step must stop its own loop and nothing else
func Recover(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WithStack(&PanicError{Value: r, Stack: debug.Stack()})
		}
	}()
	return fn()
}

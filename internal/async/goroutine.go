package async

import "runtime/debug"

// PanicLogger receives panic reports from background goroutines. The
// logging.Logger interface satisfies it.
type PanicLogger interface {
	Error(format string, args ...any)
}

// Go starts fn on a new goroutine with panic recovery. A panic inside fn is
// logged with its stack under the given name instead of taking down the
// process. Long-lived loops (transport readers, stream pumps) run through
// this rather than a bare go statement.
func Go(logger PanicLogger, name string, fn func()) {
	go func() {
		defer Recover(logger, name)
		fn()
	}()
}

// Recover is the deferred half of Go, exported so synchronous call sites can
// guard themselves the same way.
func Recover(logger PanicLogger, name string) {
	r := recover()
	if r == nil || logger == nil {
		return
	}
	if name == "" {
		name = "unnamed"
	}
	logger.Error("goroutine panic [%s]: %v, stack: %s", name, r, debug.Stack())
}

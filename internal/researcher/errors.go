package researcher

import "errors"

var (
	// ErrPlanFailed is returned when sub-query planning cannot produce a
	// single usable query.
	ErrPlanFailed = errors.New("sub-query planning failed")

	// ErrNoSources is returned when every retriever and tool attempt
	// yielded nothing.
	ErrNoSources = errors.New("no sources found")

	// ErrEmptyContext is returned by report generation when there is no
	// context to write from. The LLM is never invoked in that case.
	ErrEmptyContext = errors.New("empty research context")

	// ErrCancelled is returned when the task was cancelled before any
	// composition completed.
	ErrCancelled = errors.New("research cancelled")
)

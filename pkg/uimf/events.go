package uimf

import "fmt"

// Sink is the caller-supplied interface for progress, warnings and
// recoverable errors emitted by the writer, reader and bin-centric builder
// (spec.md §9 "event emission" design note). The library never owns a
// global sink; callers pass one in, or nil to fall back to Console.
type Sink interface {
	Message(text string)
	Progress(percent float64, task string)
	Error(kind string, context string)
}

// Console is the fallback Sink used when a caller does not supply one. It
// writes to stdout, never to the pkg/log writers, which are reserved for
// the library's own operational tracing.
type Console struct{}

func (Console) Message(text string) {
	fmt.Println(text)
}

func (Console) Progress(percent float64, task string) {
	fmt.Printf("%s: %.0f%%\n", task, percent)
}

func (Console) Error(kind string, context string) {
	fmt.Printf("[%s] %s\n", kind, context)
}

// NopSink discards everything; useful in tests and batch tools that don't
// want console noise.
type NopSink struct{}

func (NopSink) Message(string)           {}
func (NopSink) Progress(float64, string) {}
func (NopSink) Error(string, string)     {}

// OrConsole returns sink if non-nil, otherwise Console{}.
func OrConsole(sink Sink) Sink {
	if sink == nil {
		return Console{}
	}
	return sink
}

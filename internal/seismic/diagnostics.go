package seismic

import (
	"github.com/alexiusacademia/goeq/internal/loadcase"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a message about one group's derivation.
type Diagnostic struct {
	Severity Severity
	Axis     loadcase.Axis
	Group    string
	Message  string
}

// Sink receives diagnostics in emission order.
type Sink interface {
	Emit(d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Diagnostic)

// Emit calls f(d).
func (f SinkFunc) Emit(d Diagnostic) {
	f(d)
}

// Recorder keeps every diagnostic it receives, in order.
type Recorder struct {
	events []Diagnostic
}

// Emit appends d.
func (r *Recorder) Emit(d Diagnostic) {
	r.events = append(r.events, d)
}

// Events returns the recorded diagnostics.
func (r *Recorder) Events() []Diagnostic {
	return r.events
}

// Warnings returns only the warning diagnostics.
func (r *Recorder) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.events {
		if d.Severity == SeverityWarning {
			out = append(out, d)
		}
	}
	return out
}

// Tee forwards each diagnostic to every sink.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(d)
			}
		}
	})
}

func emit(s Sink, d Diagnostic) {
	if s != nil {
		s.Emit(d)
	}
}

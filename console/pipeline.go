package console

import (
	"fmt"

	"github.com/declog/declog/types"
)

// LogEntry is one successfully decoded console statement.
type LogEntry struct {
	Position  int
	Signature string
	Values    []Value
	Message   string
	Reverted  bool
}

// Warning records a console call that produced no entry. Routine, not
// exceptional: unknown selectors and malformed payloads are expected in
// arbitrary traces and must never abort the rest of the extraction.
type Warning struct {
	Position int
	Selector Selector
	Err      error
}

func (w Warning) Reason() string {
	return fmt.Sprintf("selector %s at position %d: %v", w.Selector, w.Position, w.Err)
}

// Outcome is one per-call result: exactly one of Entry or Warning is set.
type Outcome struct {
	Entry   *LogEntry
	Warning *Warning
}

// Pipeline orchestrates walker, registry, decoder and formatter over one
// trace. It is stateless across traces; the registry it reads is immutable,
// so independent traces may be extracted concurrently.
type Pipeline struct {
	includeReverted bool
}

// NewPipeline returns a pipeline. When includeReverted is set, console
// calls inside reverted sub-calls are reported too: they did execute, the
// surrounding state change just did not stick.
func NewPipeline(includeReverted bool) *Pipeline {
	return &Pipeline{includeReverted: includeReverted}
}

// Extract produces the ordered outcomes for one trace. Per-call failures
// are isolated into warning outcomes; the only fatal condition is a missing
// or structurally invalid trace.
func (p *Pipeline) Extract(root *types.CallFrame) ([]Outcome, error) {
	if root == nil {
		return nil, types.NewMalformedTraceError("trace is missing", nil)
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}

	var outcomes []Outcome
	walker := NewWalker(root)
	for {
		call, ok := walker.Next()
		if !ok {
			return outcomes, nil
		}
		if call.Reverted && !p.includeReverted {
			continue
		}
		// too short to carry a selector
		if len(call.Input) < 4 {
			continue
		}

		sel := SelectorOf(call.Input)
		schema, found := Lookup(sel)
		if !found {
			outcomes = append(outcomes, Outcome{Warning: &Warning{
				Position: call.Position,
				Selector: sel,
				Err:      types.NewNotFoundError("selector"),
			}})
			continue
		}

		values, err := Decode(call.Input[4:], schema)
		if err != nil {
			outcomes = append(outcomes, Outcome{Warning: &Warning{
				Position: call.Position,
				Selector: sel,
				Err:      err,
			}})
			continue
		}

		outcomes = append(outcomes, Outcome{Entry: &LogEntry{
			Position:  call.Position,
			Signature: schema.Signature,
			Values:    values,
			Message:   Format(values),
			Reverted:  call.Reverted,
		}})
	}
}

// Entries filters the successful log entries out of a result, preserving
// order.
func Entries(outcomes []Outcome) []LogEntry {
	var entries []LogEntry
	for _, o := range outcomes {
		if o.Entry != nil {
			entries = append(entries, *o.Entry)
		}
	}
	return entries
}

// Warnings filters the per-call failures out of a result, preserving order.
func Warnings(outcomes []Outcome) []Warning {
	var warnings []Warning
	for _, o := range outcomes {
		if o.Warning != nil {
			warnings = append(warnings, *o.Warning)
		}
	}
	return warnings
}

// SPDX-License-Identifier: MIT
package section

import (
	"cmp"
	"fmt"
	"slices"
	"sync/atomic"
	"time"
)

// Source supplies the section label for a stream timestamp.
type Source interface {
	LabelAt(ts time.Duration) Label
}

// Selector is a Source driven by an operator. It is safe for concurrent use:
// the UI sets it while the pipeline reads it.
type Selector struct {
	v atomic.Value
}

// NewSelector starts at initial.
func NewSelector(initial Label) *Selector {
	s := &Selector{}
	s.Set(initial)
	return s
}

// Set replaces the current label.
func (s *Selector) Set(l Label) { s.v.Store(l) }

// Current returns the current label.
func (s *Selector) Current() Label {
	if l, ok := s.v.Load().(Label); ok {
		return l
	}
	return Unknown
}

// LabelAt ignores ts and returns the current label.
func (s *Selector) LabelAt(time.Duration) Label { return s.Current() }

// Cue marks the start of a section at a stream offset.
type Cue struct {
	At    time.Duration `yaml:"at" json:"at"`
	Label Label         `yaml:"label" json:"label"`
}

// CueSheet is a timeline of cues sorted by At.
type CueSheet []Cue

// Validate checks that cues are strictly increasing and labelled.
func (c CueSheet) Validate() error {
	for i, cue := range c {
		if !cue.Label.Valid() {
			return fmt.Errorf("cue %d: %w: %q", i, ErrUnknownLabel, cue.Label)
		}
		if cue.At < 0 {
			return fmt.Errorf("cue %d: negative offset %s", i, cue.At)
		}
		if i > 0 && cue.At <= c[i-1].At {
			return fmt.Errorf("cue %d: offset %s not after %s", i, cue.At, c[i-1].At)
		}
	}
	return nil
}

// LabelAt returns the label of the last cue at or before ts, or Unknown
// before the first cue.
func (c CueSheet) LabelAt(ts time.Duration) Label {
	i, found := slices.BinarySearchFunc(c, ts, func(cue Cue, t time.Duration) int {
		return cmp.Compare(cue.At, t)
	})
	if found {
		return c[i].Label
	}
	if i == 0 {
		return Unknown
	}
	return c[i-1].Label
}

var (
	_ Source = (*Selector)(nil)
	_ Source = CueSheet(nil)
)

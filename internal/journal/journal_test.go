// SPDX-License-Identifier: MIT
package journal

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"luxsync/internal/dropbridge"
	"luxsync/internal/energy"
	"luxsync/internal/memory"
	"luxsync/internal/pipeline"
	"luxsync/internal/section"
	"luxsync/internal/stats"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestKeyOrdering(t *testing.T) {
	a := Key("s1", 1, KindStrike, 2*time.Second)
	b := Key("s1", 1, KindStrike, 10*time.Second)
	if bytes.Compare(a, b) >= 0 {
		t.Error("keys must sort by timestamp within a kind")
	}
	if c := Key("s1", 2, KindStrike, time.Second); bytes.Compare(b, c) >= 0 {
		t.Error("keys must sort by track before timestamp")
	}

	want := append([]byte("s1/"), 0, 0, 0, 1)
	want = append(want, "/strike/"...)
	if !bytes.HasPrefix(a, want) || len(a) != len(want)+8 {
		t.Errorf("unexpected key layout %q", a)
	}
}

// Timestamps restart after a pipeline reset, so two tracks of one session
// can share a stream offset.
func TestJournalKeepsTracksApart(t *testing.T) {
	j := openTest(t)
	for track := 1; track <= 2; track++ {
		err := j.Send(pipeline.Snapshot{
			SessionID: "show", Track: track,
			Frame:  pipeline.Frame{Timestamp: 5 * time.Second, Section: section.Drop},
			Bridge: dropbridge.Result{ShouldForceStrike: true, Intensity: 0.8 + float64(track)/10},
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	events, err := j.List("show")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want one per track: %+v", len(events), events)
	}
	for i, ev := range events {
		if ev.Track != i+1 || ev.Strike.Intensity != 0.8+float64(i+1)/10 {
			t.Errorf("events[%d] = track %d intensity %.2f", i, ev.Track, ev.Strike.Intensity)
		}
	}
}

func TestJournalSendAndList(t *testing.T) {
	j := openTest(t)

	snaps := []pipeline.Snapshot{
		{
			SessionID: "show", Track: 1,
			Frame: pipeline.Frame{Timestamp: 30 * time.Second, Section: section.Drop},
			Memory: memory.Output{ClosedSection: &memory.SectionHistoryEntry{
				Type: section.Buildup, StartTime: 14 * time.Second, Duration: 16 * time.Second, AvgEnergy: 0.6, PeakEnergy: 0.8,
			}},
		},
		{
			SessionID: "show", Track: 1,
			Frame:  pipeline.Frame{Timestamp: 31 * time.Second, Section: section.Drop},
			Energy: energy.Context{Absolute: 0.82, Smoothed: 0.95},
			Memory: memory.Output{Energy: stats.MetricStats{ZScore: 3.4}},
			Bridge: dropbridge.Result{ShouldForceStrike: true, Intensity: 0.91, Reason: "drop bridge"},
		},
		{SessionID: "show", Track: 1, Frame: pipeline.Frame{Timestamp: 32 * time.Second}},
		{
			SessionID: "other", Track: 1,
			Frame:  pipeline.Frame{Timestamp: time.Second},
			Bridge: dropbridge.Result{ShouldForceStrike: true, Intensity: 0.85},
		},
	}
	for _, s := range snaps {
		if err := j.Send(s); err != nil {
			t.Fatal(err)
		}
	}

	events, err := j.List("show")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(events), events)
	}
	if events[0].Kind != KindSection || events[0].Section.Type != section.Buildup || events[0].Section.Duration != 16*time.Second {
		t.Errorf("first event = %+v", events[0])
	}
	if s := events[1].Strike; events[1].Kind != KindStrike || s == nil || s.Intensity != 0.91 || s.ZScore != 3.4 || s.Energy != 0.82 || s.Section != section.Drop {
		t.Errorf("second event = %+v", events[1])
	}

	all, err := j.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Session != "other" {
		t.Errorf("List(\"\") = %+v", all)
	}
}

func TestJournalPersistsToDisk(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Append(Event{Session: "s", Kind: KindStrike, Timestamp: time.Second, Strike: &Strike{Intensity: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	j, err = Open(Options{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	events, err := j.List("s")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Strike.Intensity != 1 {
		t.Errorf("reopened journal = %+v", events)
	}
}

func TestJournalClosed(t *testing.T) {
	j, err := Open(Options{InMemory: true})
	if err != nil {
		t.Fatal(err)
	}
	j.Close()
	if err := j.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := j.Append(Event{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after Close = %v", err)
	}
	if _, err := j.List(""); !errors.Is(err, ErrClosed) {
		t.Errorf("List after Close = %v", err)
	}
}

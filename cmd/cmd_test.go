// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"luxsync/internal/analysis"
	"luxsync/internal/config"
	"luxsync/internal/section"
	"luxsync/internal/transport"
)

const testRate = 22050

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeTrack encodes seconds of a 100 Hz tone that gets louder each second.
func writeTrack(t *testing.T, dir string, seconds int) string {
	t.Helper()
	data := make([]int, seconds*testRate)
	for i := range data {
		amp := 2000.0 * float64(1+i/testRate)
		data[i] = int(amp * math.Sin(2*math.Pi*100*float64(i)/testRate))
	}

	path := filepath.Join(dir, "track.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, testRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestReplayAndJournal(t *testing.T) {
	dir := t.TempDir()
	track := writeTrack(t, dir, 2)
	cues := writeFile(t, dir, "cues.yaml", "cues:\n  - { at: 0s, label: verse }\n  - { at: 1s, label: drop }\n")
	cfg := writeFile(t, dir, "luxsync.yaml", "log_level: error\n"+
		"server:\n  enabled: false\n"+
		"journal:\n  enabled: true\n  path: "+filepath.Join(dir, "journal")+"\n")

	out := run(t, "replay", track, "-f", cfg, "--cues", cues)
	if !strings.Contains(out, "100 frames") {
		t.Fatalf("replay output = %q", out)
	}

	out = run(t, "journal", "-f", cfg)
	if !strings.Contains(out, "section") || !strings.Contains(out, "verse") {
		t.Errorf("journal should list the closed verse:\n%s", out)
	}
}

func TestReplayMissingFile(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"replay", filepath.Join(t.TempDir(), "missing.wav")})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	return &cfg
}

func TestFlagOverrides(t *testing.T) {
	t.Chdir(t.TempDir())

	o := &options{}
	root := rootCommand(o)
	if err := root.ParseFlags([]string{"-s", "48000", "-c", "1", "-v", "--section", "drop"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(root, o)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Audio.SampleRate != 48000 || cfg.Audio.InputChannels != 1 || !cfg.Debug {
		t.Errorf("overrides not applied: %+v debug=%v", cfg.Audio, cfg.Debug)
	}
	if cfg.Audio.FramesPerBuffer != 512 || cfg.Audio.InputDevice != config.MinDeviceID {
		t.Errorf("unset flags changed the audio config: %+v", cfg.Audio)
	}
	if o.section != "drop" {
		t.Errorf("section = %q", o.section)
	}
}

func TestFlagOverridesValidated(t *testing.T) {
	t.Chdir(t.TempDir())

	o := &options{}
	root := rootCommand(o)
	if err := root.ParseFlags([]string{"--sample-rate", "1000"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(root, o); err == nil || !strings.Contains(err.Error(), "sample_rate") {
		t.Errorf("loadConfig() error = %v, want sample_rate error", err)
	}
}

func TestSessionUsesSectionSource(t *testing.T) {
	cfg := testConfig(t)
	ch := transport.NewChannelTransport(8)
	cues := section.CueSheet{{At: 0, Label: section.Intro}, {At: 40_000_000, Label: section.Verse}}
	s := newSession(cfg, cues, transport.Fanout{ch})

	for i := 1; i <= 3; i++ {
		f := analysis.Features{Timestamp: 20_000_000 * time.Duration(i), Energy: 0.5}
		if err := s.handle(f); err != nil {
			t.Fatal(err)
		}
	}

	var labels []section.Label
	for range 3 {
		labels = append(labels, (<-ch.C()).Frame.Section)
	}
	want := []section.Label{section.Intro, section.Verse, section.Verse}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("frame %d section = %s, want %s", i, labels[i], want[i])
		}
	}
	if s.frames != 3 {
		t.Errorf("frames = %d", s.frames)
	}

	if err := s.handle(analysis.Features{Timestamp: 20_000_000}); err == nil {
		t.Error("expected an error for a repeated timestamp")
	}
}

func TestSectionSource(t *testing.T) {
	cfg := testConfig(t)

	src, sel, err := sectionSource(cfg, "drop")
	if err != nil {
		t.Fatal(err)
	}
	if sel == nil || src.LabelAt(0) != section.Drop {
		t.Errorf("selector source = %v", src.LabelAt(0))
	}

	if _, _, err := sectionSource(cfg, "solo"); err == nil {
		t.Error("expected an error for an unknown label")
	}

	cfg.CueSheet = writeFile(t, t.TempDir(), "cues.yaml", "cues:\n  - { at: 2s, label: chorus }\n")
	src, sel, err = sectionSource(cfg, "drop")
	if err != nil {
		t.Fatal(err)
	}
	if sel != nil {
		t.Error("a cue sheet should not expose a selector")
	}
	if src.LabelAt(0) != section.Unknown {
		t.Errorf("before first cue = %s", src.LabelAt(0))
	}
}

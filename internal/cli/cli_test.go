// ABOUTME: Tests for the CLI commands
// ABOUTME: Runs play and inspect against generated WAV files and checks table output
package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/audioengine-go/pkg/protocol"
)

// writeWAV writes frames of 16-bit mono silence at 8kHz
func writeWAV(t *testing.T, dir, name string, frames int) {
	t.Helper()

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, frames),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func TestRunInspect(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "tone.wav", 4000)

	var stdout, stderr bytes.Buffer
	code := RunInspect(context.Background(), &InspectParams{
		Files: []string{"tone.wav"},
		Root:  dir,
		Jobs:  2,
	}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"tone.wav", "wav", "8000", "4000", "0.500s"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunInspect_Missing(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "ok.wav", 80)

	var stdout, stderr bytes.Buffer
	code := RunInspect(context.Background(), &InspectParams{
		Files: []string{"ok.wav", "missing.wav"},
		Root:  dir,
	}, &stdout, &stderr)

	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "missing.wav") || !strings.Contains(stdout.String(), "ok.wav") {
		t.Errorf("expected both rows in output:\n%s", stdout.String())
	}
}

func TestRunPlay_NullOutput(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "blip.wav", 400)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	code := RunPlay(ctx, &PlayParams{
		Files:  []string{"blip.wav"},
		Root:   dir,
		Output: "null",
		Volume: 1,
	}, &stdout, &stderr)

	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "finished blip.wav") {
		t.Errorf("expected finish line, got:\n%s", stdout.String())
	}
}

func TestRunPlay_NothingPlayable(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := RunPlay(context.Background(), &PlayParams{
		Files:  []string{"absent.wav"},
		Root:   t.TempDir(),
		Output: "null",
	}, &stdout, &stderr)

	if code != 1 {
		t.Errorf("expected exit 1, got %d", code)
	}
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, dir, "a.wav", 8)

	store, err := openStorage(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("openStorage: %v", err)
	}
	if _, err := store.ReadAsset("a.wav"); err != nil {
		t.Errorf("ReadAsset: %v", err)
	}

	if _, err := openStorage(context.Background(), filepath.Join(dir, "a.wav"), ""); err == nil {
		t.Error("expected error for file root")
	}
	if _, err := openStorage(context.Background(), filepath.Join(dir, "nope"), ""); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestOpenStorage_Archive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "assets.zip")

	f, err := os.Create(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("sfx/a.wav")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("RIFF")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	store, err := openStorage(context.Background(), dir, archivePath)
	if err != nil {
		t.Fatalf("openStorage: %v", err)
	}
	if _, err := store.ReadAsset("sfx/a.wav"); err != nil {
		t.Errorf("ReadAsset: %v", err)
	}
	if n := strings.Count(logs.String(), "Loaded 1 assets"); n != 1 {
		t.Errorf("expected one load line, got %d:\n%s", n, logs.String())
	}
}

func TestRenderSnapshot(t *testing.T) {
	var out bytes.Buffer
	renderSnapshot(&out, &protocol.Snapshot{
		Preloaded: []string{"music/theme.ogg"},
		Sessions: []protocol.SessionInfo{
			{SessionID: 3, Path: "music/theme.ogg", State: "paused", Loop: true, Volume: 0.5, Duration: 12, CurrentTime: 4.25},
		},
		Available:      true,
		PendingDecodes: 2,
	})

	s := out.String()
	for _, want := range []string{"decoder available, 1 cached, 2 decoding", "music/theme.ogg", "paused", "4.25s", "12.00s"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in output:\n%s", want, s)
		}
	}
}

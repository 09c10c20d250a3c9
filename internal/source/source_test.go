// ABOUTME: Tests for audio source selection and the WAV source
// ABOUTME: Generates WAV files on the fly; decoder-backed formats are checked for error paths
package source

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sendspin/sbclink-go/pkg/audio"
	"github.com/Sendspin/sbclink-go/pkg/audio/wav"
	"github.com/Sendspin/sbclink-go/pkg/sbclink"
)

func writeWAV(t *testing.T, samples []int32, format audio.Format) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	w, err := wav.Create(path, format)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := w.Write(samples); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func readAll(t *testing.T, src sbclink.AudioSource, limit int) []int32 {
	t.Helper()
	var out []int32
	buf := make([]int32, 7)
	for len(out) < limit {
		n, err := src.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
	}
	return out
}

func TestOpenTone(t *testing.T) {
	src, err := Open("", Options{ToneSeconds: 0.01})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 32000 || src.Channels() != 1 {
		t.Errorf("expected 32kHz mono tone, got %dHz %dch", src.SampleRate(), src.Channels())
	}
	if got := len(readAll(t, src, 1000)); got != 320 {
		t.Errorf("expected 320 samples, got %d", got)
	}
}

func TestWAVSource(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}
	in := []int32{256, -256, 512, -512, 768, -768, 1024, -1024, 1280, -1280}
	path := writeWAV(t, in, format)

	src, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 44100 || src.Channels() != 2 {
		t.Errorf("unexpected format %dHz %dch", src.SampleRate(), src.Channels())
	}

	got := readAll(t, src, 100)
	if len(got) != len(in) {
		t.Fatalf("expected %d samples, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in[i], got[i])
		}
	}
}

func TestWAVSourceLoop(t *testing.T) {
	format := audio.Format{Codec: "pcm", SampleRate: 16000, Channels: 1, BitDepth: 16}
	path := writeWAV(t, []int32{256, 512, 768}, format)

	src, err := Open(path, Options{Loop: true})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	got := readAll(t, src, 9)
	want := []int32{256, 512, 768, 256, 512, 768, 256, 512, 768}
	if len(got) < len(want) {
		t.Fatalf("expected looping, got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	ogg := filepath.Join(dir, "clip.ogg")
	os.WriteFile(ogg, []byte("OggS"), 0o644)
	badMP3 := filepath.Join(dir, "bad.mp3")
	os.WriteFile(badMP3, []byte("not audio"), 0o644)
	badFLAC := filepath.Join(dir, "bad.flac")
	os.WriteFile(badFLAC, []byte("not audio"), 0o644)
	badWAV := filepath.Join(dir, "bad.wav")
	os.WriteFile(badWAV, []byte("not audio"), 0o644)

	tests := []struct {
		name string
		path string
		is   error
	}{
		{"missing", filepath.Join(dir, "missing.wav"), os.ErrNotExist},
		{"unsupported", ogg, ErrUnsupportedFormat},
		{"bad mp3", badMP3, nil},
		{"bad flac", badFLAC, nil},
		{"bad wav", badWAV, wav.ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.path, Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestScaleTo24(t *testing.T) {
	tests := []struct {
		sample   int32
		bitDepth int
		want     int32
	}{
		{1, 16, 256},
		{-1, 16, -256},
		{1000, 24, 1000},
		{4096, 32, 16},
		{1, 8, 65536},
	}
	for _, tt := range tests {
		if got := scaleTo24(tt.sample, tt.bitDepth); got != tt.want {
			t.Errorf("scaleTo24(%d, %d) = %d, want %d", tt.sample, tt.bitDepth, got, tt.want)
		}
	}
}

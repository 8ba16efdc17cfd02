package catalog

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"epk-api-go/audio"
)

// writeWAV writes a mono 16-bit PCM file of constant samples
func writeWAV(t *testing.T, path string, sampleRate, frames int, value int16) {
	t.Helper()

	var data bytes.Buffer
	for i := 0; i < frames; i++ {
		binary.Write(&data, binary.LittleEndian, value)
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("Failed to write WAV: %v", err)
	}
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load with empty path failed: %v", err)
	}

	tracks := c.Tracks()
	if len(tracks) != 3 {
		t.Fatalf("Expected 3 built-in tracks, got %d", len(tracks))
	}
	expected := []string{"Love Somebody", "Run 'n Tell", "Ain't Bad"}
	for i, title := range expected {
		if tracks[i].Title != title {
			t.Errorf("Track %d: expected %q, got %q", i, title, tracks[i].Title)
		}
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	os.WriteFile(path, []byte(`[
		{"id": 7, "title": "Second", "chorusFile": "/b.wav", "lyrics": "/b.txt"},
		{"id": 2, "title": "First", "fullFile": "/a.mp3"}
	]`), 0644)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tracks := c.Tracks()
	if len(tracks) != 2 || tracks[0].ID != 2 || tracks[1].ID != 7 {
		t.Fatalf("Expected tracks ordered by id, got %+v", tracks)
	}

	track, err := c.Lookup("7")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if track.LyricsFile != "/b.txt" {
		t.Errorf("Expected lyrics /b.txt, got %q", track.LyricsFile)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{not json`},
		{"duplicate id", `[{"id":1,"title":"a"},{"id":1,"title":"b"}]`},
		{"missing title", `[{"id":1}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			os.WriteFile(path, []byte(tt.content), 0644)
			if _, err := Load(path); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected an error for a missing file")
	}
}

func TestLookup_NotFound(t *testing.T) {
	c, _ := New(DefaultTracks())

	for _, raw := range []string{"99", "abc", ""} {
		if _, err := c.Lookup(raw); !errors.Is(err, ErrTrackNotFound) {
			t.Errorf("Lookup(%q): expected ErrTrackNotFound, got %v", raw, err)
		}
	}
}

func TestTrack_AudioFile(t *testing.T) {
	both := Track{ChorusFile: "/c.mp3", FullFile: "/f.mp3"}
	fullOnly := Track{FullFile: "/f.mp3"}

	tests := []struct {
		name     string
		track    Track
		version  string
		expected string
	}{
		{"chorus by default", both, "", "/c.mp3"},
		{"explicit chorus", both, VersionChorus, "/c.mp3"},
		{"full", both, VersionFull, "/f.mp3"},
		{"falls back to full", fullOnly, VersionChorus, "/f.mp3"},
		{"nothing", Track{}, VersionFull, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.track.AudioFile(tt.version); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestLoader_Lyrics(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "song.txt"), []byte("[Verse 1]\n[0:05]\nline one\nline two\n"), 0644)
	l := NewLoader(dir, 0)

	lines, err := l.Lyrics(Track{ID: 1, LyricsFile: "/song.txt"})
	if err != nil {
		t.Fatalf("Lyrics failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].Section != "Verse 1" || lines[0].Timestamp == nil || *lines[0].Timestamp != 5 {
		t.Errorf("Unexpected first line: %+v", lines[0])
	}

	if _, err := l.Lyrics(Track{ID: 1, LyricsFile: "/missing.txt"}); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Expected ErrAssetNotFound, got %v", err)
	}
	if _, err := l.Lyrics(Track{ID: 1}); !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Expected ErrAssetNotFound for a track without lyrics, got %v", err)
	}
}

func TestLoader_RejectsPathEscape(t *testing.T) {
	root := filepath.Join(t.TempDir(), "public")
	os.MkdirAll(root, 0755)
	os.WriteFile(filepath.Join(filepath.Dir(root), "secret.txt"), []byte("nope"), 0644)
	l := NewLoader(root, 0)

	_, err := l.Lyrics(Track{LyricsFile: "/../secret.txt"})
	if err == nil {
		t.Fatal("Expected path outside the assets dir to fail")
	}
	if !errors.Is(err, ErrAssetNotFound) && !errors.Is(err, ErrInvalidAsset) {
		t.Errorf("Expected not-found or invalid asset error, got %v", err)
	}
}

func TestLoader_Audio(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "chorus.wav"), 8000, 16000, 16384)
	l := NewLoader(dir, 0)

	buf, err := l.Audio(Track{ID: 1, ChorusFile: "/chorus.wav"}, VersionChorus)
	if err != nil {
		t.Fatalf("Audio failed: %v", err)
	}
	if buf.SampleRate != 8000 || buf.Duration() != 2 {
		t.Errorf("Expected 2s at 8000Hz, got %.2fs at %d", buf.Duration(), buf.SampleRate)
	}
	if buf.Samples[0] != 0.5 {
		t.Errorf("Expected sample 0.5, got %v", buf.Samples[0])
	}
}

func TestLoader_AudioErrors(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "big.wav"), 8000, 8000, 1)
	os.WriteFile(filepath.Join(dir, "cover.png"), []byte("png"), 0644)
	os.WriteFile(filepath.Join(dir, "broken.wav"), []byte("RIFF...."), 0644)

	tests := []struct {
		name     string
		loader   *Loader
		track    Track
		expected error
	}{
		{"missing file", NewLoader(dir, 0), Track{ChorusFile: "/nope.wav"}, ErrAssetNotFound},
		{"no audio", NewLoader(dir, 0), Track{}, ErrAssetNotFound},
		{"too large", NewLoader(dir, 1024), Track{ChorusFile: "/big.wav"}, ErrAssetTooLarge},
		{"unsupported", NewLoader(dir, 0), Track{ChorusFile: "/cover.png"}, audio.ErrUnsupportedFormat},
		{"broken", NewLoader(dir, 0), Track{ChorusFile: "/broken.wav"}, ErrUndecodable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.loader.Audio(tt.track, VersionChorus); !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}
}

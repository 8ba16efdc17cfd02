package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"epk-api-go/audio"
	"epk-api-go/logcolors"
	"epk-api-go/lyrics"

	log "github.com/sirupsen/logrus"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrAssetTooLarge = errors.New("asset too large")
	ErrInvalidAsset  = errors.New("invalid asset path")
	ErrUndecodable   = errors.New("audio could not be decoded")
)

// Loader reads track assets from a directory on disk
type Loader struct {
	root          string
	maxAudioBytes int64
}

// NewLoader creates a loader rooted at dir. maxAudioBytes <= 0 disables the
// size limit.
func NewLoader(dir string, maxAudioBytes int64) *Loader {
	return &Loader{root: dir, maxAudioBytes: maxAudioBytes}
}

// resolve maps an asset URL path ("/song.txt") onto the root directory,
// refusing anything that escapes it
func (l *Loader) resolve(assetPath string) (string, error) {
	if assetPath == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidAsset)
	}
	clean := filepath.Clean("/" + filepath.FromSlash(strings.TrimPrefix(assetPath, "/")))
	full := filepath.Join(l.root, clean)

	rel, err := filepath.Rel(l.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidAsset, assetPath)
	}
	return full, nil
}

func (l *Loader) open(assetPath string) (*os.File, error) {
	full, err := l.resolve(assetPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, assetPath)
		}
		return nil, fmt.Errorf("failed to open %s: %w", assetPath, err)
	}
	return f, nil
}

// Lyrics reads and parses the track's lyrics file
func (l *Loader) Lyrics(t Track) ([]lyrics.Line, error) {
	if t.LyricsFile == "" {
		return nil, fmt.Errorf("%w: track %d has no lyrics", ErrAssetNotFound, t.ID)
	}

	f, err := l.open(t.LyricsFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lines, err := lyrics.ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read lyrics %s: %w", t.LyricsFile, err)
	}
	log.Debugf("%s Parsed %d lines from %s", logcolors.LogLyrics, len(lines), t.LyricsFile)
	return lines, nil
}

// Audio reads and decodes the requested version of the track
func (l *Loader) Audio(t Track, version string) (*audio.Buffer, error) {
	assetPath := t.AudioFile(version)
	if assetPath == "" {
		return nil, fmt.Errorf("%w: track %d has no audio", ErrAssetNotFound, t.ID)
	}

	f, err := l.open(assetPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if l.maxAudioBytes > 0 {
		r = io.LimitReader(f, l.maxAudioBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio %s: %w", assetPath, err)
	}
	if l.maxAudioBytes > 0 && int64(len(data)) > l.maxAudioBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrAssetTooLarge, assetPath, l.maxAudioBytes)
	}

	buf, err := audio.Decode(assetPath, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	log.Debugf("%s Decoded %s: %.1fs at %dHz", logcolors.LogDecode, assetPath, buf.Duration(), buf.SampleRate)
	return buf, nil
}

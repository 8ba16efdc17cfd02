package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"epk-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

var ErrTrackNotFound = errors.New("track not found")

// Audio versions a track can be played in
const (
	VersionChorus = "chorus"
	VersionFull   = "full"
)

// Track is one playlist entry and the asset paths that belong to it
type Track struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	ChorusFile string `json:"chorusFile"`
	FullFile   string `json:"fullFile"`
	LyricsFile string `json:"lyrics"`
}

// AudioFile returns the asset path for the requested version. The chorus
// preview is what the playlist plays by default.
func (t Track) AudioFile(version string) string {
	if version == VersionFull && t.FullFile != "" {
		return t.FullFile
	}
	if t.ChorusFile != "" {
		return t.ChorusFile
	}
	return t.FullFile
}

// DefaultTracks is the built-in playlist
func DefaultTracks() []Track {
	return []Track{
		{ID: 1, Title: "Love Somebody", ChorusFile: "/love-somebody-chorus.mp3", FullFile: "/luv-somebody.mp3", LyricsFile: "/love-somebody.txt"},
		{ID: 2, Title: "Run 'n Tell", ChorusFile: "/run-n-tell-chorus.mp3", FullFile: "/run-n-tell.mp3", LyricsFile: "/run-n-tell.txt"},
		{ID: 3, Title: "Ain't Bad", ChorusFile: "/ain't-bad-chorus.mp3", FullFile: "/aint-bad.mp3", LyricsFile: "/aint-bad.txt"},
	}
}

// Catalog is the ordered, read-only set of tracks
type Catalog struct {
	mu     sync.RWMutex
	tracks []Track
	byID   map[int]Track
}

// New builds a catalog from tracks. Duplicate IDs are rejected.
func New(tracks []Track) (*Catalog, error) {
	c := &Catalog{byID: make(map[int]Track, len(tracks))}
	for _, t := range tracks {
		if _, exists := c.byID[t.ID]; exists {
			return nil, fmt.Errorf("duplicate track id %d", t.ID)
		}
		if t.Title == "" {
			return nil, fmt.Errorf("track %d has no title", t.ID)
		}
		c.byID[t.ID] = t
		c.tracks = append(c.tracks, t)
	}
	sort.SliceStable(c.tracks, func(i, j int) bool { return c.tracks[i].ID < c.tracks[j].ID })
	return c, nil
}

// Load reads a JSON array of tracks from path. An empty path returns the
// built-in playlist.
func Load(path string) (*Catalog, error) {
	if path == "" {
		log.Infof("%s No catalog file configured, using built-in playlist", logcolors.LogCatalog)
		return New(DefaultTracks())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var tracks []Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	c, err := New(tracks)
	if err != nil {
		return nil, err
	}
	log.Infof("%s Loaded %d tracks from %s", logcolors.LogCatalog, len(tracks), path)
	return c, nil
}

// Tracks returns all tracks ordered by ID
func (c *Catalog) Tracks() []Track {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Track, len(c.tracks))
	copy(out, c.tracks)
	return out
}

// Get returns the track with the given ID
func (c *Catalog) Get(id int) (Track, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	if !ok {
		return Track{}, fmt.Errorf("%w: %d", ErrTrackNotFound, id)
	}
	return t, nil
}

// Lookup parses a path parameter and returns the matching track
func (c *Catalog) Lookup(rawID string) (Track, error) {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return Track{}, fmt.Errorf("%w: %q", ErrTrackNotFound, rawID)
	}
	return c.Get(id)
}

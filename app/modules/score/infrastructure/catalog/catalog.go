// Package catalog holds the static deck display-name to unique-id mapping.
package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	scoredomain "github.com/Black-And-White-Club/quizboard/app/modules/score/domain"
)

// Catalog is an immutable lookup table built once at startup. Keys are lower-cased
// display names. The shiritori game mode is always present under its own id.
type Catalog struct {
	byName map[string]scoredomain.DeckUniqueID
	ids    map[scoredomain.DeckUniqueID]struct{}
}

// deckMetadata is one entry of the deck metadata file.
type deckMetadata struct {
	UniqueID string `json:"uniqueId"`
}

// New builds a catalog from display name to unique id pairs.
func New(entries map[string]scoredomain.DeckUniqueID) *Catalog {
	c := &Catalog{
		byName: make(map[string]scoredomain.DeckUniqueID, len(entries)+1),
		ids:    make(map[scoredomain.DeckUniqueID]struct{}, len(entries)+1),
	}
	for name, id := range entries {
		c.byName[strings.ToLower(name)] = id
		c.ids[id] = struct{}{}
	}
	c.byName[string(scoredomain.ShiritoriDeckID)] = scoredomain.ShiritoriDeckID
	c.ids[scoredomain.ShiritoriDeckID] = struct{}{}
	return c
}

// Parse decodes a deck metadata document of the form
// {"Display Name": {"uniqueId": "..."}, ...}.
func Parse(r io.Reader) (*Catalog, error) {
	var raw map[string]deckMetadata
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode deck catalog: %w", err)
	}

	entries := make(map[string]scoredomain.DeckUniqueID, len(raw))
	for name, meta := range raw {
		if !scoredomain.ValidIdentifier(meta.UniqueID) {
			return nil, fmt.Errorf("deck %q has an invalid uniqueId %q", name, meta.UniqueID)
		}
		entries[name] = scoredomain.DeckUniqueID(meta.UniqueID)
	}
	return New(entries), nil
}

// Load reads and parses the deck metadata file at path.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open deck catalog: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Lookup returns the unique id registered for a display name. Matching ignores case.
func (c *Catalog) Lookup(name string) (scoredomain.DeckUniqueID, bool) {
	id, ok := c.byName[strings.ToLower(name)]
	return id, ok
}

// ContainsID reports whether id is the unique id of any catalog deck.
func (c *Catalog) ContainsID(id scoredomain.DeckUniqueID) bool {
	_, ok := c.ids[id]
	return ok
}

// Len returns the number of display names, the shiritori entry included.
func (c *Catalog) Len() int { return len(c.byName) }

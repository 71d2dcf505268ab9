// Package dataset loads the static entity catalog the recognizers match
// against.
//
// The catalog lives in a directory of four JSON files (items.json,
// weapons.json, tomes.json, characters.json). Each file is an object with a
// single list named after the file:
//
//	{"items": [{"id": "moldy_cheese", "name": "Moldy Cheese", "image": "images/items/moldy_cheese.png"}]}
//
// Missing files are skipped so a partial catalog still loads.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ironsheep/inventory-scan-mcp/internal/detection"
)

// Entity is one catalog entry.
type Entity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
	Rarity string `json:"rarity,omitempty"`

	Category detection.Category `json:"-"`
}

// Ref returns the detection reference for the entity.
func (e Entity) Ref() detection.EntityRef {
	return detection.EntityRef{ID: e.ID, Name: e.Name}
}

// Catalog indexes entities by category for lookup by ID, name or OCR text.
type Catalog struct {
	dir      string
	entities map[detection.Category][]Entity
	byID     map[string]Entity
	byName   map[string]Entity
}

// fileKeys maps each category to its file stem and list key.
var fileKeys = map[detection.Category]string{
	detection.CategoryItem:      "items",
	detection.CategoryWeapon:    "weapons",
	detection.CategoryTome:      "tomes",
	detection.CategoryCharacter: "characters",
}

// NewCatalog builds a catalog from in-memory entities. Image paths are
// resolved against dir.
func NewCatalog(dir string, entities map[detection.Category][]Entity) *Catalog {
	c := &Catalog{
		dir:      dir,
		entities: make(map[detection.Category][]Entity),
		byID:     make(map[string]Entity),
		byName:   make(map[string]Entity),
	}
	for _, cat := range detection.Categories {
		for _, e := range entities[cat] {
			c.add(cat, e)
		}
	}
	return c
}

func (c *Catalog) add(cat detection.Category, e Entity) {
	e.ID = strings.TrimSpace(e.ID)
	e.Name = strings.TrimSpace(e.Name)
	if e.ID == "" && e.Name == "" {
		return
	}
	e.Category = cat
	c.entities[cat] = append(c.entities[cat], e)

	if e.ID != "" {
		c.byID[indexKey(cat, e.ID)] = e
	}
	if n := normalize(e.Name); n != "" {
		c.byName[indexKey(cat, n)] = e
	}
}

func indexKey(cat detection.Category, s string) string {
	return string(cat) + "/" + strings.ToLower(s)
}

// Load reads the catalog files from dir.
func Load(dir string) (*Catalog, error) {
	lists := make(map[detection.Category][]Entity)

	for cat, key := range fileKeys {
		path := filepath.Join(dir, key+".json")
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var file map[string][]Entity
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		lists[cat] = file[key]
	}

	return NewCatalog(dir, lists), nil
}

// Dir returns the directory image paths are resolved against.
func (c *Catalog) Dir() string { return c.dir }

// Len returns the total number of entities.
func (c *Catalog) Len() int {
	n := 0
	for _, list := range c.entities {
		n += len(list)
	}
	return n
}

// Entities returns the entities of one category in file order.
func (c *Catalog) Entities(cat detection.Category) []Entity {
	return append([]Entity(nil), c.entities[cat]...)
}

// Lookup finds an entity by ID or display name, ignoring case.
func (c *Catalog) Lookup(cat detection.Category, idOrName string) (Entity, bool) {
	if e, ok := c.byID[indexKey(cat, strings.TrimSpace(idOrName))]; ok {
		return e, true
	}
	return c.Match(cat, idOrName)
}

// Match finds the entity whose name equals text after normalization:
// lower-cased, with everything but letters and digits removed. It is meant
// for OCR output, where spacing and punctuation are unreliable.
func (c *Catalog) Match(cat detection.Category, text string) (Entity, bool) {
	n := normalize(text)
	if n == "" {
		return Entity{}, false
	}
	e, ok := c.byName[indexKey(cat, n)]
	return e, ok
}

// TemplatePath returns the absolute or dir-relative path of the entity's
// template image, or "" when the entity has none.
func (c *Catalog) TemplatePath(e Entity) string {
	if e.Image == "" {
		return ""
	}
	if filepath.IsAbs(e.Image) {
		return e.Image
	}
	return filepath.Join(c.dir, e.Image)
}

// MaxNameWords is the word count of the longest entity name.
func (c *Catalog) MaxNameWords() int {
	max := 1
	for _, list := range c.entities {
		for _, e := range list {
			if n := len(strings.Fields(e.Name)); n > max {
				max = n
			}
		}
	}
	return max
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

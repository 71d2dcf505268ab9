package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/inventory-scan-mcp/internal/detection"
)

func writeDataset(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestLoad(t *testing.T) {
	dir := writeDataset(t, map[string]string{
		"items.json": `{"items": [
			{"id": "moldy_cheese", "name": "Moldy Cheese", "image": "images/items/moldy_cheese.png", "rarity": "common"},
			{"id": "ice_crystal", "name": "Ice Crystal"},
			{"id": "", "name": ""}
		]}`,
		"weapons.json":    `{"weapons": [{"id": "bow", "name": "Bow"}]}`,
		"characters.json": `{"characters": [{"id": "cl4nk", "name": "CL4NK"}]}`,
	})

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, c.Len())
	items := c.Entities(detection.CategoryItem)
	require.Len(t, items, 2)
	assert.Equal(t, "Moldy Cheese", items[0].Name)
	assert.Equal(t, "common", items[0].Rarity)
	assert.Equal(t, detection.CategoryItem, items[0].Category)
	assert.Empty(t, c.Entities(detection.CategoryTome), "missing file is skipped")

	assert.Equal(t, filepath.Join(dir, "images/items/moldy_cheese.png"), c.TemplatePath(items[0]))
	assert.Equal(t, "", c.TemplatePath(items[1]))
}

func TestLoad_Malformed(t *testing.T) {
	dir := writeDataset(t, map[string]string{"tomes.json": `{"tomes": [`})

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLookupAndMatch(t *testing.T) {
	c := NewCatalog("data", map[detection.Category][]Entity{
		detection.CategoryItem: {
			{ID: "moldy_cheese", Name: "Moldy Cheese"},
			{ID: "forbidden_juice", Name: "Forbidden Juice"},
		},
		detection.CategoryTome: {
			{ID: "agility", Name: "Agility"},
		},
	})

	tests := []struct {
		name   string
		cat    detection.Category
		query  string
		wantID string
		found  bool
	}{
		{"by id", detection.CategoryItem, "MOLDY_CHEESE", "moldy_cheese", true},
		{"by name", detection.CategoryItem, "moldy cheese", "moldy_cheese", true},
		{"ocr spacing", detection.CategoryItem, "Forbidden-Juice.", "forbidden_juice", true},
		{"ocr no space", detection.CategoryItem, "forbiddenjuice", "forbidden_juice", true},
		{"wrong category", detection.CategoryWeapon, "Agility", "", false},
		{"unknown", detection.CategoryItem, "Golden Idol", "", false},
		{"blank", detection.CategoryItem, " - ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := c.Lookup(tt.cat, tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.wantID, e.ID)
		})
	}

	e, ok := c.Match(detection.CategoryTome, "AGILITY")
	require.True(t, ok)
	assert.Equal(t, detection.EntityRef{ID: "agility", Name: "Agility"}, e.Ref())
	assert.Equal(t, 2, c.MaxNameWords())
}

func TestEntities_ReturnsCopy(t *testing.T) {
	c := NewCatalog("", map[detection.Category][]Entity{
		detection.CategoryWeapon: {{ID: "bow", Name: "Bow"}},
	})

	list := c.Entities(detection.CategoryWeapon)
	list[0].Name = "Changed"

	assert.Equal(t, "Bow", c.Entities(detection.CategoryWeapon)[0].Name)
}

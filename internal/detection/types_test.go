package detection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"item", CategoryItem, true},
		{"Items", CategoryItem, true},
		{" WEAPONS ", CategoryWeapon, true},
		{"tome", CategoryTome, true},
		{"characters", CategoryCharacter, true},
		{"relic", "relic", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCategory(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}

func TestMethod_Valid(t *testing.T) {
	for _, m := range []Method{MethodTemplateMatch, MethodOCR, MethodHybrid, MethodNone} {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, Method("guess").Valid())
}

func TestDetectionResult_Key(t *testing.T) {
	byID := DetectionResult{Category: CategoryItem, Entity: EntityRef{ID: "Moldy_Cheese", Name: "Moldy Cheese"}}
	byIDOtherName := DetectionResult{Category: CategoryItem, Entity: EntityRef{ID: "moldy_cheese", Name: "Cheese"}}
	byName := DetectionResult{Category: CategoryItem, Entity: EntityRef{Name: "Moldy Cheese"}}
	otherCategory := DetectionResult{Category: CategoryTome, Entity: EntityRef{ID: "moldy_cheese"}}

	k1, ok := byID.Key()
	require.True(t, ok)
	k2, _ := byIDOtherName.Key()
	k3, _ := byName.Key()
	k4, _ := otherCategory.Key()

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, k1, k4)

	_, ok = DetectionResult{Category: CategoryItem, Entity: EntityRef{Name: "  "}}.Key()
	assert.False(t, ok)
}

func TestDetectionResult_JSON(t *testing.T) {
	n := 3
	d := DetectionResult{
		Category:   CategoryItem,
		Entity:     EntityRef{ID: "ice_crystal", Name: "Ice Crystal"},
		Confidence: 0.9,
		Method:     MethodHybrid,
		Position:   &imaging.Region{X: 10, Y: 20, Width: 64, Height: 64},
		Count:      &n,
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"category": "item",
		"entity": {"id": "ice_crystal", "name": "Ice Crystal"},
		"confidence": 0.9,
		"method": "hybrid",
		"position": {"x": 10, "y": 20, "width": 64, "height": 64},
		"count": 3
	}`, string(data))

	bare, err := json.Marshal(DetectionResult{Category: CategoryTome, Entity: EntityRef{Name: "Agility"}, Method: MethodOCR})
	require.NoError(t, err)
	assert.NotContains(t, string(bare), "position")
	assert.NotContains(t, string(bare), "count")

	agg, err := json.Marshal(AggregatedDetection{DetectionResult: d, Occurrences: 2})
	require.NoError(t, err)
	assert.Contains(t, string(agg), `"occurrences":2`)
	assert.Contains(t, string(agg), `"method":"hybrid"`)
}

func TestDetectionResult_WithCount(t *testing.T) {
	d := DetectionResult{Category: CategoryItem, Entity: EntityRef{ID: "x"}}
	c := d.WithCount(4)

	assert.Nil(t, d.Count)
	require.True(t, c.HasCount())
	assert.Equal(t, 4, *c.Count)
	assert.False(t, c.HasPosition())
}

package detection

import (
	"strings"

	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
)

// Category is the kind of entity a detection refers to.
type Category string

// Categories recognized by the pipeline. The set is closed.
const (
	CategoryItem      Category = "item"
	CategoryWeapon    Category = "weapon"
	CategoryTome      Category = "tome"
	CategoryCharacter Category = "character"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryItem, CategoryWeapon, CategoryTome, CategoryCharacter}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryItem, CategoryWeapon, CategoryTome, CategoryCharacter:
		return true
	}
	return false
}

// ParseCategory accepts singular or plural spellings in any case
// ("Items", "weapon", ...).
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "s")
	c := Category(s)
	return c, c.Valid()
}

// Method is how a detection was produced.
type Method string

// Detection methods. MethodHybrid is only ever produced by CombineDetections.
const (
	MethodTemplateMatch Method = "template_match"
	MethodOCR           Method = "ocr"
	MethodHybrid        Method = "hybrid"
	MethodNone          Method = "none"
)

// Valid reports whether m is one of the known methods.
func (m Method) Valid() bool {
	switch m {
	case MethodTemplateMatch, MethodOCR, MethodHybrid, MethodNone:
		return true
	}
	return false
}

// EntityRef identifies an entity from the static dataset.
type EntityRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DetectionResult is one recognized entity instance in a frame.
//
// Confidence is nominally in [0,1] but is never clamped here; out-of-range
// values are carried through untouched.
type DetectionResult struct {
	Category   Category  `json:"category"`
	Entity     EntityRef `json:"entity"`
	Confidence float64   `json:"confidence"`
	Method     Method    `json:"method"`

	// Position is nil when the entity was detected but not localized.
	Position *imaging.Region `json:"position,omitempty"`

	// Count is the stack size read from the slot overlay, nil when unknown.
	Count *int `json:"count,omitempty"`
}

// HasPosition reports whether the detection is localized.
func (d DetectionResult) HasPosition() bool { return d.Position != nil }

// HasCount reports whether a stack count is attached.
func (d DetectionResult) HasCount() bool { return d.Count != nil }

// Key returns the identity used to group detections of the same entity:
// category plus entity ID, or the lower-cased name when there is no ID.
// ok is false for entries that carry neither.
func (d DetectionResult) Key() (key string, ok bool) {
	id := strings.TrimSpace(d.Entity.ID)
	if id != "" {
		return string(d.Category) + "/id:" + strings.ToLower(id), true
	}
	name := strings.ToLower(strings.TrimSpace(d.Entity.Name))
	if name != "" {
		return string(d.Category) + "/name:" + name, true
	}
	return "", false
}

// NameKey returns category plus lower-cased name, the fallback identity used
// to pair an entry lacking an ID with one that has it. ok is false when the
// name is blank.
func (d DetectionResult) NameKey() (key string, ok bool) {
	name := strings.ToLower(strings.TrimSpace(d.Entity.Name))
	if name == "" {
		return "", false
	}
	return string(d.Category) + "/name:" + name, true
}

// Clone returns a copy that shares no pointers with d.
func (d DetectionResult) Clone() DetectionResult {
	if d.Position != nil {
		p := *d.Position
		d.Position = &p
	}
	if d.Count != nil {
		c := *d.Count
		d.Count = &c
	}
	return d
}

// WithCount returns a copy of d with Count set to n.
func (d DetectionResult) WithCount(n int) DetectionResult {
	d = d.Clone()
	d.Count = &n
	return d
}

// AggregatedDetection is a DetectionResult standing for several raw hits of
// the same entity within one pass.
type AggregatedDetection struct {
	DetectionResult
	Occurrences int `json:"occurrences"`
}

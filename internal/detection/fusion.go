package detection

import "strings"

// identityIndex resolves detections to groups. Groups are found by Key
// first; on a miss, an entry is paired by NameKey with a group whose ID
// does not conflict with its own, so {Name:"Sword"} and
// {ID:"sword", Name:"Sword"} in one category land in the same group.
type identityIndex struct {
	byKey  map[string]int
	byName map[string]int
	ids    []string
}

func newIdentityIndex(n int) *identityIndex {
	return &identityIndex{
		byKey:  make(map[string]int, n),
		byName: make(map[string]int, n),
	}
}

func (x *identityIndex) lookup(d DetectionResult) (int, bool) {
	if key, ok := d.Key(); ok {
		if i, seen := x.byKey[key]; seen {
			return i, true
		}
	}
	nameKey, ok := d.NameKey()
	if !ok {
		return 0, false
	}
	i, seen := x.byName[nameKey]
	if !seen {
		return 0, false
	}
	id := strings.TrimSpace(d.Entity.ID)
	if id != "" && x.ids[i] != "" && !strings.EqualFold(id, x.ids[i]) {
		return 0, false
	}
	return i, true
}

// add registers d as a member of group i, creating it when i == len(ids).
func (x *identityIndex) add(d DetectionResult, i int) {
	if i == len(x.ids) {
		x.ids = append(x.ids, "")
	}
	id := strings.TrimSpace(d.Entity.ID)
	if id != "" && x.ids[i] == "" {
		x.ids[i] = id
	}
	if key, ok := d.Key(); ok {
		if _, seen := x.byKey[key]; !seen {
			x.byKey[key] = i
		}
	}
	if nameKey, ok := d.NameKey(); ok {
		if _, seen := x.byName[nameKey]; !seen {
			x.byName[nameKey] = i
		}
	}
}

// AggregateDuplicates collapses repeated detections of the same entity.
//
// Detections are grouped by entity ID within a category; an entry without
// an ID joins the group with the same lower-cased name. Each group yields
// one record: its strongest member (highest confidence, earliest on ties)
// with Occurrences set to the group size and the group's entity ID filled
// in when that member lacks one. Groups appear in the order their first
// member appeared. Detections with neither an entity ID nor a name are
// dropped.
func AggregateDuplicates(dets []DetectionResult) []AggregatedDetection {
	index := newIdentityIndex(len(dets))
	out := make([]AggregatedDetection, 0, len(dets))

	for _, d := range dets {
		if _, ok := d.Key(); !ok {
			continue
		}
		i, seen := index.lookup(d)
		if !seen {
			i = len(out)
			out = append(out, AggregatedDetection{DetectionResult: d.Clone(), Occurrences: 1})
			index.add(d, i)
			continue
		}
		index.add(d, i)
		out[i].Occurrences++
		if d.Confidence > out[i].Confidence {
			out[i].DetectionResult = d.Clone()
		}
	}

	for i := range out {
		if strings.TrimSpace(out[i].Entity.ID) == "" {
			out[i].Entity.ID = index.ids[i]
		}
	}
	return out
}

// CombineDetections merges OCR detections with template-match detections.
//
// Each source is first reduced with AggregateDuplicates, so no entity is
// emitted twice. An entity seen by both sources, matched by ID or, when one
// side has no ID, by name, becomes one MethodHybrid detection whose
// confidence is the noisy-OR of the two, never below the larger input.
// Position and count come from the template-match side when it has them.
// Entities seen by one source pass through unchanged.
//
// Output order is the OCR order followed by template-only entities in
// template order.
func CombineDetections(ocr, cv []DetectionResult) []DetectionResult {
	ocrBest := AggregateDuplicates(ocr)
	cvBest := AggregateDuplicates(cv)

	cvIndex := newIdentityIndex(len(cvBest))
	for i, c := range cvBest {
		cvIndex.add(c.DetectionResult, i)
	}

	used := make([]bool, len(cvBest))
	out := make([]DetectionResult, 0, len(ocrBest)+len(cvBest))

	for _, o := range ocrBest {
		i, ok := cvIndex.lookup(o.DetectionResult)
		if !ok || used[i] {
			out = append(out, o.DetectionResult)
			continue
		}
		used[i] = true
		out = append(out, merge(o.DetectionResult, cvBest[i].DetectionResult))
	}

	for i, c := range cvBest {
		if !used[i] {
			out = append(out, c.DetectionResult)
		}
	}
	return out
}

func merge(ocr, cv DetectionResult) DetectionResult {
	m := cv.Clone()
	m.Method = MethodHybrid
	m.Confidence = HybridConfidence(ocr.Confidence, cv.Confidence)

	if m.Entity.ID == "" {
		m.Entity.ID = ocr.Entity.ID
	}
	if m.Entity.Name == "" {
		m.Entity.Name = ocr.Entity.Name
	}

	o := ocr.Clone()
	if m.Position == nil {
		m.Position = o.Position
	}
	if m.Count == nil {
		m.Count = o.Count
	}
	return m
}

// HybridConfidence fuses two independent confidences: 1-(1-a)(1-b), floored
// at max(a, b). For inputs in (0,1) the result is strictly above both; for
// inputs at most 1 it never exceeds 1.
func HybridConfidence(a, b float64) float64 {
	noisyOR := 1 - (1-a)*(1-b)
	hi := a
	if b > hi {
		hi = b
	}
	if noisyOR > hi {
		return noisyOR
	}
	return hi
}

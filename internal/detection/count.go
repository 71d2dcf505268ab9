package detection

import (
	"math"
	"sort"
	"strconv"

	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
)

// Stack-count heuristic parameters.
const (
	// OverlayThreshold is the gray level above which a pixel is treated as
	// part of the white count overlay.
	OverlayThreshold = 200

	// MinOverlayCoverage is the fraction of bright pixels a cell must
	// strictly exceed to be considered as carrying a count overlay. It is
	// set so a lone "7", the sparsest glyph, drawn at 2x (10px digits) in a
	// 64px slot still passes: 28 of 4096 pixels. Smaller digits are read as
	// no overlay.
	MinOverlayCoverage = 0.005

	// MinCountCellSize is the smallest cell side, in pixels, that is worth
	// reading digits from.
	MinCountCellSize = 10

	// ReferenceDigitHeight is the digit height in pixels on a 1080-line screen.
	ReferenceDigitHeight = 15

	// ReferenceScreenHeight is the screen height ReferenceDigitHeight is
	// measured at.
	ReferenceScreenHeight = 1080

	// MinStackCount and MaxStackCount bound every reported count.
	MinStackCount = 1
	MaxStackCount = 99

	// TrustedCountConfidence is the confidence a raw count must strictly
	// exceed to skip common-stack correction.
	TrustedCountConfidence = 0.8
)

// Confidences reported when no digits were read.
const (
	confidenceEmptyCell     = 0.0
	confidenceNoOverlay     = 0.8
	confidenceCellTooSmall  = 0.5
	confidenceNoDigitsFound = 0.5
)

const (
	minComponentPixels = 2
	maxDigitsPerBlob   = 3
	sizePenalty        = 0.7
	clampPenalty       = 0.5
)

// CommonStackSizes are the stack sizes the game hands out most often, in the
// order CorrectToCommonStack scans them.
var CommonStackSizes = []int{1, 2, 3, 4, 5, 10, 15, 20, 25, 50, 99}

// CountDetectionResult describes the count read from one inventory cell.
type CountDetectionResult struct {
	// Count is always in [1, 99]; it is 1 when no count was read.
	Count int `json:"count"`

	Confidence float64 `json:"confidence"`

	// RawText is the digit string as read, before clamping.
	RawText string `json:"raw_text"`

	// Region is the analyzed cell after clipping to the frame.
	Region imaging.Region `json:"region"`

	// Method is MethodTemplateMatch when digits were matched, MethodNone
	// otherwise.
	Method Method `json:"method"`
}

// HasCountOverlay reports whether the cell holds enough near-white pixels
// to plausibly carry a stack-count overlay.
//
// Coverage is measured over the in-bounds part of the cell only. A cell
// lying entirely outside the frame has no overlay.
func HasCountOverlay(f *imaging.Frame, cell imaging.Region) bool {
	r := cell.Clip(f)
	if r.Empty() {
		return false
	}
	return imaging.OnRatio(imaging.BinarizeRegion(f, r, OverlayThreshold)) > MinOverlayCoverage
}

// DetectCount estimates the stack count shown in an inventory cell.
//
// The count overlay is drawn in the bottom-right quadrant of a slot in white
// 3x5 block digits. The brightest connected blob there seeds a cluster of
// blobs sharing its text line; each blob is cut into digit-wide cells and
// every cell is matched against the digit glyph set.
//
// screenHeight scales the expected digit height; 0 means "use the frame
// height". DetectCount never fails: cells with nothing to read come back as
// count 1 with MethodNone.
func DetectCount(f *imaging.Frame, cell imaging.Region, screenHeight int) CountDetectionResult {
	r := cell.Clip(f)
	res := CountDetectionResult{Count: MinStackCount, Region: r, Method: MethodNone}

	switch {
	case r.Empty():
		res.Confidence = confidenceEmptyCell
		return res
	case !HasCountOverlay(f, r):
		res.Confidence = confidenceNoOverlay
		return res
	case r.Width < MinCountCellSize || r.Height < MinCountCellSize:
		res.Confidence = confidenceCellTooSmall
		return res
	}

	quadrant := imaging.Region{
		X:      r.X + r.Width/2,
		Y:      r.Y + r.Height/2,
		Width:  r.Width - r.Width/2,
		Height: r.Height - r.Height/2,
	}
	mask := imaging.BinarizeRegion(f, quadrant, OverlayThreshold)

	cluster := digitCluster(f, quadrant, findComponents(mask, minComponentPixels))
	if len(cluster) == 0 {
		res.Confidence = confidenceNoDigitsFound
		return res
	}

	text, score, height := readDigits(mask, cluster)
	value, err := strconv.Atoi(text)
	if err != nil {
		res.Confidence = confidenceNoDigitsFound
		return res
	}

	if screenHeight <= 0 {
		screenHeight = f.Height
	}
	expected := float64(ReferenceDigitHeight) * float64(screenHeight) / float64(ReferenceScreenHeight)
	if expected > 0 {
		ratio := float64(height) / expected
		if ratio < 0.5 || ratio > 2 {
			score *= sizePenalty
		}
	}

	clamped := value
	if clamped < MinStackCount {
		clamped = MinStackCount
	}
	if clamped > MaxStackCount {
		clamped = MaxStackCount
	}
	if clamped != value {
		score *= clampPenalty
	}

	res.Count = clamped
	res.RawText = text
	res.Confidence = score
	res.Method = MethodTemplateMatch
	return res
}

// DetectCounts runs DetectCount on every cell independently. The result has
// the same length and order as cells.
func DetectCounts(f *imaging.Frame, cells []imaging.Region, screenHeight int) []CountDetectionResult {
	out := make([]CountDetectionResult, len(cells))
	for i, c := range cells {
		out[i] = DetectCount(f, c, screenHeight)
	}
	return out
}

// CorrectToCommonStack snaps a low-confidence count onto a common stack size.
//
// When confidence is above TrustedCountConfidence the count is returned as
// is. Otherwise CommonStackSizes is scanned in order and the first size within
// distance 1 of count wins, which is not always the nearest one (4 becomes 3).
// Counts with no common size within distance 1 are returned unchanged.
func CorrectToCommonStack(count int, confidence float64) int {
	if confidence > TrustedCountConfidence {
		return count
	}
	for _, size := range CommonStackSizes {
		if d := size - count; d >= -1 && d <= 1 {
			return size
		}
	}
	return count
}

// digitCluster picks the brightest component as the seed and returns the
// run of components on the same text line that touches it, left to right.
func digitCluster(f *imaging.Frame, origin imaging.Region, comps []component) []component {
	if len(comps) == 0 {
		return nil
	}

	seed, best := 0, -1.0
	for i, c := range comps {
		sum := 0.0
		for _, p := range c.points {
			sum += f.Gray(origin.X+p.X, origin.Y+p.Y)
		}
		if sum > best {
			seed, best = i, sum
		}
	}
	seedBounds := comps[seed].bounds

	var line []component
	for i, c := range comps {
		if i == seed || verticalOverlap(c.bounds, seedBounds)*2 >= minInt(c.height(), seedBounds.Dy()) {
			line = append(line, c)
		}
	}
	sort.SliceStable(line, func(i, j int) bool {
		return line[i].bounds.Min.X < line[j].bounds.Min.X
	})

	at := 0
	for i, c := range line {
		if c.bounds == seedBounds {
			at = i
			break
		}
	}

	maxGap := seedBounds.Dy()
	lo, hi := at, at
	for lo > 0 && line[lo].bounds.Min.X-line[lo-1].bounds.Max.X <= maxGap {
		lo--
	}
	for hi < len(line)-1 && line[hi+1].bounds.Min.X-line[hi].bounds.Max.X <= maxGap {
		hi++
	}
	return line[lo : hi+1]
}

// readDigits matches every digit cell of the cluster and returns the digit
// string, the mean match score, and the cluster height in pixels.
func readDigits(mask [][]bool, cluster []component) (text string, score float64, height int) {
	top, bottom := cluster[0].bounds.Min.Y, cluster[0].bounds.Max.Y
	total, cells := 0.0, 0

	for _, c := range cluster {
		top = minInt(top, c.bounds.Min.Y)
		bottom = maxInt(bottom, c.bounds.Max.Y)

		w, h := c.width(), c.height()
		n := int(math.Round(float64(w) / (float64(h) * glyphAspect)))
		if n < 1 {
			n = 1
		}
		if n > maxDigitsPerBlob {
			n = maxDigitsPerBlob
		}

		for i := 0; i < n; i++ {
			x0 := c.bounds.Min.X + i*w/n
			x1 := c.bounds.Min.X + (i+1)*w/n
			d, s := matchDigit(mask, x0, c.bounds.Min.Y, x1-x0, h)
			text += strconv.Itoa(d)
			total += s
			cells++
		}
	}

	return text, total / float64(cells), bottom - top
}

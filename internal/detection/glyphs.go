package detection

// digitGlyphs is a 3x5 pixel font for the stack-count digits. The HUD renders
// counts in a blocky bitmap face, so scaled versions of these shapes are what
// shows up in the bottom-right corner of a slot.
var digitGlyphs = [10][5]string{
	{"111", "101", "101", "101", "111"}, // 0
	{"010", "110", "010", "010", "111"}, // 1
	{"111", "001", "111", "100", "111"}, // 2
	{"111", "001", "111", "001", "111"}, // 3
	{"101", "101", "111", "001", "001"}, // 4
	{"111", "100", "111", "001", "111"}, // 5
	{"111", "100", "111", "101", "111"}, // 6
	{"111", "001", "001", "001", "001"}, // 7
	{"111", "101", "111", "101", "111"}, // 8
	{"111", "101", "111", "001", "111"}, // 9
}

const (
	glyphCols = 3
	glyphRows = 5

	// glyphAspect is width/height of one digit cell.
	glyphAspect = float64(glyphCols) / float64(glyphRows)
)

// matchDigit resamples a digit cell of the mask onto the 3x5 glyph grid and
// returns the closest digit together with a 0-1 similarity score (1 minus the
// Hamming distance over 15 cells).
//
// x, y, w, h are in mask coordinates. A glyph cell counts as ink when at least
// half of the pixels it covers are on.
func matchDigit(mask [][]bool, x, y, w, h int) (digit int, score float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}

	var sample [glyphRows][glyphCols]bool
	for gy := 0; gy < glyphRows; gy++ {
		y1 := y + gy*h/glyphRows
		y2 := y + (gy+1)*h/glyphRows
		if y2 == y1 {
			y2 = y1 + 1
		}
		for gx := 0; gx < glyphCols; gx++ {
			x1 := x + gx*w/glyphCols
			x2 := x + (gx+1)*w/glyphCols
			if x2 == x1 {
				x2 = x1 + 1
			}
			on, total := 0, 0
			for py := y1; py < y2 && py < len(mask); py++ {
				for px := x1; px < x2 && px < len(mask[py]); px++ {
					if mask[py][px] {
						on++
					}
					total++
				}
			}
			sample[gy][gx] = total > 0 && on*2 >= total
		}
	}

	best, bestDist := 0, glyphRows*glyphCols+1
	for d, glyph := range digitGlyphs {
		dist := 0
		for gy, row := range glyph {
			for gx, cell := range row {
				if (cell == '1') != sample[gy][gx] {
					dist++
				}
			}
		}
		if dist < bestDist {
			best, bestDist = d, dist
		}
	}

	return best, 1 - float64(bestDist)/float64(glyphRows*glyphCols)
}

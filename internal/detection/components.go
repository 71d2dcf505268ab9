package detection

import "image"

// component is a connected group of on pixels in a mask.
type component struct {
	points []image.Point
	bounds image.Rectangle // Max is exclusive
}

func (c component) width() int  { return c.bounds.Dx() }
func (c component) height() int { return c.bounds.Dy() }

// findComponents groups on pixels of mask into 8-connected components.
//
// Components with fewer than minPixels pixels are discarded as noise. The
// result is ordered by the position of each component's first pixel in
// row-major scan order.
func findComponents(mask [][]bool, minPixels int) []component {
	height := len(mask)
	if height == 0 {
		return nil
	}
	width := len(mask[0])

	visited := make([][]bool, height)
	for y := range visited {
		visited[y] = make([]bool, width)
	}

	var comps []component
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask[y][x] && !visited[y][x] {
				points := floodFill(mask, visited, x, y, width, height)
				if len(points) >= minPixels {
					comps = append(comps, component{points: points, bounds: boundsOf(points)})
				}
			}
		}
	}
	return comps
}

// floodFill performs an iterative 8-connected flood fill from (startX, startY),
// marking visited pixels and returning the pixels reached.
//
// A slice is used as an explicit stack so large blobs cannot overflow the
// goroutine stack.
func floodFill(mask, visited [][]bool, startX, startY, width, height int) []image.Point {
	var points []image.Point
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !mask[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		points = append(points, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return points
}

func boundsOf(points []image.Point) image.Rectangle {
	r := image.Rectangle{Min: points[0], Max: points[0].Add(image.Pt(1, 1))}
	for _, p := range points[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

// verticalOverlap returns how many rows a and b share.
func verticalOverlap(a, b image.Rectangle) int {
	top := maxInt(a.Min.Y, b.Min.Y)
	bottom := minInt(a.Max.Y, b.Max.Y)
	if bottom <= top {
		return 0
	}
	return bottom - top
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

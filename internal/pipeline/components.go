package pipeline

// LargestEnergyComponent restricts a mask to the connected component with
// the highest total integrated score. Ranking by integrated energy rather
// than peak value favors a diffuse glow blob over a tiny specular glint on
// glass, which is bright but carries little total energy.
//
// score has one value per pixel; negative values are clamped to zero.
// Components below minArea are ignored. Components whose bounding box is
// thinner than 1:streakAspect and smaller than streakMaxArea are skipped as
// edge-reflection streaks. If every component is filtered out, the original
// mask is returned unchanged (fail open, never erase the result).
func LargestEnergyComponent(mask *Mask, score []float32, minArea int, streakAspect float64, streakMaxArea int) *Mask {
	w, h := mask.Width, mask.Height
	labels := make([]int32, w*h)

	type component struct {
		label  int32
		area   int
		energy float64
	}

	var comps []component
	next := int32(0)
	queue := make([]int32, 0, 256)

	for start := 0; start < w*h; start++ {
		if mask.Pix[start] != maskOn || labels[start] != 0 {
			continue
		}
		next++
		minX, minY := start%w, start/w
		maxX, maxY := minX, minY
		c := component{label: next}

		// 4-connected flood fill.
		labels[start] = next
		queue = append(queue[:0], int32(start))
		for len(queue) > 0 {
			idx := int(queue[len(queue)-1])
			queue = queue[:len(queue)-1]
			px, py := idx%w, idx/w

			c.area++
			if s := score[idx]; s > 0 {
				c.energy += float64(s)
			}
			if px < minX {
				minX = px
			}
			if px > maxX {
				maxX = px
			}
			if py < minY {
				minY = py
			}
			if py > maxY {
				maxY = py
			}

			for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
				nx, ny := px+d[0], py+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				n := ny*w + nx
				if mask.Pix[n] == maskOn && labels[n] == 0 {
					labels[n] = next
					queue = append(queue, int32(n))
				}
			}
		}

		if c.area < minArea {
			continue
		}
		hSpan, wSpan := maxY-minY+1, maxX-minX+1
		long, short := hSpan, wSpan
		if wSpan > hSpan {
			long, short = wSpan, hSpan
		}
		if short < 1 {
			short = 1
		}
		if float64(long)/float64(short) > streakAspect && c.area < streakMaxArea {
			continue // thin edge reflection
		}
		comps = append(comps, c)
	}

	if next <= 1 || len(comps) == 0 {
		return mask
	}

	best := comps[0]
	for _, c := range comps[1:] {
		if c.energy > best.energy {
			best = c
		}
	}

	out := NewMask(w, h)
	for i, l := range labels {
		if l == best.label {
			out.Pix[i] = maskOn
		}
	}
	return out
}

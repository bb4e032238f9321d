package tui

import (
	"math"
	"strings"

	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/sim"
)

var glyphs = map[particles.Category]rune{
	particles.Filler:  '░',
	particles.Linker:  '∘',
	particles.Builder: '●',
}

// canvas is a fixed-size rune grid.
type canvas struct {
	w, h  int
	cells [][]rune
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.clear()
	return c
}

func (c *canvas) clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *canvas) set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y][x] = r
	}
}

func (c *canvas) get(x, y int) rune {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		return c.cells[y][x]
	}
	return 0
}

func (c *canvas) line(x1, y1, x2, y2 int, r rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *canvas) rows() []string {
	out := make([]string, c.h)
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

func (c *canvas) String() string {
	return strings.Join(c.rows(), "\n")
}

// projector maps the x/z plane onto the canvas. Terminal cells are about
// twice as tall as wide, so x is stretched.
type projector struct {
	w, h   int
	radius float64
}

func (p projector) point(x, z float64) (int, int) {
	cx := float64(p.w-1) / 2
	cy := float64(p.h-1) / 2
	scaleY := cy / p.radius
	scaleX := math.Min(cx/p.radius, 2*scaleY)
	return int(math.Round(cx + x*scaleX)), int(math.Round(cy + z*scaleY))
}

// drawTopDown renders the wall, bonds, agents and mixer seen from above.
// Builders are drawn last so they stay visible in dense dough.
func drawTopDown(c *canvas, s sim.Snapshot) {
	p := projector{w: c.w, h: c.h, radius: s.Container.Radius * 1.05}

	for i := 0; i < 96; i++ {
		a := 2 * math.Pi * float64(i) / 96
		x, y := p.point(s.Container.Radius*math.Cos(a), s.Container.Radius*math.Sin(a))
		c.set(x, y, '·')
	}

	for _, b := range s.Bonds {
		pa, pb := s.Positions[b.A], s.Positions[b.B]
		x1, y1 := p.point(pa.X, pa.Z)
		x2, y2 := p.point(pb.X, pb.Z)
		c.line(x1, y1, x2, y2, '─')
	}

	for _, cat := range []particles.Category{particles.Filler, particles.Linker, particles.Builder} {
		for i, pos := range s.Positions {
			if s.Categories[i] != cat {
				continue
			}
			x, y := p.point(pos.X, pos.Z)
			c.set(x, y, glyphs[cat])
		}
	}

	if s.MixerOn {
		x, y := p.point(s.Mixer.X, s.Mixer.Z)
		c.set(x, y, '◎')
	}
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	if len(data) > width {
		data = data[len(data)-width:]
	}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	var sb strings.Builder
	for _, v := range data {
		idx := int((v - minVal) / rang * 7)
		idx = max(0, min(idx, 7))
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

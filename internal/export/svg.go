package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/glutensim/internal/particles"
	"github.com/san-kum/glutensim/internal/sim"
)

// View picks the projection plane.
type View int

const (
	TopView  View = iota // x/z, looking down the rod
	SideView             // x/y, floor at the bottom
)

var categoryColors = map[particles.Category]string{
	particles.Filler:  "#c8b48a",
	particles.Linker:  "#5fd7ff",
	particles.Builder: "#ff5f87",
}

// SnapshotToSVG draws agents, bonds, the container and the mixer in a
// size x size image. Agent circles use their true radius.
func SnapshotToSVG(s sim.Snapshot, size int, view View) string {
	c := s.Container
	half := c.Radius * 1.1
	scale := float64(size) / (2 * half)

	var minV, maxV float64
	if view == SideView {
		minV, maxV = c.Floor-0.1, c.Lid+0.1
		scale = min(scale, float64(size)/(maxV-minV))
	}

	// project maps world coordinates to pixels.
	project := func(i int) (float64, float64) {
		p := s.Positions[i]
		x := (p.X + half) * scale
		if view == SideView {
			return x, (maxV - p.Y) * scale
		}
		return x, (p.Z + half) * scale
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, size, size, size, size))

	if view == SideView {
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#444"/>
`, (half-c.Radius)*scale, (maxV-c.Lid)*scale, 2*c.Radius*scale, (c.Lid-c.Floor)*scale))
	} else {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#444"/>
`, half*scale, half*scale, c.Radius*scale))
	}

	sb.WriteString(`<g stroke="#aaa" stroke-width="0.6">` + "\n")
	for _, b := range s.Bonds {
		x1, y1 := project(b.A)
		x2, y2 := project(b.B)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>
`, x1, y1, x2, y2))
	}
	sb.WriteString("</g>\n")

	for _, cat := range []particles.Category{particles.Filler, particles.Linker, particles.Builder} {
		r := cat.Traits().Radius * scale
		sb.WriteString(fmt.Sprintf(`<g fill="%s">`+"\n", categoryColors[cat]))
		for i := range s.Positions {
			if s.Categories[i] != cat {
				continue
			}
			x, y := project(i)
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, x, y, r))
		}
		sb.WriteString("</g>\n")
	}

	if s.MixerOn {
		mx := (s.Mixer.X + half) * scale
		if view == SideView {
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="0" x2="%.1f" y2="%d" stroke="#ffd75f" stroke-width="2"/>
`, mx, mx, size))
		} else {
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#ffd75f" stroke-width="2"/>
`, mx, (s.Mixer.Z+half)*scale, 0.1*scale))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SeriesToSVG draws y against x as a polyline scaled to fill the image
// with 10% padding.
func SeriesToSVG(x, y []float64, width, height int, strokeColor string) string {
	if len(x) < 2 || len(x) != len(y) {
		return ""
	}

	minX, maxX := x[0], x[0]
	minY, maxY := y[0], y[0]
	for i := range x {
		minX, maxX = min(minX, x[i]), max(maxX, x[i])
		minY, maxY = min(minY, y[i]), max(maxY, y[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i := range x {
		px := (x[i] - minX) / rangeX * float64(width)
		py := float64(height) - (y[i]-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", px, py))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px, py))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

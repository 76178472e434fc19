package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
	c    [][]string
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	c := make([][]string, h)
	for i := range m {
		m[i] = make([]uint8, w)
		c[i] = make([]string, w)
	}
	return &brailleBuf{w: w, h: h, m: m, c: c}
}

// dot bits indexed by [column][row] within a 2x4 cell
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setPixel sets a micro-pixel at micro coords (2x4 per cell). The cell takes
// the color of its last writer.
func (b *brailleBuf) setPixel(mx, my int, color string) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= brailleBits[mx%2][my%4]
	if color != "" {
		b.c[cy][cx] = color
	}
}

// drawLineMicro draws a line on the microgrid using Bresenham
func (b *brailleBuf) drawLineMicro(x0, y0, x1, y1 int, color string) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setPixel(x0, y0, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// toLines renders each row, coloring runs of cells that share a color.
func (b *brailleBuf) toLines() []string {
	out := make([]string, b.h)
	for y := 0; y < b.h; y++ {
		var sb strings.Builder
		run := make([]rune, 0, b.w)
		runColor := ""
		flush := func() {
			if len(run) == 0 {
				return
			}
			if runColor == "" {
				sb.WriteString(string(run))
			} else {
				sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(runColor)).Render(string(run)))
			}
			run = run[:0]
		}
		for x := 0; x < b.w; x++ {
			mask := b.m[y][x]
			r, color := ' ', ""
			if mask != 0 {
				r, color = rune(0x2800+int(mask)), b.c[y][x]
			}
			if color != runColor {
				flush()
				runColor = color
			}
			run = append(run, r)
		}
		flush()
		out[y] = sb.String()
	}
	return out
}

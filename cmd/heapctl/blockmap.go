package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/joshuapare/heapkit/heap"
)

// Color palette
var (
	usedColor   = lipgloss.Color("#7D56F4")
	freeColor   = lipgloss.Color("#04B575")
	mutedColor  = lipgloss.Color("#666666")
	borderColor = lipgloss.Color("#383838")
)

const barWidth = 32

type mapStyles struct {
	box   lipgloss.Style
	title lipgloss.Style
	used  lipgloss.Style
	free  lipgloss.Style
	muted lipgloss.Style
}

func newMapStyles(plain bool) mapStyles {
	if plain {
		return mapStyles{
			box:   lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
			title: lipgloss.NewStyle(),
			used:  lipgloss.NewStyle(),
			free:  lipgloss.NewStyle(),
			muted: lipgloss.NewStyle(),
		}
	}
	return mapStyles{
		box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1),
		title: lipgloss.NewStyle().Bold(true).Foreground(usedColor),
		used:  lipgloss.NewStyle().Foreground(usedColor),
		free:  lipgloss.NewStyle().Foreground(freeColor),
		muted: lipgloss.NewStyle().Foreground(mutedColor),
	}
}

// renderBlockMap draws one row per block in chain order. Bars are scaled to
// the largest block; a break in address continuity is marked as a gap.
func renderBlockMap(blocks []heap.BlockInfo, names map[heap.Ptr]string, plain bool) string {
	st := newMapStyles(plain)

	largest := 1
	for _, b := range blocks {
		largest = max(largest, b.Capacity)
	}

	var sb strings.Builder
	sb.WriteString(st.title.Render(fmt.Sprintf("Block map (%d blocks)", len(blocks))))
	var prevEnd uintptr
	for i, b := range blocks {
		if i > 0 && b.Addr != prevEnd {
			sb.WriteString("\n")
			sb.WriteString(st.muted.Render(fmt.Sprintf("  ... gap %#x-%#x", prevEnd, b.Addr)))
		}
		prevEnd = b.Addr + heap.HeaderSize + uintptr(b.Capacity)

		state, style, glyph := "used", st.used, "█"
		if b.Free {
			state, style, glyph = "free", st.free, "░"
		}
		n := max(1, b.Capacity*barWidth/largest)
		row := fmt.Sprintf("%#014x  %-4s  %10s  %-*s  %s",
			b.Addr, state, formatNumber(int64(b.Capacity)), barWidth, strings.Repeat(glyph, n), names[b.Payload])

		sb.WriteString("\n")
		sb.WriteString(style.Render(strings.TrimRight(row, " ")))
	}
	return st.box.Render(sb.String())
}

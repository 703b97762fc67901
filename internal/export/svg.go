// Package export renders stored runs for use outside the terminal.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/swervesim/internal/sim"
)

var ErrTooShort = errors.New("export: need at least two samples")

// Series is one polyline over a shared time axis.
type Series struct {
	Name   string
	Stroke string
	Values []float64
}

// HeadingSeries returns commanded and measured heading of a run, in degrees.
func HeadingSeries(samples []sim.Sample) (times []float64, series []Series) {
	times = make([]float64, len(samples))
	command := make([]float64, len(samples))
	heading := make([]float64, len(samples))
	for i, s := range samples {
		times[i] = s.Time
		command[i] = s.CommandDeg
		heading[i] = s.HeadingDeg
	}
	return times, []Series{
		{Name: "command", Stroke: "#ff5fd7", Values: command},
		{Name: "heading", Stroke: "#5fd7d7", Values: heading},
	}
}

// TracesToSVG plots every series against times on one set of axes.
func TracesToSVG(w io.Writer, times []float64, series []Series, width, height int) error {
	if len(times) < 2 {
		return ErrTooShort
	}
	for _, s := range series {
		if len(s.Values) != len(times) {
			return fmt.Errorf("export: series %s has %d points, want %d", s.Name, len(s.Values), len(times))
		}
	}

	minX, maxX := times[0], times[len(times)-1]
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, v := range s.Values {
			minY = math.Min(minY, v)
			maxY = math.Max(maxY, v)
		}
	}
	if len(series) == 0 {
		minY, maxY = 0, 1
	}

	// zero line only when the data itself straddles zero
	lo, hi := minY, maxY

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	if lo < 0 && hi > 0 {
		y0 := float64(height) - (0-minY)/rangeY*float64(height)
		sb.WriteString(fmt.Sprintf(`<line x1="0" y1="%.1f" x2="%d" y2="%.1f" stroke="#444" stroke-dasharray="4 4"/>
`, y0, width, y0))
	}

	for _, s := range series {
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, s.Stroke))
		for i, v := range s.Values {
			x := (times[i] - minX) / rangeX * float64(width)
			y := float64(height) - (v-minY)/rangeY*float64(height)
			if i == 0 {
				sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
			} else {
				sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
			}
		}
		sb.WriteString(fmt.Sprintf("\"><title>%s</title></path>\n", s.Name))
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

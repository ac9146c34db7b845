package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/verte-zerg/procap/internal/model"
	"github.com/verte-zerg/procap/internal/normal"
)

// Curve is a Normal density drawn on a plot.
type Curve struct {
	Name string
	Mean float64
	Std  float64
}

// Marker is a vertical reference line such as a spec limit.
type Marker struct {
	Label string
	X     float64
}

// PlotOptions configures PlotDistributions.
type PlotOptions struct {
	Title      string
	Bounds     model.ViewportBounds
	Curves     []Curve
	Markers    []Marker
	Histogram  *model.Histogram
	Width      int
	Height     int
	ForceColor bool
}

type lineStyle struct {
	name   string
	period int
	on     int
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 10
	minPlotWidth        = 10
	axisLabelWidth      = 7
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	markerColor         = "\x1b[31m"
	terminalWidthBackup = 80
)

var lineStyles = []lineStyle{
	{name: "solid", period: 1, on: 1},
	{name: "dashed", period: 6, on: 3},
	{name: "dotted", period: 4, on: 1},
	{name: "dashdot", period: 8, on: 3},
}

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
	{name: "blue", code: "\x1b[34m"},
}

// PlotDistributions renders Normal density curves, an optional histogram
// overlay and vertical markers across opts.Bounds as a braille plot.
// All layers share one density scale.
func PlotDistributions(w io.Writer, opts PlotOptions) error {
	curves := filterCurves(opts.Curves)
	hist := opts.Histogram
	if hist != nil && len(hist.Bins) == 0 {
		hist = nil
	}
	if len(curves) == 0 && hist == nil {
		return nil
	}
	lo, hi := opts.Bounds.DisplayMin, opts.Bounds.DisplayMax
	if !(hi > lo) {
		return fmt.Errorf("invalid plot bounds %v..%v", lo, hi)
	}

	height := opts.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := opts.Width
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}
	dotsX := width * 2
	dotsY := height * 4
	xAt := func(px int) float64 {
		return lo + (hi-lo)*float64(px)/float64(dotsX-1)
	}

	densities := make([][]float64, 0, len(curves)+1)
	for _, c := range curves {
		values := make([]float64, dotsX)
		for px := range values {
			values[px] = normal.PDF(xAt(px), c.Mean, c.Std)
		}
		densities = append(densities, values)
	}
	var histValues []float64
	if hist != nil {
		histValues = make([]float64, dotsX)
		for px := range histValues {
			histValues[px] = histogramDensity(*hist, xAt(px))
		}
	}
	yMax := 0.0
	for _, values := range append(densities, histValues) {
		for _, v := range values {
			yMax = math.Max(yMax, v)
		}
	}
	if yMax <= 0 {
		yMax = 1
	}

	layers := make([][][]uint8, 0, len(densities)+2)
	for si, values := range densities {
		cells := makeCells(height, width)
		style := lineStyles[si%len(lineStyles)]
		prevX, prevY := -1, -1
		for px, v := range values {
			py := valueToRow(v, 0, yMax, dotsY)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if style.shouldPlot(dx) {
						setBrailleDot(cells, dx, dy)
					}
				})
			} else if style.shouldPlot(px) {
				setBrailleDot(cells, px, py)
			}
			prevX, prevY = px, py
		}
		layers = append(layers, cells)
	}
	if histValues != nil {
		cells := makeCells(height, width)
		for px, v := range histValues {
			if v <= 0 {
				continue
			}
			setBrailleDot(cells, px, valueToRow(v, 0, yMax, dotsY))
		}
		layers = append(layers, cells)
	}
	markerLayer := -1
	if len(opts.Markers) > 0 {
		cells := makeCells(height, width)
		for _, mk := range opts.Markers {
			if math.IsNaN(mk.X) || mk.X < lo || mk.X > hi {
				continue
			}
			px := int(math.Round((mk.X - lo) / (hi - lo) * float64(dotsX-1)))
			for py := 0; py < dotsY; py += 2 {
				setBrailleDot(cells, px, py)
			}
		}
		markerLayer = len(layers)
		layers = append(layers, cells)
	}

	useColor := shouldUseColor(w, opts.ForceColor)
	axisLabels := makeAxisLabels(height, yMax)

	if opts.Title != "" {
		if _, err := fmt.Fprintln(w, opts.Title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", axisLabelWidth, axisLabels[y], axisSeparator)
		for x := 0; x < width; x++ {
			mask, layerIdx := composeCell(layers, x, y)
			ch := brailleFromMask(mask)
			switch {
			case !useColor || layerIdx < 0:
				row.WriteRune(ch)
			case layerIdx == markerLayer:
				row.WriteString(markerColor)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			default:
				row.WriteString(colorPalette[layerIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	indent := strings.Repeat(" ", axisLabelWidth+utf8.RuneCountInString(axisSeparator))
	if _, err := fmt.Fprintln(w, indent+xAxisLine(lo, hi, width)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, renderLegend(curves, hist != nil, opts.Markers, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func filterCurves(curves []Curve) []Curve {
	out := make([]Curve, 0, len(curves))
	for _, c := range curves {
		if !ValidParams(c.Mean, c.Std, 0, 1) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// histogramDensity returns the histogram's probability density at x.
func histogramDensity(h model.Histogram, x float64) float64 {
	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	if total == 0 || x < h.Min || x > h.Max {
		return 0
	}
	for i, b := range h.Bins {
		last := i == len(h.Bins)-1
		if x < b.Start || (x >= b.End && !last) {
			continue
		}
		width := b.End - b.Start
		if width <= 0 {
			return 0
		}
		return float64(b.Count) / (float64(total) * width)
	}
	return 0
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	plotWidth := totalWidth - axisLabelWidth - utf8.RuneCountInString(axisSeparator)
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, yMax float64) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = fmt.Sprintf("%.3g", yMax)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.3g", yMax/2)
	}
	if height > 1 {
		labels[height-1] = "0"
	}
	return labels
}

// xAxisLine places the min, mid and max labels under a plot of the given width.
func xAxisLine(lo, hi float64, width int) string {
	line := []rune(strings.Repeat(" ", width))
	place := func(label string, at int) {
		runes := []rune(label)
		if at+len(runes) > width {
			at = width - len(runes)
		}
		if at < 0 {
			at = 0
		}
		for i, r := range runes {
			if at+i < width {
				line[at+i] = r
			}
		}
	}
	minLabel := formatAxisValue(lo)
	midLabel := formatAxisValue((lo + hi) / 2)
	maxLabel := formatAxisValue(hi)
	place(minLabel, 0)
	if width > len(minLabel)+len(midLabel)+len(maxLabel)+2 {
		place(midLabel, width/2-len(midLabel)/2)
	}
	place(maxLabel, width-len(maxLabel))
	return strings.TrimRight(string(line), " ")
}

func formatAxisValue(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(layers [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	layerIdx := -1
	for i, cells := range layers {
		if y < 0 || y >= len(cells) {
			continue
		}
		if x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if layerIdx == -1 {
			layerIdx = i
		}
		mask |= cellMask
	}
	return mask, layerIdx
}

func (ls lineStyle) shouldPlot(x int) bool {
	if ls.period <= 1 {
		return true
	}
	if x < 0 {
		x = -x
	}
	return x%ls.period < ls.on
}

func valueToRow(v, minVal, maxVal float64, height int) int {
	if height <= 1 {
		return 0
	}
	pos := (v - minVal) / (maxVal - minVal)
	row := int(math.Round((1 - pos) * float64(height-1)))
	if row < 0 {
		row = 0
	}
	if row >= height {
		row = height - 1
	}
	return row
}

func renderLegend(curves []Curve, hasHistogram bool, markers []Marker, useColor bool) string {
	parts := make([]string, 0, len(curves)+len(markers)+1)
	marker := brailleFromMask(0x01)
	for i, c := range curves {
		styleName := lineStyles[i%len(lineStyles)].name
		label := fmt.Sprintf("%c %s (%s)", marker, c.Name, styleName)
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	if hasHistogram {
		label := fmt.Sprintf("%c data", marker)
		if useColor {
			label = colorPalette[len(curves)%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	for _, mk := range markers {
		label := fmt.Sprintf("┊ %s=%s", mk.Label, formatAxisValue(mk.X))
		if useColor {
			label = markerColor + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			if x0 == x1 {
				break
			}
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				break
			}
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

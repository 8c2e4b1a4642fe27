package detection

import (
	"image"
	"io"
	"log"
	"sort"
)

// GridConfig holds the grid filter thresholds.
type GridConfig struct {
	// ClusterDistance is the largest gap, in pixels, between two line
	// coordinates that still merges them into one ruling.
	ClusterDistance int

	// TitleFraction is the fraction of image height above which horizontal
	// rulings are assumed to belong to a title row.
	TitleFraction float64

	// CellSplit is the fraction of a cell's width occupied by the printed
	// reference glyph; characters centred right of it are handwriting.
	CellSplit float64
}

// DefaultGridConfig returns the standard worksheet layout.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		ClusterDistance: 20,
		TitleFraction:   0.15,
		CellSplit:       0.45,
	}
}

// GridStructure is the set of clustered ruling coordinates, each slice
// strictly increasing.
type GridStructure struct {
	Vertical   []int `json:"vertical_lines"`
	Horizontal []int `json:"horizontal_lines"`
}

// Valid reports whether there are at least two rulings on each axis.
func (g *GridStructure) Valid() bool {
	return g != nil && len(g.Vertical) >= 2 && len(g.Horizontal) >= 2
}

// Cell is one grid compartment.
type Cell struct {
	Left, Right, Top, Bottom int
}

// Width returns the horizontal extent of the cell.
func (c Cell) Width() int {
	return c.Right - c.Left
}

// ClusterLines merges nearby coordinates. Input is de-duplicated and sorted;
// each coordinate more than threshold past the last cluster starts a new
// one, otherwise the last cluster moves to the floor of the pair's average.
func ClusterLines(coords []int, threshold int) []int {
	if len(coords) == 0 {
		return nil
	}

	seen := make(map[int]struct{}, len(coords))
	unique := make([]int, 0, len(coords))
	for _, c := range coords {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	sort.Ints(unique)

	clustered := []int{unique[0]}
	for _, c := range unique[1:] {
		last := clustered[len(clustered)-1]
		if c-last > threshold {
			clustered = append(clustered, c)
		} else {
			clustered[len(clustered)-1] = floorDiv(last+c, 2)
		}
	}
	return clustered
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// BuildGrid classifies lines by orientation and clusters each axis. It
// returns nil when fewer than two rulings survive on either axis.
func BuildGrid(lines []Line, clusterDistance int) *GridStructure {
	var vertical, horizontal []int
	for _, l := range lines {
		switch l.Orientation() {
		case Vertical:
			vertical = append(vertical, l.Coordinate())
		case Horizontal:
			horizontal = append(horizontal, l.Coordinate())
		}
	}

	g := &GridStructure{
		Vertical:   ClusterLines(vertical, clusterDistance),
		Horizontal: ClusterLines(horizontal, clusterDistance),
	}
	if !g.Valid() {
		return nil
	}
	return g
}

// FindCell brackets (x, y) between rulings. On each axis the low side is the
// last line <= the coordinate and the high side the first line >= it, so a
// point exactly on a ruling has a zero-width side. ok is false when either
// axis cannot be bracketed.
func FindCell(x, y float64, g *GridStructure) (Cell, bool) {
	left, right, okX := bracket(x, g.Vertical)
	top, bottom, okY := bracket(y, g.Horizontal)
	if !okX || !okY {
		return Cell{}, false
	}
	return Cell{Left: left, Right: right, Top: top, Bottom: bottom}, true
}

func bracket(v float64, lines []int) (low, high int, ok bool) {
	haveLow := false
	for _, l := range lines {
		if float64(l) <= v {
			low, haveLow = l, true
		}
		if float64(l) >= v {
			return low, l, haveLow
		}
	}
	return 0, 0, false
}

// GridLocator keeps only characters written in the student half of ruled
// worksheet cells.
type GridLocator struct {
	cfg    GridConfig
	logger *log.Logger
}

// NewGridLocator creates a grid locator. A nil logger discards output.
func NewGridLocator(cfg GridConfig, logger *log.Logger) *GridLocator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &GridLocator{cfg: cfg, logger: logger}
}

// Detect finds the ruling grid of img, or nil when there is none.
func (g *GridLocator) Detect(img image.Image) (*GridStructure, error) {
	lines, err := DetectLines(img)
	if err != nil {
		return nil, err
	}
	grid := BuildGrid(lines, g.cfg.ClusterDistance)
	if grid != nil {
		g.logger.Printf("grid: %d vertical, %d horizontal rulings from %d segments",
			len(grid.Vertical), len(grid.Horizontal), len(lines))
	}
	return grid, nil
}

// Filter detects the grid and keeps boxes in the handwriting side of a cell.
// ok is false when no valid grid exists.
func (g *GridLocator) Filter(img image.Image, boxes []CharacterBox) ([]CharacterBox, bool, error) {
	grid, err := g.Detect(img)
	if err != nil {
		return nil, false, err
	}
	if grid == nil {
		return nil, false, nil
	}
	return g.FilterWithGrid(grid, img.Bounds().Dy(), boxes), true, nil
}

// FilterWithGrid applies the cell rules against a known grid on an image of
// the given height.
func (g *GridLocator) FilterWithGrid(grid *GridStructure, imageHeight int, boxes []CharacterBox) []CharacterBox {
	if !grid.Valid() {
		return nil
	}

	tableLeft := grid.Vertical[0]
	tableRight := grid.Vertical[len(grid.Vertical)-1]
	tableTop := grid.Horizontal[0]
	tableBottom := grid.Horizontal[len(grid.Horizontal)-1]

	minTop := float64(imageHeight) * g.cfg.TitleFraction
	if float64(tableTop) < minTop {
		for _, h := range grid.Horizontal {
			if float64(h) > minTop {
				tableTop = h
				break
			}
		}
	}

	kept := make([]CharacterBox, 0, len(boxes))
	for _, b := range boxes {
		c := b.Quad.Center()
		if c.X < float64(tableLeft) || c.X > float64(tableRight) ||
			c.Y < float64(tableTop) || c.Y > float64(tableBottom) {
			continue
		}

		cell, ok := FindCell(c.X, c.Y, grid)
		if !ok {
			continue
		}
		if c.X > float64(cell.Left)+float64(cell.Width())*g.cfg.CellSplit {
			b.InTable = true
			b.CellSide = "right"
			kept = append(kept, b)
		}
	}

	g.logger.Printf("grid filter kept %d of %d boxes", len(kept), len(boxes))
	return kept
}

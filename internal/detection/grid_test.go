package detection

import (
	"image"
	"image/color"
	"reflect"
	"testing"
)

// createGridImage draws a white page with dark rulings at the given
// coordinates, each line spanning from the first to the last ruling of the
// other axis.
func createGridImage(width, height int, xs, ys []int, thickness int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	black := color.Gray{Y: 0}

	for _, x := range xs {
		for y := ys[0]; y <= ys[len(ys)-1]; y++ {
			for t := 0; t < thickness; t++ {
				img.SetGray(x+t, y, black)
			}
		}
	}
	for _, y := range ys {
		for x := xs[0]; x <= xs[len(xs)-1]; x++ {
			for t := 0; t < thickness; t++ {
				img.SetGray(x, y+t, black)
			}
		}
	}
	return img
}

func TestClusterLines(t *testing.T) {
	tests := []struct {
		name      string
		coords    []int
		threshold int
		want      []int
	}{
		{"empty", nil, 20, nil},
		{"single", []int{42}, 20, []int{42}},
		{"20 apart merges", []int{100, 120}, 20, []int{110}},
		{"21 apart stays distinct", []int{100, 121}, 20, []int{100, 121}},
		{"floor average", []int{100, 101}, 20, []int{100}},
		{"duplicates and order", []int{300, 50, 52, 50, 300, 175}, 20, []int{51, 175, 300}},
		{"running average chain", []int{0, 10, 25}, 20, []int{15}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClusterLines(tt.coords, tt.threshold)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ClusterLines(%v): got %v, want %v", tt.coords, got, tt.want)
			}
		})
	}
}

func TestSegmentAngle(t *testing.T) {
	tests := []struct {
		name           string
		x1, y1, x2, y2 int
		want           Orientation
	}{
		{"vertical dx=0", 10, 0, 10, 200, Vertical},
		{"nearly vertical", 10, 0, 20, 200, Vertical},
		{"horizontal", 0, 5, 200, 5, Horizontal},
		{"nearly horizontal reversed", 200, 5, 0, 20, Horizontal},
		{"diagonal", 0, 0, 100, 100, Oblique},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewLine(tt.x1, tt.y1, tt.x2, tt.y2).Orientation(); got != tt.want {
				t.Errorf("orientation: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLineCoordinate(t *testing.T) {
	if c := NewLine(10, 0, 13, 200).Coordinate(); c != 11 {
		t.Errorf("vertical coordinate: got %d, want 11", c)
	}
	if c := NewLine(0, 40, 200, 45).Coordinate(); c != 42 {
		t.Errorf("horizontal coordinate: got %d, want 42", c)
	}
}

func TestBuildGrid(t *testing.T) {
	lines := []Line{
		NewLine(50, 0, 50, 300), NewLine(52, 0, 52, 300),
		NewLine(200, 0, 200, 300),
		NewLine(0, 40, 300, 40), NewLine(0, 140, 300, 141),
		NewLine(0, 0, 100, 100),
	}
	g := BuildGrid(lines, 20)
	if g == nil {
		t.Fatal("expected a grid")
	}
	if !reflect.DeepEqual(g.Vertical, []int{51, 200}) {
		t.Errorf("vertical: got %v", g.Vertical)
	}
	if !reflect.DeepEqual(g.Horizontal, []int{40, 140}) {
		t.Errorf("horizontal: got %v", g.Horizontal)
	}

	if BuildGrid(lines[:3], 20) != nil {
		t.Error("grid without horizontal rulings should be nil")
	}
}

func TestFindCell(t *testing.T) {
	g := &GridStructure{Vertical: []int{100, 200, 300}, Horizontal: []int{50, 150}}

	tests := []struct {
		name   string
		x, y   float64
		want   Cell
		wantOK bool
	}{
		{"inside first cell", 150, 100, Cell{100, 200, 50, 150}, true},
		{"inside second cell", 250, 60, Cell{200, 300, 50, 150}, true},
		{"on a ruling", 200, 100, Cell{200, 200, 50, 150}, true},
		{"left of grid", 50, 100, Cell{}, false},
		{"right of grid", 350, 100, Cell{}, false},
		{"below grid", 150, 200, Cell{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindCell(tt.x, tt.y, g)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("FindCell(%v,%v): got %+v,%v want %+v,%v", tt.x, tt.y, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestFilterWithGrid(t *testing.T) {
	loc := NewGridLocator(DefaultGridConfig(), nil)
	grid := &GridStructure{
		Vertical:   []int{100, 300, 500},
		Horizontal: []int{20, 200, 400},
	}

	box := func(text string, cx, cy int) CharacterBox {
		return CharacterBox{Text: text, Quad: QuadFromRect(image.Rect(cx-10, cy-10, cx+10, cy+10))}
	}
	boxes := []CharacterBox{
		box("printed", 150, 300),  // left 45% of the cell
		box("written", 250, 300),  // right side
		box("edge", 190, 300),     // exactly at the split: not strictly right
		box("title", 250, 100),    // above the title cut at 15% of height
		box("outside", 600, 300),  // outside table
		box("written2", 450, 250), // right side of second cell
	}

	kept := loc.FilterWithGrid(grid, 1000, boxes)
	var names []string
	for _, b := range kept {
		names = append(names, b.Text)
		if !b.InTable || b.CellSide != "right" {
			t.Errorf("kept box %q not tagged: %+v", b.Text, b)
		}
	}
	if !reflect.DeepEqual(names, []string{"written", "written2"}) {
		t.Errorf("kept %v, want [written written2]", names)
	}
}

func TestGridLocator_SyntheticGrid(t *testing.T) {
	img := createGridImage(420, 420, []int{50, 200, 350}, []int{50, 200, 350}, 2)

	grid, err := NewGridLocator(DefaultGridConfig(), nil).Detect(img)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if grid == nil {
		t.Fatal("expected a grid")
	}
	if len(grid.Vertical) != 3 || len(grid.Horizontal) != 3 {
		t.Errorf("expected 3+3 rulings, got %v / %v", grid.Vertical, grid.Horizontal)
	}
}

func TestGridLocator_NoGrid(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 255
	}

	kept, ok, err := NewGridLocator(DefaultGridConfig(), nil).Filter(img, []CharacterBox{{Text: "x"}})
	if err != nil {
		t.Fatalf("Filter failed: %v", err)
	}
	if ok || kept != nil {
		t.Errorf("blank page should report no grid, got ok=%v kept=%v", ok, kept)
	}
}

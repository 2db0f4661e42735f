package geometry

import (
	"errors"
	"math"
	"testing"
)

func TestRasterize_Rectangle(t *testing.T) {
	m, err := Rasterize(RectPolygon(15, 15, 35, 35), 100, 100)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if m.Count() != 400 {
		t.Errorf("Count: got %d, want 400", m.Count())
	}

	tests := []struct {
		col, row int
		want     bool
	}{
		{15, 15, true},
		{34, 34, true},
		{35, 34, false},
		{34, 35, false},
		{14, 20, false},
		{25, 25, true},
	}
	for _, tt := range tests {
		if got := m.At(tt.col, tt.row); got != tt.want {
			t.Errorf("At(%d,%d): got %v, want %v", tt.col, tt.row, got, tt.want)
		}
	}
}

func TestRasterize_Triangle(t *testing.T) {
	// Right triangle with legs of 10 pixels; centres strictly below the
	// hypotenuse x+y < 10 are inside.
	tri := Polygon{{0, 0}, {10, 0}, {0, 10}}
	m, err := Rasterize(tri, 10, 10)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	want := 0
	for row := 0; row < 10; row++ {
		for col := 0; col < 10; col++ {
			if float64(col)+0.5+float64(row)+0.5 < 10 {
				want++
			}
		}
	}
	if m.Count() != want {
		t.Errorf("Count: got %d, want %d", m.Count(), want)
	}
	if !m.At(0, 0) || m.At(9, 9) {
		t.Error("triangle corners filled incorrectly")
	}
}

func TestRasterize_ClipsOutsideRaster(t *testing.T) {
	m, err := Rasterize(RectPolygon(-5, -5, 3, 2), 10, 10)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if m.Count() != 6 {
		t.Errorf("Count: got %d, want 6", m.Count())
	}

	outside, err := Rasterize(RectPolygon(20, 20, 30, 30), 10, 10)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if outside.Any() {
		t.Error("polygon outside raster should produce an empty mask")
	}
}

func TestRasterize_HugeCoordinates(t *testing.T) {
	huge := Polygon{{X: -1e20, Y: -1e20}, {X: 1e20, Y: -1e20}, {X: 1e20, Y: 1e20}, {X: -1e20, Y: 1e20}}
	m, err := Rasterize(huge, 10, 10)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if m.Count() != 100 {
		t.Errorf("Count: got %d, want 100", m.Count())
	}
}

func TestRasterize_SelfIntersectingEvenOdd(t *testing.T) {
	// Bow-tie: two triangles meeting at (5,5). Both lobes are filled.
	bow := Polygon{{0, 0}, {10, 10}, {10, 0}, {0, 10}}
	m, err := Rasterize(bow, 10, 10)
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	if !m.At(9, 5) || !m.At(0, 5) {
		t.Error("bow-tie side lobes should be filled")
	}
	if m.At(5, 0) || m.At(5, 9) {
		t.Error("bow-tie top and bottom should be empty")
	}
}

func TestRasterize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		p    Polygon
	}{
		{"nil", nil},
		{"two points", Polygon{{0, 0}, {5, 5}}},
		{"NaN vertex", Polygon{{0, 0}, {math.NaN(), 5}, {5, 0}}},
		{"Inf vertex", Polygon{{0, 0}, {math.Inf(1), 5}, {5, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rasterize(tt.p, 10, 10)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("got %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestRasterize_DoesNotMutatePolygon(t *testing.T) {
	p := Polygon{{3, 1}, {1, 8}, {8, 8}}
	orig := append(Polygon(nil), p...)
	if _, err := Rasterize(p, 10, 10); err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}
	for i := range p {
		if p[i] != orig[i] {
			t.Errorf("vertex %d changed: got %v, want %v", i, p[i], orig[i])
		}
	}
}

func TestPolygon_Area(t *testing.T) {
	if a := RectPolygon(0, 0, 4, 3).Area(); a != 12 {
		t.Errorf("rectangle area: got %f, want 12", a)
	}
	if a := (Polygon{{0, 0}, {1, 1}}).Area(); a != 0 {
		t.Errorf("degenerate area: got %f, want 0", a)
	}
}

func TestPolygon_Bounds(t *testing.T) {
	min, max := Polygon{{3, 9}, {-1, 2}, {7, 4}}.Bounds()
	if min != (Point{-1, 2}) || max != (Point{7, 9}) {
		t.Errorf("Bounds: got %v-%v, want {-1 2}-{7 9}", min, max)
	}
}

func TestLine_Length(t *testing.T) {
	l := Line{A: Point{0, 0}, B: Point{3, 4}}
	if l.Length() != 5 {
		t.Errorf("Length: got %f, want 5", l.Length())
	}
}

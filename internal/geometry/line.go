package geometry

// Line is a reference segment drawn over the image, used to calibrate the
// physical scale of a photograph.
type Line struct {
	A Point `json:"a"`
	B Point `json:"b"`
}

// Length returns the segment length in pixels.
func (l Line) Length() float64 {
	return l.A.Distance(l.B)
}

// RectPolygon returns the axis-aligned rectangle with corners (x1,y1) and
// (x2,y2) as a clockwise polygon.
func RectPolygon(x1, y1, x2, y2 float64) Polygon {
	return Polygon{
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
	}
}

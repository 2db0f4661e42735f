package measure

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
)

// Totals sums the additive columns of a region table.
type Totals struct {
	Area              int     `json:"area_px"`
	Perimeter         float64 `json:"perimeter_px"`
	PhysicalArea      float64 `json:"physical_area"`
	PhysicalPerimeter float64 `json:"physical_perimeter"`
}

// Table is the region report for one label field.
type Table struct {
	Scale   float64  `json:"scale"`
	Records []Record `json:"records"`
	Totals  Totals   `json:"totals"`
}

// NewTable builds a table from measured records.
func NewTable(records []Record, scale float64) *Table {
	t := &Table{Scale: scale, Records: records}
	for _, r := range records {
		t.Totals.Area += r.Area
		t.Totals.Perimeter += r.Perimeter
		t.Totals.PhysicalArea += r.PhysicalArea
		t.Totals.PhysicalPerimeter += r.PhysicalPerimeter
	}
	return t
}

// Round returns a copy of the table with every float rounded to two
// decimals, for display.
func (t *Table) Round() *Table {
	out := &Table{Scale: t.Scale, Records: make([]Record, len(t.Records))}
	for i, r := range t.Records {
		r.CentroidRow = round2(r.CentroidRow)
		r.CentroidCol = round2(r.CentroidCol)
		r.Perimeter = round2(r.Perimeter)
		r.PhysicalArea = round2(r.PhysicalArea)
		r.PhysicalPerimeter = round2(r.PhysicalPerimeter)
		out.Records[i] = r
	}
	out.Totals = Totals{
		Area:              t.Totals.Area,
		Perimeter:         round2(t.Totals.Perimeter),
		PhysicalArea:      round2(t.Totals.PhysicalArea),
		PhysicalPerimeter: round2(t.Totals.PhysicalPerimeter),
	}
	return out
}

// CSVHeader is the header row written by WriteCSV.
var CSVHeader = []string{
	"Label", "Center X(px)", "Center Y(px)", "Area(mm^2)", "Perimeter(mm)", "Area(px^2)", "Perimeter(px)",
}

// WriteCSV writes one row per region followed by a Total row. Center X is
// the centroid column and Center Y the centroid row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range t.Records {
		row := []string{
			strconv.Itoa(r.Label),
			fmt2(r.CentroidCol),
			fmt2(r.CentroidRow),
			fmt2(r.PhysicalArea),
			fmt2(r.PhysicalPerimeter),
			fmt2(float64(r.Area)),
			fmt2(r.Perimeter),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	total := []string{
		"Total", "", "",
		fmt2(t.Totals.PhysicalArea),
		fmt2(t.Totals.PhysicalPerimeter),
		fmt2(float64(t.Totals.Area)),
		fmt2(t.Totals.Perimeter),
	}
	if err := cw.Write(total); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func fmt2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

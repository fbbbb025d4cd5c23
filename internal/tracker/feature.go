package tracker

import "strconv"

// Column names one field of the feature table.
type Column string

const (
	ColFrame              Column = "frame"
	ColX                  Column = "x"
	ColY                  Column = "y"
	ColXWeighted          Column = "x_weighted"
	ColYWeighted          Column = "y_weighted"
	ColOrientation        Column = "orientation"
	ColMinorAxisLength    Column = "minor_axis_length"
	ColMajorAxisLength    Column = "major_axis_length"
	ColArea               Column = "area"
	ColEccentricity       Column = "eccentricity"
	ColEquivalentDiameter Column = "equivalent_diameter"
	ColFilledArea         Column = "filled_area"
	ColMaxIntensity       Column = "max_intensity"
	ColMeanIntensity      Column = "mean_intensity"
	ColSummedIntensity    Column = "summed_intensity"
	ColRadius             Column = "radius"
	ColClosePair          Column = "close_pair"
	ColPhi                Column = "phi"
	ColCrescentWidth      Column = "crescent_width"
	ColDirectionMeasure   Column = "direction_measure"
	ColXMin               Column = "xmin"
	ColYMin               Column = "ymin"
	ColXMax               Column = "xmax"
	ColYMax               Column = "ymax"
	ColWidth              Column = "w"
	ColHeight             Column = "h"
	ColClassIdx           Column = "class_idx"
)

// Geometry tells the overlay builder how to draw a feature.
type Geometry int

const (
	GeometryNone Geometry = iota
	// GeometryEllipse draws the equivalent ellipse and its axes.
	GeometryEllipse
	// GeometryDirectedEllipse adds a marker for the direction measure.
	GeometryDirectedEllipse
	// GeometryCircle draws a circle of the feature radius.
	GeometryCircle
	// GeometryOrientation draws a segment along phi.
	GeometryOrientation
	// GeometryBox draws the bounding rectangle.
	GeometryBox
)

// Feature is one detected particle in one frame. X is the column and Y the
// row of the particle centre. Which of the optional fields are meaningful
// depends on the detector; see Kind.Columns.
type Feature struct {
	Frame int
	X     float64
	Y     float64

	XWeighted          float64
	YWeighted          float64
	Orientation        float64
	MinorAxisLength    float64
	MajorAxisLength    float64
	Area               float64
	Eccentricity       float64
	EquivalentDiameter float64
	FilledArea         float64
	MaxIntensity       float64
	MeanIntensity      float64
	SummedIntensity    float64
	Radius             float64
	ClosePair          bool
	Phi                float64
	CrescentWidth      float64
	DirectionMeasure   float64

	// Bounding box of box detectors, in frame pixels.
	XMin     float64
	YMin     float64
	XMax     float64
	YMax     float64
	Width    float64
	Height   float64
	ClassIdx int

	Geometry Geometry
}

// Value returns column c as a number. Booleans map to 0 and 1.
func (f *Feature) Value(c Column) float64 {
	switch c {
	case ColFrame:
		return float64(f.Frame)
	case ColX:
		return f.X
	case ColY:
		return f.Y
	case ColXWeighted:
		return f.XWeighted
	case ColYWeighted:
		return f.YWeighted
	case ColOrientation:
		return f.Orientation
	case ColMinorAxisLength:
		return f.MinorAxisLength
	case ColMajorAxisLength:
		return f.MajorAxisLength
	case ColArea:
		return f.Area
	case ColEccentricity:
		return f.Eccentricity
	case ColEquivalentDiameter:
		return f.EquivalentDiameter
	case ColFilledArea:
		return f.FilledArea
	case ColMaxIntensity:
		return f.MaxIntensity
	case ColMeanIntensity:
		return f.MeanIntensity
	case ColSummedIntensity:
		return f.SummedIntensity
	case ColRadius:
		return f.Radius
	case ColClosePair:
		if f.ClosePair {
			return 1
		}
		return 0
	case ColPhi:
		return f.Phi
	case ColCrescentWidth:
		return f.CrescentWidth
	case ColDirectionMeasure:
		return f.DirectionMeasure
	case ColXMin:
		return f.XMin
	case ColYMin:
		return f.YMin
	case ColXMax:
		return f.XMax
	case ColYMax:
		return f.YMax
	case ColWidth:
		return f.Width
	case ColHeight:
		return f.Height
	case ColClassIdx:
		return float64(f.ClassIdx)
	}
	return 0
}

// Format renders column c for text output.
func (f *Feature) Format(c Column) string {
	switch c {
	case ColFrame:
		return strconv.Itoa(f.Frame)
	case ColClassIdx:
		return strconv.Itoa(f.ClassIdx)
	case ColClosePair:
		return strconv.FormatBool(f.ClosePair)
	}
	return strconv.FormatFloat(f.Value(c), 'g', -1, 64)
}

// Row returns the values of cols in order.
func (f *Feature) Row(cols []Column) []float64 {
	row := make([]float64, len(cols))
	for i, c := range cols {
		row[i] = f.Value(c)
	}
	return row
}

// Table is the column-oriented JSON form of a feature list.
type Table struct {
	Columns []Column    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// NewTable projects features onto cols.
func NewTable(cols []Column, features []Feature) Table {
	t := Table{Columns: cols, Rows: make([][]float64, 0, len(features))}
	for i := range features {
		t.Rows = append(t.Rows, features[i].Row(cols))
	}
	return t
}

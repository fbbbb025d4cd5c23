package detection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid() YOLOGrid {
	return YOLOGrid{Rows: 4, Cols: 4, Anchors: []float64{1, 1, 2, 2}, Classes: 2}
}

// emptyOutput returns a network output in which no cell is confident.
func emptyOutput(g YOLOGrid) []float32 {
	out := make([]float32, g.Len())
	stride := 5 + g.Classes
	for i := 4; i < len(out); i += stride {
		out[i] = -20
	}
	return out
}

// setCell writes one anchor prediction: box offsets, objectness logit and
// class logits.
func setCell(out []float32, g YOLOGrid, row, col, anchor int, tx, ty, tw, th, obj float32, logits ...float32) {
	v := out[((row*g.Cols+col)*g.Boxes()+anchor)*(5+g.Classes):]
	v[0], v[1], v[2], v[3], v[4] = tx, ty, tw, th, obj
	copy(v[5:], logits)
}

func TestBoxIoU(t *testing.T) {
	a := Box{XMin: 0, YMin: 0, XMax: 2, YMax: 1}
	assert.InDelta(t, 1, a.IoU(a), 1e-12)
	assert.InDelta(t, 1.0/3, a.IoU(Box{XMin: 1, YMin: 0, XMax: 3, YMax: 1}), 1e-12)
	assert.Zero(t, a.IoU(Box{XMin: 5, YMin: 5, XMax: 6, YMax: 6}))
	assert.Zero(t, a.IoU(Box{XMin: 2, YMin: 0, XMax: 3, YMax: 1}), "touching edges do not overlap")
	assert.Zero(t, Box{}.IoU(Box{}))
}

func TestDecodeYOLO_SingleBox(t *testing.T) {
	g := testGrid()
	out := emptyOutput(g)
	setCell(out, g, 1, 2, 0, 0, 0, 0, 0, 10, 5, -5)

	boxes, err := DecodeYOLO(out, g, 0.3, 0.3)
	require.NoError(t, err)
	require.Len(t, boxes, 1)

	b := boxes[0]
	assert.Equal(t, 0, b.Class)
	assert.Greater(t, b.Score, 0.99)
	assert.InDelta(t, 0.5, b.XMin, 1e-12)
	assert.InDelta(t, 0.75, b.XMax, 1e-12)
	assert.InDelta(t, 0.25, b.YMin, 1e-12)
	assert.InDelta(t, 0.5, b.YMax, 1e-12)
}

func TestDecodeYOLO_AnchorScalesSize(t *testing.T) {
	g := testGrid()
	out := emptyOutput(g)
	setCell(out, g, 0, 0, 1, 0, 0, float32(math.Log(1.5)), 0, 10, 5, -5)

	boxes, err := DecodeYOLO(out, g, 0.3, 0.3)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.InDelta(t, 2*1.5/4, boxes[0].XMax-boxes[0].XMin, 1e-6)
	assert.InDelta(t, 2.0/4, boxes[0].YMax-boxes[0].YMin, 1e-12)
}

func TestDecodeYOLO_NonMaxSuppression(t *testing.T) {
	g := testGrid()
	halve := float32(math.Log(0.5)) // anchor 1 shrunk to the size of anchor 0

	t.Run("same class overlap keeps the stronger box", func(t *testing.T) {
		out := emptyOutput(g)
		setCell(out, g, 2, 2, 0, 0, 0, 0, 0, 3, 5, -5)
		setCell(out, g, 2, 2, 1, 0, 0, halve, halve, 10, 5, -5)

		boxes, err := DecodeYOLO(out, g, 0.3, 0.3)
		require.NoError(t, err)
		require.Len(t, boxes, 1)
		assert.Greater(t, boxes[0].Score, 0.99)
	})

	t.Run("different classes are kept", func(t *testing.T) {
		out := emptyOutput(g)
		setCell(out, g, 2, 2, 0, 0, 0, 0, 0, 3, 5, -5)
		setCell(out, g, 2, 2, 1, 0, 0, halve, halve, 10, -5, 5)

		boxes, err := DecodeYOLO(out, g, 0.3, 0.3)
		require.NoError(t, err)
		require.Len(t, boxes, 2)
		assert.Equal(t, 0, boxes[0].Class)
		assert.Equal(t, 1, boxes[1].Class)
	})

	t.Run("distant boxes are kept in grid order", func(t *testing.T) {
		out := emptyOutput(g)
		setCell(out, g, 3, 3, 0, 0, 0, 0, 0, 10, 5, -5)
		setCell(out, g, 0, 0, 0, 0, 0, 0, 0, 4, 5, -5)

		boxes, err := DecodeYOLO(out, g, 0.3, 0.3)
		require.NoError(t, err)
		require.Len(t, boxes, 2)
		assert.Less(t, boxes[0].XMin, boxes[1].XMin)
	})
}

func TestDecodeYOLO_BelowThreshold(t *testing.T) {
	g := testGrid()
	out := emptyOutput(g)
	setCell(out, g, 1, 1, 0, 0, 0, 0, 0, -1, 5, -5)

	boxes, err := DecodeYOLO(out, g, 0.3, 0.3)
	require.NoError(t, err)
	assert.Empty(t, boxes)
}

func TestDecodeYOLO_Errors(t *testing.T) {
	g := testGrid()

	_, err := DecodeYOLO(make([]float32, g.Len()-1), g, 0.3, 0.3)
	assert.ErrorContains(t, err, "grid expects")

	odd := g
	odd.Anchors = []float64{1, 1, 2}
	_, err = DecodeYOLO(nil, odd, 0.3, 0.3)
	assert.ErrorContains(t, err, "anchors")

	none := g
	none.Classes = 0
	_, err = DecodeYOLO(nil, none, 0.3, 0.3)
	assert.ErrorContains(t, err, "class")

	empty := g
	empty.Rows = 0
	_, err = DecodeYOLO(nil, empty, 0.3, 0.3)
	assert.ErrorContains(t, err, "no cells")
}

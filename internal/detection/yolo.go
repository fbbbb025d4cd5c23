package detection

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Box is an axis-aligned detection in coordinates normalized to the network
// input, so (0, 0) is the top-left and (1, 1) the bottom-right corner.
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`

	Class int     `json:"class"`
	Score float64 `json:"score"`
}

// IoU returns the intersection over union of b and o, 0 when they are
// disjoint or degenerate.
func (b Box) IoU(o Box) float64 {
	iw := math.Min(b.XMax, o.XMax) - math.Max(b.XMin, o.XMin)
	ih := math.Min(b.YMax, o.YMax) - math.Max(b.YMin, o.YMin)
	if iw <= 0 || ih <= 0 {
		return 0
	}
	inter := iw * ih
	union := (b.XMax-b.XMin)*(b.YMax-b.YMin) + (o.XMax-o.XMin)*(o.YMax-o.YMin) - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// YOLOGrid describes the output layout of a YOLOv2-style network: a
// Rows x Cols grid of cells, each predicting one box per anchor as
// (tx, ty, tw, th, objectness, class logits...).
type YOLOGrid struct {
	Rows int
	Cols int
	// Anchors holds (width, height) pairs in grid-cell units.
	Anchors []float64
	Classes int
}

// Boxes is the number of anchors per cell.
func (g YOLOGrid) Boxes() int { return len(g.Anchors) / 2 }

// Len is the number of values in one network output.
func (g YOLOGrid) Len() int { return g.Rows * g.Cols * g.Boxes() * (5 + g.Classes) }

// Validate checks the grid can decode an output.
func (g YOLOGrid) Validate() error {
	switch {
	case g.Rows < 1 || g.Cols < 1:
		return errors.Errorf("grid %dx%d has no cells", g.Cols, g.Rows)
	case len(g.Anchors) == 0 || len(g.Anchors)%2 != 0:
		return errors.Errorf("anchors must be width/height pairs, got %d values", len(g.Anchors))
	case g.Classes < 1:
		return errors.New("at least one class is required")
	}
	return nil
}

// DecodeYOLO turns a raw network output laid out row-major as
// [Rows][Cols][Boxes][5+Classes] into boxes.
//
// # Algorithm
//
//  1. Objectness = sigmoid(t_o); class scores = objectness * softmax(logits),
//     with scores at or below objThreshold zeroed
//  2. Cells with any remaining score yield a box centred at
//     ((col + sigmoid(tx)) / Cols, (row + sigmoid(ty)) / Rows) sized
//     anchor * exp(t) / grid
//  3. Per class, boxes are visited by falling score and every later box
//     overlapping a kept one by nmsThreshold or more loses that class score
//  4. A box survives when its best class score still exceeds objThreshold
//
// Boxes are returned in grid order.
func DecodeYOLO(out []float32, g YOLOGrid, objThreshold, nmsThreshold float64) ([]Box, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if len(out) != g.Len() {
		return nil, errors.Errorf("network output has %d values, grid expects %d", len(out), g.Len())
	}

	type candidate struct {
		box    Box
		scores []float64
	}
	var cands []candidate

	stride := 5 + g.Classes
	logits := make([]float64, g.Classes)
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			for b := 0; b < g.Boxes(); b++ {
				v := out[((row*g.Cols+col)*g.Boxes()+b)*stride:]
				objectness := sigmoid(float64(v[4]))

				for c := range logits {
					logits[c] = float64(v[5+c])
				}
				scores := softmax(logits)
				floats.Scale(objectness, scores)
				for c, s := range scores {
					if s <= objThreshold {
						scores[c] = 0
					}
				}
				if floats.Sum(scores) <= 0 {
					continue
				}

				x := (float64(col) + sigmoid(float64(v[0]))) / float64(g.Cols)
				y := (float64(row) + sigmoid(float64(v[1]))) / float64(g.Rows)
				w := g.Anchors[2*b] * math.Exp(float64(v[2])) / float64(g.Cols)
				h := g.Anchors[2*b+1] * math.Exp(float64(v[3])) / float64(g.Rows)
				cands = append(cands, candidate{
					box:    Box{XMin: x - w/2, YMin: y - h/2, XMax: x + w/2, YMax: y + h/2},
					scores: scores,
				})
			}
		}
	}

	order := make([]int, len(cands))
	for c := 0; c < g.Classes; c++ {
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return cands[order[i]].scores[c] > cands[order[j]].scores[c]
		})
		for i, a := range order {
			if cands[a].scores[c] == 0 {
				continue
			}
			for _, b := range order[i+1:] {
				if cands[a].box.IoU(cands[b].box) >= nmsThreshold {
					cands[b].scores[c] = 0
				}
			}
		}
	}

	boxes := make([]Box, 0, len(cands))
	for _, cand := range cands {
		best := floats.MaxIdx(cand.scores)
		if cand.scores[best] <= objThreshold {
			continue
		}
		box := cand.box
		box.Class = best
		box.Score = cand.scores[best]
		boxes = append(boxes, box)
	}
	return boxes, nil
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// softmax returns a new slice; the maximum is subtracted before exponentiation.
func softmax(x []float64) []float64 {
	out := make([]float64, len(x))
	m := floats.Max(x)
	for i, v := range x {
		out[i] = math.Exp(v - m)
	}
	floats.Scale(1/floats.Sum(out), out)
	return out
}

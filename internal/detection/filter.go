package detection

// Gate is the single-particle acceptance test applied to each region.
type Gate struct {
	MinArea int
	MaxArea int
	// MaxEccentricity rejects elongated regions when positive.
	MaxEccentricity float64
	// MinSphericity rejects regions whose minor/major ratio falls below it
	// when positive.
	MinSphericity float64
}

// Accept reports whether r passes the area, eccentricity and sphericity
// bounds.
func (g Gate) Accept(r *Region) bool {
	if r.Area < g.MinArea || r.Area > g.MaxArea {
		return false
	}
	if g.MaxEccentricity > 0 && r.Eccentricity > g.MaxEccentricity {
		return false
	}
	if g.MinSphericity > 0 && r.Sphericity() < g.MinSphericity {
		return false
	}
	return true
}

// BoundaryGuard drops regions that reach into the margin on all four sides
// of a Width x Height frame at once.
type BoundaryGuard struct {
	Margin int
	Width  int
	Height int
}

// Rejects reports whether r touches the margin on every side.
func (g BoundaryGuard) Rejects(r *Region) bool {
	b := r.BBox
	return b.Min.Y < g.Margin && b.Max.Y > g.Height-g.Margin &&
		b.Min.X < g.Margin && b.Max.X > g.Width-g.Margin
}

// Filter returns the regions accepted by gate, in input order, stopping after
// maxCount accepted regions. Regions rejected by a guard never count against
// maxCount.
func Filter(regions []Region, gate Gate, maxCount int, guards ...BoundaryGuard) []Region {
	out := make([]Region, 0)
	for i := range regions {
		if len(out) >= maxCount {
			break
		}
		r := &regions[i]
		if guarded(r, guards) || !gate.Accept(r) {
			continue
		}
		out = append(out, *r)
	}
	return out
}

func guarded(r *Region, guards []BoundaryGuard) bool {
	for _, g := range guards {
		if g.Rejects(r) {
			return true
		}
	}
	return false
}

// Class is the outcome of classifying a region as a Janus particle candidate.
type Class int

const (
	Reject Class = iota
	Single
	Pair
)

func (c Class) String() string {
	switch c {
	case Single:
		return "single"
	case Pair:
		return "pair"
	}
	return "reject"
}

// PairGate recognises regions that are likely two touching particles.
type PairGate struct {
	Enabled         bool
	MinArea         int
	MaxArea         int
	MinEccentricity float64
}

// Accept reports whether r qualifies as a close pair. Both area bounds are
// exclusive.
func (p PairGate) Accept(r *Region) bool {
	return p.Enabled &&
		r.Area > p.MinArea && r.Area < p.MaxArea &&
		r.Eccentricity > p.MinEccentricity
}

// Classify sorts r into single, pair or reject. Single-pixel regions are
// always rejected, as are regions caught by the guard. The single gate wins
// when both gates accept.
func Classify(r *Region, single Gate, pair PairGate, guard BoundaryGuard) Class {
	if r.Area == 1 {
		return Reject
	}
	class := Reject
	switch {
	case single.Accept(r):
		class = Single
	case pair.Accept(r):
		class = Pair
	}
	if class != Reject && guard.Rejects(r) {
		return Reject
	}
	return class
}

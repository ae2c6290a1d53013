package density

// Spline is a piecewise-cubic Hermite spline over a density-function
// input, used for the terrain-shape splines (offset/factor/jaggedness)
// that map continentalness/erosion/weirdness coordinates onto terrain
// parameters.
type Spline struct {
	Input    int // node index this spline samples as its location
	Locs     []float64
	Values   []float64
	Derivs   []float64
	min, max float64
}

// NewSpline builds a spline from parallel location/value/derivative
// slices, already sorted ascending by location.
func NewSpline(input int, locs, values, derivs []float64) *Spline {
	s := &Spline{Input: input, Locs: locs, Values: values, Derivs: derivs}
	s.min, s.max = values[0], values[0]
	for _, v := range values {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	return s
}

// Bounds returns the conservative [min, max] envelope across every
// control point's value (the spline never overshoots much past its
// control points for the monotone segments terrain splines use).
func (s *Spline) Bounds() Bounds { return Bounds{s.min, s.max} }

// Sample evaluates the spline at the given location using cubic Hermite
// interpolation between the two bracketing control points, matching the
// reference CubicSpline::apply.
func (s *Spline) Sample(loc float64) float64 {
	n := len(s.Locs)
	if n == 0 {
		return 0
	}
	idx := n - 1
	for i := 0; i < n-1; i++ {
		if loc < s.Locs[i+1] {
			idx = i
			break
		}
	}
	if idx >= n-1 {
		idx = n - 2
		if idx < 0 {
			return s.Values[0]
		}
		// Extrapolate past the final point using its derivative.
		lastLoc := s.Locs[n-1]
		lastVal := s.Values[n-1]
		lastDeriv := s.Derivs[n-1]
		return lastVal + lastDeriv*(loc-lastLoc)
	}
	if loc < s.Locs[0] {
		return s.Values[0] + s.Derivs[0]*(loc-s.Locs[0])
	}

	x0, x1 := s.Locs[idx], s.Locs[idx+1]
	y0, y1 := s.Values[idx], s.Values[idx+1]
	d0, d1 := s.Derivs[idx], s.Derivs[idx+1]

	t := (loc - x0) / (x1 - x0)
	return hermite(t, x1-x0, y0, y1, d0, d1)
}

// hermite evaluates the standard cubic Hermite basis with tangents
// scaled by the segment width dx, matching CubicSpline::apply.
func hermite(t, dx, y0, y1, d0, d1 float64) float64 {
	h00 := 2*t*t*t - 3*t*t + 1
	h10 := t*t*t - 2*t*t + t
	h01 := -2*t*t*t + 3*t*t
	h11 := t*t*t - t*t
	return h00*y0 + h10*dx*d0 + h01*y1 + h11*dx*d1
}

func lerp(t, a, b float64) float64 { return a + t*(b-a) }

package density

import "math"

// Bounds is the interval-arithmetic [Min, Max] envelope Stage 2 derives
// for every node in the static graph, used for the Stage 3 bounds
// early-exit optimization (spec.md §4.3 "Bounds early-exit (example)").
type Bounds struct{ Min, Max float64 }

func union(a, b Bounds) Bounds {
	return Bounds{Min: math.Min(a.Min, b.Min), Max: math.Max(a.Max, b.Max)}
}

// ComputeBounds walks the graph once, in topological (construction)
// order, deriving a conservative [min, max] for each node from its
// already-computed inputs. noiseBounds supplies the known amplitude
// envelope for each named noise parameter set (ordinarily [-1, 1] scaled
// by the octave sum, but callers may tighten it).
func ComputeBounds(g *Graph, noiseBounds map[string]Bounds) []Bounds {
	out := make([]Bounds, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = boundsForNode(n, out, noiseBounds)
	}
	return out
}

func boundsForNode(n Node, computed []Bounds, noiseBounds map[string]Bounds) Bounds {
	in0 := Bounds{}
	if n.Inputs[0] >= 0 {
		in0 = computed[n.Inputs[0]]
	}
	in1 := Bounds{}
	if n.Inputs[1] >= 0 {
		in1 = computed[n.Inputs[1]]
	}

	switch n.Kind {
	case KindConstant:
		return Bounds{n.Const, n.Const}
	case KindNoise, KindShiftedNoise:
		if b, ok := noiseBounds[n.NoiseID]; ok {
			return b
		}
		return Bounds{-1, 1}
	case KindShiftA, KindShiftB:
		return Bounds{-1, 1}
	case KindInterpolatedNoiseSampler:
		return Bounds{-1, 1}
	case KindEndIslands:
		return Bounds{-0.84375, 0.5625}
	case KindAdd:
		return Bounds{in0.Min + in1.Min, in0.Max + in1.Max}
	case KindMul:
		return productBounds(in0, in1)
	case KindMin:
		return Bounds{math.Min(in0.Min, in1.Min), math.Min(in0.Max, in1.Max)}
	case KindMax:
		return Bounds{math.Max(in0.Min, in1.Min), math.Max(in0.Max, in1.Max)}
	case KindAbs:
		return Bounds{0, math.Max(math.Abs(in0.Min), math.Abs(in0.Max))}
	case KindSquare:
		hi := math.Max(in0.Min*in0.Min, in0.Max*in0.Max)
		lo := 0.0
		if in0.Min > 0 || in0.Max < 0 {
			lo = math.Min(in0.Min*in0.Min, in0.Max*in0.Max)
		}
		return Bounds{lo, hi}
	case KindCube:
		return Bounds{in0.Min * in0.Min * in0.Min, in0.Max * in0.Max * in0.Max}
	case KindHalfNegative:
		return Bounds{minHalfNeg(in0.Min), minHalfNeg(in0.Max)}
	case KindQuarterNegative:
		return Bounds{minQuarterNeg(in0.Min), minQuarterNeg(in0.Max)}
	case KindSqueeze:
		return Bounds{squeeze(in0.Min), squeeze(in0.Max)}
	case KindClamp:
		return Bounds{n.Min, n.Max}
	case KindRangeChoice:
		a := computed[n.RangeMinInput]
		b := computed[n.RangeOutInput]
		return union(a, b)
	case KindWeirdScaled:
		// Conservatively assume the mapper can scale by up to the input's
		// own magnitude; tighter bounds require sampling the mapper.
		m := math.Max(math.Abs(in0.Min), math.Abs(in0.Max))
		return Bounds{-m, m}
	case KindClampedYGradient:
		return Bounds{math.Min(n.Const, n.XZScale), math.Max(n.Const, n.XZScale)}
	case KindBlendAlpha:
		return Bounds{0, 1}
	case KindBlendOffset:
		return Bounds{0, 0}
	case KindBlendDensity:
		return in0
	case KindBeardifier:
		return Bounds{0, 1}
	case KindPeaksAndValleys:
		return Bounds{-1, 1}
	case KindSpline:
		if n.Spline != nil {
			return n.Spline.Bounds()
		}
		return Bounds{-1, 1}
	case KindWrapCache2D, KindWrapCacheFlat, KindWrapCacheOnce, KindWrapCellCache, KindWrapInterpolated:
		return in0
	default:
		return Bounds{-1, 1}
	}
}

func productBounds(a, b Bounds) Bounds {
	c1, c2, c3, c4 := a.Min*b.Min, a.Min*b.Max, a.Max*b.Min, a.Max*b.Max
	return Bounds{
		Min: math.Min(math.Min(c1, c2), math.Min(c3, c4)),
		Max: math.Max(math.Max(c1, c2), math.Max(c3, c4)),
	}
}

func minHalfNeg(v float64) float64 {
	if v < 0 {
		return v * 0.5
	}
	return v
}

func minQuarterNeg(v float64) float64 {
	if v < 0 {
		return v * 0.25
	}
	return v
}

func squeeze(v float64) float64 {
	c := math.Max(-1, math.Min(1, v))
	return c/2 - c*c*c/24
}

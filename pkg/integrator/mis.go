package integrator

import "math"

// heuristic evaluates the MIS recursion. Every pair (a, sum) is a running
// ratio of the densities of the other strategies over the density of the one
// being evaluated, raised to beta, so that a path weight costs O(1) per
// connection instead of a walk over the whole path.
type heuristic struct {
	beta float64
}

// pow is x^beta. Zero and negative densities contribute nothing.
func (h heuristic) pow(x float64) float64 {
	if x <= 0 {
		return 0
	}
	if h.beta == 1 {
		return x
	}
	return math.Pow(x, h.beta)
}

// emit initialises the light subpath state at the emission point
func (h heuristic) emit(directDensityA, emissionDensityW, cosAtLight float64) (a, sum float64) {
	return h.pow(directDensityA / emissionDensityW), h.pow(cosAtLight / emissionDensityW)
}

// arrive converts the state from solid angle at the previous vertex to area at the new hit
func (h heuristic) arrive(a, sum, distanceSq, cosAtHit float64) (float64, float64) {
	cos := h.pow(cosAtHit)
	if cos == 0 {
		return 0, 0
	}
	return a * h.pow(distanceSq) / cos, sum / cos
}

// scatter updates the state for a bounce sampled from a non-delta lobe
func (h heuristic) scatter(a, sum, cosOut, densityW, densityRevW float64) (float64, float64) {
	return h.pow(1 / densityW), h.pow(cosOut/densityW) * (sum*h.pow(densityRevW) + a)
}

// scatterSpecular updates the state for a delta bounce, which no connection can reproduce
func (h heuristic) scatterSpecular(a, sum, cosOut float64) (float64, float64) {
	return 0, sum * h.pow(cosOut)
}

// weight0 is the weight of an eye subpath that reaches a light on its own
func (h heuristic) weight0(c, sumC, directDensityA, emissionDensityW float64) float64 {
	camera := h.pow(directDensityA)*c + h.pow(emissionDensityW)*sumC
	return 1 / (1 + camera)
}

// weight1 is the weight of next event estimation
func (h heuristic) weight1(c, sumC, bsdfDensityW, bsdfDensityRevW, directDensityW, omegaDensity, cosToLight, distanceSq float64) float64 {
	light := h.pow(bsdfDensityW / directDensityW)
	camera := h.pow(omegaDensity*cosToLight/distanceSq) * (c + sumC*h.pow(bsdfDensityRevW))
	return 1 / (light + 1 + camera)
}

// weightConnect is the weight of joining an eye vertex to a light vertex.
// eyeDensityA is the density of the light vertex as sampled from the eye
// vertex, converted to area; lightDensityA the reverse.
func (h heuristic) weightConnect(c, sumC, a, sumA, eyeDensityA, eyeDensityRevW, lightDensityA, lightDensityRevW float64) float64 {
	light := h.pow(eyeDensityA) * (a + sumA*h.pow(lightDensityRevW))
	camera := h.pow(lightDensityA) * (c + sumC*h.pow(eyeDensityRevW))
	return 1 / (light + 1 + camera)
}

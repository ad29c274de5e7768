// Package stats holds the significance tests used to compare recordings.
package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrDegenerateANOVA is returned when the F statistic is undefined: fewer
// than two groups, no within-group degrees of freedom, or zero variance.
var ErrDegenerateANOVA = errors.New("anova is undefined for these groups")

// ANOVAResult is the outcome of a one-way analysis of variance
type ANOVAResult struct {
	F         float64
	PValue    float64
	DFBetween int
	DFWithin  int
}

// OneWayANOVA tests whether the group means differ. Every group must hold
// at least one value.
func OneWayANOVA(groups ...[]float64) (ANOVAResult, error) {
	k := len(groups)
	if k < 2 {
		return ANOVAResult{}, fmt.Errorf("%w: need at least 2 groups, got %d", ErrDegenerateANOVA, k)
	}

	var all []float64
	for i, g := range groups {
		if len(g) == 0 {
			return ANOVAResult{}, fmt.Errorf("%w: group %d is empty", ErrDegenerateANOVA, i)
		}
		all = append(all, g...)
	}
	n := len(all)
	grand := stat.Mean(all, nil)

	var ssBetween, ssWithin float64
	for _, g := range groups {
		mean := stat.Mean(g, nil)
		ssBetween += float64(len(g)) * (mean - grand) * (mean - grand)
		for _, v := range g {
			ssWithin += (v - mean) * (v - mean)
		}
	}

	res := ANOVAResult{DFBetween: k - 1, DFWithin: n - k}
	if res.DFWithin <= 0 {
		return res, fmt.Errorf("%w: %d values in %d groups leave no within-group freedom", ErrDegenerateANOVA, n, k)
	}
	if ssWithin == 0 {
		return res, fmt.Errorf("%w: zero within-group variance", ErrDegenerateANOVA)
	}

	res.F = (ssBetween / float64(res.DFBetween)) / (ssWithin / float64(res.DFWithin))
	res.PValue = distuv.F{D1: float64(res.DFBetween), D2: float64(res.DFWithin)}.Survival(res.F)
	if math.IsNaN(res.PValue) || math.IsInf(res.PValue, 0) {
		return res, fmt.Errorf("%w: p-value is not finite", ErrDegenerateANOVA)
	}
	return res, nil
}

// Package regress fits a simple ordinary least-squares line between one
// covariate and the malaria test rate.
package regress

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/malstat/internal/dataset"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultLevel is the confidence level for the intervals.
const DefaultLevel = 0.95

// Point is a complete (covariate, target) pair.
type Point struct {
	Entity string
	X, Y   float64
}

// Result is a read-only OLS fit of Y = Intercept + Slope*X.
type Result struct {
	Slope     float64
	Intercept float64
	R         float64
	R2        float64
	// SlopeSE is the standard error of the slope; T = Slope/SlopeSE.
	SlopeSE float64
	T       float64
	// PValue is the two-sided p-value of the slope t-test.
	PValue      float64
	Level       float64
	SlopeCI     [2]float64
	InterceptCI [2]float64
	N           int
	Points      []Point
}

// Predict evaluates the fitted line at x.
func (r *Result) Predict(x float64) float64 { return r.Intercept + r.Slope*x }

// Significant reports whether the slope is significant at 1-Level.
func (r *Result) Significant() bool { return r.PValue < 1-r.Level }

// Points pairs the covariate c with the metric for every observation where
// both are present. Rows with either value absent are left out.
func Points(obs []dataset.Observation, c dataset.Covariate) []Point {
	var out []Point
	for _, o := range obs {
		x := c.Of(o)
		if x == nil || o.Value == nil {
			continue
		}
		out = append(out, Point{Entity: o.Entity, X: *x, Y: *o.Value})
	}
	return out
}

// Fit runs OLS on pts with confidence intervals at level (DefaultLevel when
// outside (0,1)). Fewer than three points or fewer than two distinct X values
// fail with dataset.ErrInsufficientSample.
func Fit(pts []Point, level float64) (*Result, error) {
	if level <= 0 || level >= 1 {
		level = DefaultLevel
	}
	n := len(pts)
	if n < 3 {
		return nil, fmt.Errorf("regression needs at least 3 points, got %d: %w", n, dataset.ErrInsufficientSample)
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	distinct := map[float64]struct{}{}
	for i, p := range pts {
		xs[i], ys[i] = p.X, p.Y
		distinct[p.X] = struct{}{}
	}
	if len(distinct) < 2 {
		return nil, fmt.Errorf("regression needs at least 2 distinct covariate values: %w", dataset.ErrInsufficientSample)
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	meanX := stat.Mean(xs, nil)
	var sxx, sse, sst float64
	meanY := stat.Mean(ys, nil)
	for i := range xs {
		dx := xs[i] - meanX
		sxx += dx * dx
		res := ys[i] - (alpha + beta*xs[i])
		sse += res * res
		dy := ys[i] - meanY
		sst += dy * dy
	}

	r := &Result{
		Slope:     beta,
		Intercept: alpha,
		Level:     level,
		N:         n,
		Points:    append([]Point(nil), pts...),
	}
	if sst > 0 {
		r.R2 = stat.RSquared(xs, ys, nil, alpha, beta)
		r.R = stat.Correlation(xs, ys, nil)
	}

	df := float64(n - 2)
	s := math.Sqrt(sse / df)
	r.SlopeSE = s / math.Sqrt(sxx)
	interceptSE := s * math.Sqrt(1/float64(n)+meanX*meanX/sxx)
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	tcrit := tdist.Quantile(1 - (1-level)/2)
	switch {
	case r.SlopeSE > 0:
		r.T = beta / r.SlopeSE
		r.PValue = 2 * (1 - tdist.CDF(math.Abs(r.T)))
	case beta != 0:
		// exact fit
		r.T = math.Inf(1)
		if beta < 0 {
			r.T = math.Inf(-1)
		}
		r.PValue = 0
	default:
		r.PValue = 1
	}
	r.SlopeCI = [2]float64{beta - tcrit*r.SlopeSE, beta + tcrit*r.SlopeSE}
	r.InterceptCI = [2]float64{alpha - tcrit*interceptSE, alpha + tcrit*interceptSE}
	return r, nil
}

// Strength describes |r| in words for report commentary.
func (r *Result) Strength() string {
	a := math.Abs(r.R)
	switch {
	case a >= 0.7:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.2:
		return "weak"
	}
	return "negligible"
}

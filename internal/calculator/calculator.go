// Package calculator estimates what a salary would be had pay kept pace with
// productivity since the start of the productivity-vs-wages series.
package calculator

import (
	"errors"
	"fmt"
	"math"

	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
)

var (
	// ErrInvalidSalary is returned for a salary that is not a positive finite
	// number.
	ErrInvalidSalary = errors.New("calculator: salary must be a positive number")

	// ErrNoSeries is returned when the series has no usable baseline and
	// latest point.
	ErrNoSeries = errors.New("calculator: productivity series is unusable")
)

// MaxSalary caps the input so the result stays printable.
const MaxSalary = 1e9

// Result mirrors the calculator panel on the page.
type Result struct {
	CurrentSalary    float64 `json:"currentSalary"`
	CalculatedSalary float64 `json:"calculatedSalary"`
	LostWages        float64 `json:"lostWages"`

	// Multiplier is the productivity growth divided by the compensation
	// growth between BaselineYear and LatestYear.
	Multiplier   float64 `json:"multiplier"`
	BaselineYear int     `json:"baselineYear"`
	LatestYear   int     `json:"latestYear"`
}

// Calculate scales salary by how much faster productivity grew than hourly
// compensation between the first and last points of series.
func Calculate(salary float64, series []report.ChartPoint) (Result, error) {
	if math.IsNaN(salary) || math.IsInf(salary, 0) || salary <= 0 || salary > MaxSalary {
		return Result{}, ErrInvalidSalary
	}

	base, latest, err := endpoints(series)
	if err != nil {
		return Result{}, err
	}

	prodGrowth := latest.prod / base.prod
	compGrowth := latest.comp / base.comp
	multiplier := prodGrowth / compGrowth

	calculated := round2(salary * multiplier)
	return Result{
		CurrentSalary:    round2(salary),
		CalculatedSalary: calculated,
		LostWages:        round2(calculated - salary),
		Multiplier:       math.Round(multiplier*1e4) / 1e4,
		BaselineYear:     base.year,
		LatestYear:       latest.year,
	}, nil
}

type indexPoint struct {
	year       int
	prod, comp float64
}

// endpoints returns the earliest and latest points carrying positive
// productivity and compensation values.
func endpoints(series []report.ChartPoint) (indexPoint, indexPoint, error) {
	var pts []indexPoint
	for _, p := range series {
		prod, ok1 := p.Value(report.MetricProductivity)
		comp, ok2 := p.Value(report.MetricHourlyCompensation)
		if !ok1 || !ok2 || prod <= 0 || comp <= 0 {
			continue
		}
		pts = append(pts, indexPoint{year: p.Year, prod: prod, comp: comp})
	}
	if len(pts) < 2 {
		return indexPoint{}, indexPoint{}, fmt.Errorf("%w: need two points, have %d", ErrNoSeries, len(pts))
	}

	base, latest := pts[0], pts[0]
	for _, p := range pts[1:] {
		if p.year < base.year {
			base = p
		}
		if p.year > latest.year {
			latest = p
		}
	}
	if base.year == latest.year {
		return indexPoint{}, indexPoint{}, fmt.Errorf("%w: every point is from %d", ErrNoSeries, base.year)
	}
	return base, latest, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

package calculator_test

import (
	"errors"
	"math"
	"testing"

	"github.com/Ronnie04NYC/wealth-transfer/internal/calculator"
	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
)

func TestCalculate_FallbackSeries(t *testing.T) {
	got, err := calculator.Calculate(50000, report.Fallback().ProductivityVsWages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 1975: 98 / 99, 2022: 218 / 115.
	wantMult := (218.0 / 98.0) / (115.0 / 99.0)
	wantCalc := math.Round(50000*wantMult*100) / 100

	if got.BaselineYear != 1975 || got.LatestYear != 2022 {
		t.Errorf("years = %d..%d", got.BaselineYear, got.LatestYear)
	}
	if got.CalculatedSalary != wantCalc {
		t.Errorf("calculated = %v, want %v", got.CalculatedSalary, wantCalc)
	}
	if got.LostWages != math.Round((wantCalc-50000)*100)/100 {
		t.Errorf("lost = %v", got.LostWages)
	}
	if got.LostWages <= 0 {
		t.Error("productivity outgrew pay, lost wages should be positive")
	}
}

func TestCalculate_UnorderedSeriesUsesYearEndpoints(t *testing.T) {
	series := []report.ChartPoint{
		report.Point(2000, report.MetricProductivity, 150, report.MetricHourlyCompensation, 100),
		report.Point(1980, report.MetricProductivity, 100, report.MetricHourlyCompensation, 100),
		report.Point(1990, report.MetricProductivity, 0, report.MetricHourlyCompensation, 100),
	}
	got, err := calculator.Calculate(40000, series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CalculatedSalary != 60000 || got.LostWages != 20000 || got.Multiplier != 1.5 {
		t.Errorf("result = %+v", got)
	}
}

func TestCalculate_RejectsBadSalary(t *testing.T) {
	series := report.Fallback().ProductivityVsWages
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1), calculator.MaxSalary * 2} {
		if _, err := calculator.Calculate(v, series); !errors.Is(err, calculator.ErrInvalidSalary) {
			t.Errorf("Calculate(%v) = %v, want ErrInvalidSalary", v, err)
		}
	}
}

func TestCalculate_RejectsUnusableSeries(t *testing.T) {
	tests := map[string][]report.ChartPoint{
		"empty":      nil,
		"one point":  {report.Point(2000, report.MetricProductivity, 1, report.MetricHourlyCompensation, 1)},
		"same year":  {report.Point(2000, report.MetricProductivity, 1, report.MetricHourlyCompensation, 1), report.Point(2000, report.MetricProductivity, 2, report.MetricHourlyCompensation, 1)},
		"wrong keys": {report.Point(1980, report.MetricWages, 1), report.Point(1990, report.MetricWages, 2)},
	}
	for name, series := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := calculator.Calculate(1000, series); !errors.Is(err, calculator.ErrNoSeries) {
				t.Errorf("got %v, want ErrNoSeries", err)
			}
		})
	}
}

package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Ronnie04NYC/wealth-transfer/internal/calculator"
	"github.com/Ronnie04NYC/wealth-transfer/internal/report"
)

type calculatorRequest struct {
	CurrentSalary float64 `json:"currentSalary"`
}

// ─── POST /api/calculator ─────────────────────────────────────────────────────

// handleCalculator runs the wage calculator against the productivity series
// loaded for this page, or the embedded series when the page has none yet.
func (s *Server) handleCalculator(w http.ResponseWriter, r *http.Request) {
	var req calculatorRequest
	if !decode(w, r, &req) {
		return
	}

	series := report.Fallback().ProductivityVsWages
	if d, _, ok := sessionFrom(r).Report(); ok {
		series = d.ProductivityVsWages
	}

	res, err := calculator.Calculate(req.CurrentSalary, series)
	if errors.Is(err, calculator.ErrInvalidSalary) {
		respondErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if errors.Is(err, calculator.ErrNoSeries) {
		// The live series passed validation but has a single year; the
		// embedded one always has a baseline.
		res, err = calculator.Calculate(req.CurrentSalary, report.Fallback().ProductivityVsWages)
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("calculate: %w", err))
		return
	}

	respond(w, http.StatusOK, res)
}

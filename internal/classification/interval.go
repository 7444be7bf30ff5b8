package classification

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/learning"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// Interval windows in days, inclusive.
var intervalWindows = []struct {
	freq     model.Frequency
	min, max float64
}{
	{model.FrequencyWeekly, 5, 9},
	{model.FrequencyMonthly, 25, 35},
	{model.FrequencyQuarterly, 80, 100},
	{model.FrequencyYearly, 350, 380},
}

const (
	minIntervalOccurrences = 3
	regularityRatio        = 0.2
	regularConfidence      = 90
	irregularConfidence    = 55
)

// IntervalAnalysis describes how regularly a vendor recurs.
type IntervalAnalysis struct {
	Frequency   model.Frequency
	MeanGapDays float64
	StdDevDays  float64
	Occurrences int
	Regular     bool
	Confidence  int
}

// AnalyzeIntervals classifies the gaps between dates. It needs at least three
// distinct days whose mean gap falls inside one of the frequency windows.
func AnalyzeIntervals(dates []time.Time) (IntervalAnalysis, bool) {
	days := distinctDays(dates)
	if len(days) < minIntervalOccurrences {
		return IntervalAnalysis{}, false
	}

	gaps := make([]float64, 0, len(days)-1)
	for i := 1; i < len(days); i++ {
		gaps = append(gaps, days[i].Sub(days[i-1]).Hours()/24)
	}
	mean, std := meanStdDev(gaps)

	for _, w := range intervalWindows {
		if mean < w.min || mean > w.max {
			continue
		}
		a := IntervalAnalysis{
			Frequency:   w.freq,
			MeanGapDays: mean,
			StdDevDays:  std,
			Occurrences: len(days),
			Regular:     std < regularityRatio*mean,
			Confidence:  irregularConfidence,
		}
		if a.Regular {
			a.Confidence = regularConfidence
		}
		return a, true
	}
	return IntervalAnalysis{}, false
}

func distinctDays(dates []time.Time) []time.Time {
	seen := make(map[string]bool, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		k := day.Format("2006-01-02")
		if seen[k] {
			continue
		}
		seen[k] = true
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func meanStdDev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(xs)))
}

// counterpartyKey identifies the other side of a transaction for grouping.
func counterpartyKey(t *model.Transaction) string {
	if k := learning.VendorKey(t.VendorName); k != "" {
		return k
	}
	return learning.PatternKey(t.Description)
}

// sameVendorDates returns the dates of txn and of every history entry with the
// same counterparty whose amount is within tolerancePct of txn's amount.
func sameVendorDates(txn *model.Transaction, history []model.Transaction, tolerancePct float64) []time.Time {
	key := counterpartyKey(txn)
	if key == "" {
		return nil
	}
	amount := txn.Amount.Abs()
	tolerance := amount.Mul(decimal.NewFromFloat(tolerancePct / 100))

	dates := []time.Time{txn.Date}
	for i := range history {
		h := &history[i]
		if h.ID == txn.ID || h.Amount.Sign() != txn.Amount.Sign() {
			continue
		}
		if counterpartyKey(h) != key {
			continue
		}
		if h.Amount.Abs().Sub(amount).Abs().GreaterThan(tolerance) {
			continue
		}
		dates = append(dates, h.Date)
	}
	return dates
}

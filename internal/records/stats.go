package records

import (
	"finance-tracker/internal/models"
)

// Aggregate summarizes rs in one pass. An empty set yields all zeros.
// Expense stats also carry the per-category sums of the categories present.
func Aggregate(kind models.Kind, rs []models.Record) models.Stats {
	var s models.Stats
	if kind == models.KindExpense {
		s.ByCategory = make(map[string]float64)
	}

	for i, r := range rs {
		s.Total += r.Amount
		if i == 0 || r.Amount > s.Max {
			s.Max = r.Amount
		}
		if i == 0 || r.Amount < s.Min {
			s.Min = r.Amount
		}
		if s.ByCategory != nil {
			s.ByCategory[r.Category] += r.Amount
		}
	}

	s.Count = len(rs)
	if s.Count > 0 {
		s.Average = s.Total / float64(s.Count)
	}
	return s
}

package models

import "time"

// Kind distinguishes the two record collections.
type Kind string

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

// Valid reports whether k names a known record kind.
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Title returns the capitalized kind, e.g. "Expense".
func (k Kind) Title() string {
	switch k {
	case KindIncome:
		return "Income"
	case KindExpense:
		return "Expense"
	}
	return string(k)
}

// Categories is the closed set of expense categories.
var Categories = []string{
	"Food",
	"Transport",
	"Shopping",
	"Bills",
	"Entertainment",
	"Health",
	"Education",
	"Other",
}

// IsCategory reports whether c is one of Categories.
func IsCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Record represents a single income or expense entry.
type Record struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"userId"`
	Kind        Kind      `json:"-"`
	Title       string    `json:"title"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category,omitempty"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Stats is the aggregate over a filtered record set. ByCategory is nil
// for income and always present for expenses.
type Stats struct {
	Total      float64            `json:"total"`
	Count      int                `json:"count"`
	Average    float64            `json:"average"`
	Max        float64            `json:"max"`
	Min        float64            `json:"min"`
	ByCategory map[string]float64 `json:"byCategory,omitzero"`
}

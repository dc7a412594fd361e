package records

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/models"

	"github.com/go-playground/validator/v10"
)

// MaxAmount is the largest amount a record may carry.
const MaxAmount = 10_000_000

var validate = validator.New()

var (
	categoryTag  = "oneof=" + strings.Join(models.Categories, " ")
	maxAmountTag = "lte=" + strconv.Itoa(MaxAmount)
)

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// Input is a create or update request body. Nil fields were not supplied.
// Amount is kept raw so that numeric strings are accepted as well as numbers.
type Input struct {
	Title       *string         `json:"title"`
	Amount      json.RawMessage `json:"amount"`
	Category    *string         `json:"category"`
	Date        *string         `json:"date"`
	Description *string         `json:"description"`
}

func (in Input) hasAmount() bool {
	return len(in.Amount) > 0 && string(in.Amount) != "null"
}

// NewRecord validates a create request and returns the record to store.
// The owner always comes from the caller's identity.
func NewRecord(owner string, kind models.Kind, in Input) (*models.Record, error) {
	if in.Title == nil {
		return nil, invalid("title", "Title is required")
	}
	if !in.hasAmount() {
		return nil, invalid("amount", "Amount is required")
	}
	if kind == models.KindExpense && in.Category == nil {
		return nil, invalid("category", "Category is required")
	}
	if in.Date == nil {
		return nil, invalid("date", "Date is required")
	}

	r := &models.Record{UserID: owner, Kind: kind}
	if err := apply(kind, r, in); err != nil {
		return nil, err
	}
	return r, nil
}

// ApplyUpdate validates a partial update and applies the supplied fields to
// r. On error r is left untouched.
func ApplyUpdate(kind models.Kind, r *models.Record, in Input) error {
	next := *r
	if err := apply(kind, &next, in); err != nil {
		return err
	}
	*r = next
	return nil
}

func apply(kind models.Kind, r *models.Record, in Input) error {
	if in.Title != nil {
		title, err := checkTitle(*in.Title)
		if err != nil {
			return err
		}
		r.Title = title
	}
	if in.hasAmount() {
		amount, err := checkAmount(in.Amount)
		if err != nil {
			return err
		}
		r.Amount = amount
	}
	if kind == models.KindExpense && in.Category != nil {
		if err := validate.Var(*in.Category, "required,"+categoryTag); err != nil {
			return invalid("category", "Invalid category")
		}
		r.Category = *in.Category
	}
	if in.Date != nil {
		date, err := checkDate(*in.Date)
		if err != nil {
			return err
		}
		r.Date = date
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if err := validate.Var(desc, "max=500"); err != nil {
			return invalid("description", "Description cannot exceed 500 characters")
		}
		r.Description = desc
	}
	return nil
}

func checkTitle(v string) (string, error) {
	title := strings.TrimSpace(v)
	if title == "" {
		return "", invalid("title", "Title cannot be empty")
	}
	if err := validate.Var(title, "max=100"); err != nil {
		return "", invalid("title", "Title cannot exceed 100 characters")
	}
	return title, nil
}

func checkAmount(raw json.RawMessage) (float64, error) {
	var amount float64
	if err := json.Unmarshal(raw, &amount); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, invalid("amount", "Amount must be a positive number")
		}
		amount, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, invalid("amount", "Amount must be a positive number")
		}
	}
	if err := validate.Var(amount, "gt=0"); err != nil {
		return 0, invalid("amount", "Amount must be a positive number")
	}
	if err := validate.Var(amount, maxAmountTag); err != nil {
		return 0, invalid("amount", "Amount must be between 0 and 10,000,000")
	}
	return amount, nil
}

func checkDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, invalid("date", "Date is required")
	}
	t, _, err := ParseDate(v)
	if err != nil {
		return time.Time{}, invalid("date", "Invalid date")
	}
	return t, nil
}

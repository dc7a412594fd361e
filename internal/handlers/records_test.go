package handlers

import (
	"bytes"
	"net/http"

	"finance-tracker/internal/models"
	"finance-tracker/internal/records"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func (suite *HandlersTestSuite) create(kind, token string, body map[string]any) models.Record {
	w := suite.do("POST", "/api/"+kind, token, body)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	var rec models.Record
	suite.decode(w, &rec)
	return rec
}

func expense(title string, amount float64, category, date string) map[string]any {
	return map[string]any{"title": title, "amount": amount, "category": category, "date": date}
}

func (suite *HandlersTestSuite) TestCreateExpense() {
	rec := suite.create("expense", suite.aliceTok, map[string]any{
		"title":       "  Lunch  ",
		"amount":      "12.5",
		"category":    "Food",
		"date":        "2024-01-15",
		"description": "with team",
	})

	assert.NotEmpty(suite.T(), rec.ID)
	assert.Equal(suite.T(), suite.alice.ID, rec.UserID)
	assert.Equal(suite.T(), "Lunch", rec.Title)
	assert.Equal(suite.T(), 12.5, rec.Amount)
	assert.Equal(suite.T(), "Food", rec.Category)
	assert.Equal(suite.T(), "2024-01-15", rec.Date.Format("2006-01-02"))
	assert.False(suite.T(), rec.CreatedAt.IsZero())
}

func (suite *HandlersTestSuite) TestCreateIgnoresBodyOwner() {
	body := expense("Taxi", 20, "Transport", "2024-01-15")
	body["userId"] = suite.bob.ID

	rec := suite.create("expense", suite.aliceTok, body)
	assert.Equal(suite.T(), suite.alice.ID, rec.UserID)
}

func (suite *HandlersTestSuite) TestCreate_Invalid() {
	tests := []struct {
		name string
		kind string
		body any
		want string
	}{
		{"malformed", "expense", "not json", "Invalid request body"},
		{"missing title", "expense", map[string]any{"amount": 5, "category": "Food", "date": "2024-01-01"}, "Title is required"},
		{"zero amount", "expense", expense("x", 0, "Food", "2024-01-01"), "Amount must be a positive number"},
		{"negative amount", "income", map[string]any{"title": "x", "amount": -1, "date": "2024-01-01"}, "Amount must be a positive number"},
		{"huge amount", "income", map[string]any{"title": "x", "amount": 10000001, "date": "2024-01-01"}, "Amount must be between 0 and 10,000,000"},
		{"missing category", "expense", map[string]any{"title": "x", "amount": 5, "date": "2024-01-01"}, "Category is required"},
		{"bad category", "expense", expense("x", 5, "Rent", "2024-01-01"), "Invalid category"},
		{"bad date", "expense", expense("x", 5, "Food", "yesterday"), "Invalid date"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w := suite.do("POST", "/api/"+tt.kind, suite.aliceTok, tt.body)
			assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
			assert.Equal(suite.T(), tt.want, suite.message(w))
		})
	}

	var list []models.Record
	suite.decode(suite.do("GET", "/api/expense", suite.aliceTok, nil), &list)
	assert.Empty(suite.T(), list, "nothing stored")
}

func (suite *HandlersTestSuite) TestIncomeHasNoCategory() {
	rec := suite.create("income", suite.aliceTok, map[string]any{
		"title": "Salary", "amount": 3000, "category": "Food", "date": "2024-02-01",
	})
	assert.Empty(suite.T(), rec.Category)

	w := suite.do("GET", "/api/income/"+rec.ID, suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.NotContains(suite.T(), w.Body.String(), "category")
}

func (suite *HandlersTestSuite) TestList_FiltersAndOrder() {
	suite.create("expense", suite.aliceTok, expense("Jan 1", 10, "Food", "2024-01-01"))
	suite.create("expense", suite.aliceTok, expense("Jan 31", 20, "Bills", "2024-01-31"))
	suite.create("expense", suite.aliceTok, expense("Feb 1", 30, "Food", "2024-02-01"))
	suite.create("expense", suite.bobTok, expense("Bob", 40, "Food", "2024-01-15"))

	titles := func(path string) []string {
		w := suite.do("GET", path, suite.aliceTok, nil)
		require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
		var list []models.Record
		suite.decode(w, &list)
		out := make([]string, len(list))
		for i, r := range list {
			out[i] = r.Title
		}
		return out
	}

	assert.Equal(suite.T(), []string{"Feb 1", "Jan 31", "Jan 1"}, titles("/api/expense"))
	assert.Equal(suite.T(), []string{"Jan 31", "Jan 1"}, titles("/api/expense?startDate=2024-01-01&endDate=2024-01-31"))
	assert.Equal(suite.T(), []string{"Feb 1", "Jan 1"}, titles("/api/expense?category=Food"))
	assert.Equal(suite.T(), []string{"Feb 1"}, titles("/api/expense?limit=1"))
	assert.Equal(suite.T(), []string{}, titles("/api/income"))
}

func (suite *HandlersTestSuite) TestList_EmptyIsArray() {
	w := suite.do("GET", "/api/expense", suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), "[]", w.Body.String())
}

func (suite *HandlersTestSuite) TestList_BadFilter() {
	for path, want := range map[string]string{
		"/api/expense?startDate=soon":     "Invalid startDate",
		"/api/expense?endDate=2024-13-01": "Invalid endDate",
		"/api/expense?category=Rent":      "Invalid category",
		"/api/expense?limit=many":         "Limit must be an integer",
	} {
		w := suite.do("GET", path, suite.aliceTok, nil)
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, path)
		assert.Equal(suite.T(), want, suite.message(w), path)
	}
}

func (suite *HandlersTestSuite) TestOwnership() {
	rec := suite.create("expense", suite.aliceTok, expense("Private", 10, "Food", "2024-01-01"))
	path := "/api/expense/" + rec.ID

	get := suite.do("GET", path, suite.bobTok, nil)
	assert.Equal(suite.T(), http.StatusNotFound, get.Code)
	assert.Equal(suite.T(), "Expense not found", suite.message(get))

	put := suite.do("PUT", path, suite.bobTok, map[string]any{"title": "Mine now"})
	assert.Equal(suite.T(), http.StatusNotFound, put.Code)

	del := suite.do("DELETE", path, suite.bobTok, nil)
	assert.Equal(suite.T(), http.StatusNotFound, del.Code)

	// Wrong kind is also not found.
	assert.Equal(suite.T(), http.StatusNotFound, suite.do("GET", "/api/income/"+rec.ID, suite.aliceTok, nil).Code)

	w := suite.do("GET", path, suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	var got models.Record
	suite.decode(w, &got)
	assert.Equal(suite.T(), "Private", got.Title)
}

func (suite *HandlersTestSuite) TestUpdate_Partial() {
	rec := suite.create("expense", suite.aliceTok, map[string]any{
		"title": "Groceries", "amount": 50, "category": "Food", "date": "2024-01-10", "description": "weekly",
	})

	w := suite.do("PUT", "/api/expense/"+rec.ID, suite.aliceTok, map[string]any{"amount": 55.5})
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var got models.Record
	suite.decode(w, &got)
	assert.Equal(suite.T(), 55.5, got.Amount)
	assert.Equal(suite.T(), "Groceries", got.Title)
	assert.Equal(suite.T(), "Food", got.Category)
	assert.Equal(suite.T(), "weekly", got.Description)
	assert.True(suite.T(), rec.Date.Equal(got.Date))
}

func (suite *HandlersTestSuite) TestUpdate_InvalidLeavesRecord() {
	rec := suite.create("expense", suite.aliceTok, expense("Book", 15, "Education", "2024-01-10"))

	w := suite.do("PUT", "/api/expense/"+rec.ID, suite.aliceTok, map[string]any{"title": "New", "amount": -3})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
	assert.Equal(suite.T(), "Amount must be a positive number", suite.message(w))

	var got models.Record
	suite.decode(suite.do("GET", "/api/expense/"+rec.ID, suite.aliceTok, nil), &got)
	assert.Equal(suite.T(), "Book", got.Title)
	assert.Equal(suite.T(), 15.0, got.Amount)
}

func (suite *HandlersTestSuite) TestDelete() {
	rec := suite.create("income", suite.aliceTok, map[string]any{"title": "Gift", "amount": 100, "date": "2024-01-10"})

	w := suite.do("DELETE", "/api/income/"+rec.ID, suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "Income deleted successfully", suite.message(w))

	again := suite.do("DELETE", "/api/income/"+rec.ID, suite.aliceTok, nil)
	assert.Equal(suite.T(), http.StatusNotFound, again.Code)
	assert.Equal(suite.T(), "Income not found", suite.message(again))
}

func (suite *HandlersTestSuite) TestStats() {
	suite.create("expense", suite.aliceTok, expense("a", 10, "Food", "2024-01-05"))
	suite.create("expense", suite.aliceTok, expense("b", 20, "Transport", "2024-01-06"))
	suite.create("expense", suite.aliceTok, expense("c", 5, "Food", "2024-01-07"))
	suite.create("expense", suite.aliceTok, expense("outside", 1000, "Food", "2024-03-01"))
	suite.create("expense", suite.bobTok, expense("bob", 99, "Food", "2024-01-05"))

	// category and limit do not narrow stats.
	w := suite.do("GET", "/api/expense/stats?startDate=2024-01-01&endDate=2024-01-31&category=Bills&limit=1", suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var stats models.Stats
	suite.decode(w, &stats)
	assert.Equal(suite.T(), 35.0, stats.Total)
	assert.Equal(suite.T(), 3, stats.Count)
	assert.InDelta(suite.T(), 11.6667, stats.Average, 0.001)
	assert.Equal(suite.T(), 20.0, stats.Max)
	assert.Equal(suite.T(), 5.0, stats.Min)
	assert.Equal(suite.T(), map[string]float64{"Food": 15, "Transport": 20}, stats.ByCategory)
}

func (suite *HandlersTestSuite) TestStats_Empty() {
	w := suite.do("GET", "/api/income/stats", suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"total":0,"count":0,"average":0,"max":0,"min":0}`, w.Body.String())
}

func (suite *HandlersTestSuite) TestStats_EmptyExpenseKeepsCategories() {
	w := suite.do("GET", "/api/expense/stats", suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.JSONEq(suite.T(), `{"total":0,"count":0,"average":0,"max":0,"min":0,"byCategory":{}}`, w.Body.String())
}

func (suite *HandlersTestSuite) TestExport() {
	suite.create("expense", suite.aliceTok, expense("Older", 10, "Food", "2024-01-05"))
	suite.create("expense", suite.aliceTok, expense("Newer", 20.5, "Bills", "2024-02-06"))
	suite.create("expense", suite.bobTok, expense("Bob", 40, "Food", "2024-01-15"))

	w := suite.do("GET", "/api/expense/export?limit=1", suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())
	assert.Equal(suite.T(), records.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(suite.T(), "attachment; filename=expense-report-2024-03-09.xlsx", w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(suite.T(), err)
	defer f.Close()

	rows, err := f.GetRows("Expenses")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), rows, 3, "header plus every record, limit ignored")
	assert.Equal(suite.T(), []string{"Title", "Amount", "Category", "Date", "Description"}, rows[0])
	assert.Equal(suite.T(), "Newer", rows[1][0])
	assert.Equal(suite.T(), "2/6/2024", rows[1][3])
	assert.Equal(suite.T(), "Older", rows[2][0])
}

func (suite *HandlersTestSuite) TestExport_Empty() {
	w := suite.do("GET", "/api/income/export", suite.aliceTok, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "attachment; filename=income-report-2024-03-09.xlsx", w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(suite.T(), err)
	defer f.Close()

	rows, err := f.GetRows("Incomes")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), rows, 1)
	assert.Equal(suite.T(), []string{"Title", "Amount", "Date", "Description"}, rows[0])
}

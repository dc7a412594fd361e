package records

import (
	"bytes"
	"testing"
	"time"

	"finance-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func readRows(t *testing.T, buf *bytes.Buffer, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestExport_Expenses(t *testing.T) {
	rs := []models.Record{
		{Title: "Dinner", Amount: 32.5, Category: "Food", Date: time.Date(2024, 1, 20, 19, 0, 0, 0, time.UTC), Description: "with friends"},
		{Title: "Bus pass", Amount: 60, Category: "Transport", Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, models.KindExpense, rs))

	rows := readRows(t, &buf, "Expenses")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Title", "Amount", "Category", "Date", "Description"}, rows[0])
	assert.Equal(t, []string{"Dinner", "32.5", "Food", "1/20/2024", "with friends"}, rows[1])
	require.GreaterOrEqual(t, len(rows[2]), 4)
	assert.Equal(t, []string{"Bus pass", "60", "Transport", "1/5/2024"}, rows[2][:4])
}

func TestExport_Income(t *testing.T) {
	rs := []models.Record{
		{Title: "Salary", Amount: 4000, Date: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), Description: "December"},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, models.KindIncome, rs))

	rows := readRows(t, &buf, "Incomes")
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Title", "Amount", "Date", "Description"}, rows[0])
	assert.Equal(t, []string{"Salary", "4000", "12/31/2024", "December"}, rows[1])
}

func TestExport_EmptyIsHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, models.KindExpense, nil))
	assert.NotZero(t, buf.Len())

	rows := readRows(t, &buf, "Expenses")
	require.Len(t, rows, 1)
	assert.Equal(t, "Title", rows[0][0])
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 6, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "expense-report-2024-06-09.xlsx", ExportFilename(models.KindExpense, at))
	assert.Equal(t, "income-report-2024-06-09.xlsx", ExportFilename(models.KindIncome, at))
}

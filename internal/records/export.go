package records

import (
	"fmt"
	"io"
	"time"

	"finance-tracker/internal/models"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an exported workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type column struct {
	header string
	width  float64
	value  func(models.Record) any
}

var (
	colTitle       = column{"Title", 25, func(r models.Record) any { return r.Title }}
	colAmount      = column{"Amount", 15, func(r models.Record) any { return r.Amount }}
	colCategory    = column{"Category", 12, func(r models.Record) any { return r.Category }}
	colDate        = column{"Date", 12, func(r models.Record) any { return LocaleDate(r.Date) }}
	colDescription = column{"Description", 30, func(r models.Record) any { return r.Description }}
)

func columnsFor(kind models.Kind) []column {
	if kind == models.KindExpense {
		return []column{colTitle, colAmount, colCategory, colDate, colDescription}
	}
	return []column{colTitle, colAmount, colDate, colDescription}
}

// SheetName returns the worksheet name used for kind.
func SheetName(kind models.Kind) string {
	if kind == models.KindExpense {
		return "Expenses"
	}
	return "Incomes"
}

// LocaleDate formats t the way an en-US locale does, e.g. 1/5/2024.
func LocaleDate(t time.Time) string {
	return t.UTC().Format("1/2/2006")
}

// ExportFilename returns the attachment name for an export generated at t.
func ExportFilename(kind models.Kind, t time.Time) string {
	return fmt.Sprintf("%s-report-%s.xlsx", kind, t.UTC().Format(dateLayout))
}

// Export writes rs as a single-sheet xlsx workbook, one row per record in
// the given order, below a header row.
func Export(w io.Writer, kind models.Kind, rs []models.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(kind)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}

	cols := columnsFor(kind)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.header
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return errors.Wrap(err, "column name")
		}
		if err := f.SetColWidth(sheet, name, name, c.width); err != nil {
			return errors.Wrap(err, "column width")
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write header")
	}

	for i, r := range rs {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = c.value(r)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "cell name")
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "write row %d", i+2)
		}
	}

	return errors.Wrap(f.Write(w), "write workbook")
}

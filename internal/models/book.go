package models

// CategoryColumn is the synthetic column added to every row, holding
// the name of the sheet tab the row came from. The header matches the
// spreadsheet's own language.
const CategoryColumn = "CATEGORÍA"

// BookRow maps column headers to cell values for one spreadsheet row.
// Columns vary per sheet; the only guarantee is that the first sheet
// row held the headers.
type BookRow map[string]string

// Category returns the sheet tab the row was read from.
func (r BookRow) Category() string {
	return r[CategoryColumn]
}

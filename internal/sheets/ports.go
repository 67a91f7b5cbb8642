package sheets

import (
	"context"

	"finanse/internal/aggregate"
	"finanse/internal/core"
)

// Row is one exported transaction.
type Row struct {
	Date        core.Date
	Kind        core.Kind
	Description string
	Amount      core.Money
	Category    string
}

// Header names the exported columns in order.
var Header = []string{"Date", "Type", "Description", "Amount", "Category"}

// Ports for outbound adapters.
type (
	// TransactionExporter replaces the owner's exported ledger with rows and
	// returns a reference to where it was written.
	TransactionExporter interface {
		Export(ctx context.Context, owner string, rows []Row) (ref string, err error)
	}
)

// Rows joins transactions with their category names, newest first.
func Rows(txs []core.Transaction, cats []core.Category) []Row {
	sorted := aggregate.SortByDateDesc(txs)
	out := make([]Row, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, Row{
			Date:        t.Date,
			Kind:        t.Kind,
			Description: t.Description,
			Amount:      t.Amount,
			Category:    aggregate.ResolveCategory(t.CategoryID, cats).Name,
		})
	}
	return out
}

// Values renders rows as a header line followed by one line per row.
func Values(rows []Row) [][]any {
	out := make([][]any, 0, len(rows)+1)
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	out = append(out, header)
	for _, r := range rows {
		out = append(out, []any{r.Date.String(), string(r.Kind), r.Description, r.Amount.String(), r.Category})
	}
	return out
}

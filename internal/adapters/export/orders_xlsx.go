package export

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/phenrril/eshop/internal/domain"
)

const ordersSheet = "Orders"

var orderHeader = []any{"ID", "Created", "Order date", "Status", "Buying type", "First name", "Last name", "Phone", "Address", "Comment", "Cart"}

// WriteOrdersXLSX writes one row per order after a header row.
func WriteOrdersXLSX(w io.Writer, orders []domain.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &orderHeader); err != nil {
		return err
	}
	for i, o := range orders {
		cart := ""
		if o.CartID != nil {
			cart = o.CartID.String()
		}
		row := []any{
			o.ID.String(),
			o.CreatedAt.UTC().Format("2006-01-02 15:04"),
			o.OrderDate.Format("2006-01-02"),
			string(o.Status),
			string(o.BuyingType),
			o.FirstName,
			o.LastName,
			o.Phone,
			o.Address,
			o.Comment,
			cart,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(ordersSheet, "A", "A", 38)
	_ = f.SetColWidth(ordersSheet, "I", "J", 40)
	return f.Write(w)
}

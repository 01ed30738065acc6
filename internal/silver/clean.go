package silver

import (
	"cmp"
	"slices"
	"strings"

	"github.com/farxc/ecommerce_medallion/internal/normalize"
	"github.com/farxc/ecommerce_medallion/internal/table"
	"github.com/farxc/ecommerce_medallion/internal/types"
	"github.com/go-gota/gota/dataframe"
)

var (
	notShippedStatuses   = []string{"label_created"}
	notDeliveredStatuses = []string{"label_created", "in_transit", "lost"}
)

// Diagnostics describes what a cleaner corrected or discarded.
type Diagnostics struct {
	Entity                 types.Entity
	InputRows              int
	DroppedEmptyID         int
	DuplicatesRemoved      int
	InconsistentDeliveries int
	OutputRows             int
}

func CleanCustomers(df dataframe.DataFrame) (dataframe.DataFrame, Diagnostics) {
	rows, diag := Customers(df)
	return table.FromRecords(types.CustomerColumns, rows), diag
}

func CleanProducts(df dataframe.DataFrame) (dataframe.DataFrame, Diagnostics) {
	rows, diag := Products(df)
	return table.FromRecords(types.ProductColumns, rows), diag
}

func CleanOrders(df dataframe.DataFrame) (dataframe.DataFrame, Diagnostics) {
	rows, diag := Orders(df)
	return table.FromRecords(types.OrderColumns, rows), diag
}

func CleanOrderItems(df dataframe.DataFrame) (dataframe.DataFrame, Diagnostics) {
	rows, diag := OrderItems(df)
	return table.FromRecords(types.OrderItemColumns, rows), diag
}

func CleanShipments(df dataframe.DataFrame) (dataframe.DataFrame, Diagnostics) {
	rows, diag := ShipmentRecords(df)
	return table.FromRecords(types.ShipmentColumns, rows), diag
}

// Customers keeps the customer with the latest created_ts per customer_id.
// A missing phone column yields null phones.
func Customers(df dataframe.DataFrame) ([]types.Customer, Diagnostics) {
	acc := table.Columns(df)
	diag := Diagnostics{Entity: types.Customers, InputRows: acc.Len()}

	rows := make([]types.Customer, 0, acc.Len())
	for i := 0; i < acc.Len(); i++ {
		id, ok := requiredID(acc, "customer_id", i)
		if !ok {
			diag.DroppedEmptyID++
			continue
		}
		rows = append(rows, types.Customer{
			CustomerID: id,
			State:      normalize.StateCode(acc.Text("state", i)),
			City:       normalize.String(acc.Text("city", i)),
			CreatedTs:  normalize.Timestamp(acc.Text("created_ts", i)),
			Phone:      normalize.Phone(acc.Text("phone", i)),
			Provenance: provenance(acc, i),
		})
	}

	rows = latestPerKey(rows, func(c types.Customer) string { return c.CustomerID }, func(a, b types.Customer) int {
		return normalize.CompareTimeDesc(a.CreatedTs, b.CreatedTs)
	})
	diag.DuplicatesRemoved = diag.InputRows - diag.DroppedEmptyID - len(rows)
	diag.OutputRows = len(rows)
	return rows, diag
}

// Products keeps the product with the latest created_ts per product_id.
func Products(df dataframe.DataFrame) ([]types.Product, Diagnostics) {
	acc := table.Columns(df)
	diag := Diagnostics{Entity: types.Products, InputRows: acc.Len()}

	rows := make([]types.Product, 0, acc.Len())
	for i := 0; i < acc.Len(); i++ {
		id, ok := requiredID(acc, "product_id", i)
		if !ok {
			diag.DroppedEmptyID++
			continue
		}
		rows = append(rows, types.Product{
			ProductID:  id,
			Category:   normalize.String(acc.Text("category", i)),
			Brand:      normalize.String(acc.Text("brand", i)),
			CreatedTs:  normalize.Timestamp(acc.Text("created_ts", i)),
			Provenance: provenance(acc, i),
		})
	}

	rows = latestPerKey(rows, func(p types.Product) string { return p.ProductID }, func(a, b types.Product) int {
		return normalize.CompareTimeDesc(a.CreatedTs, b.CreatedTs)
	})
	diag.DuplicatesRemoved = diag.InputRows - diag.DroppedEmptyID - len(rows)
	diag.OutputRows = len(rows)
	return rows, diag
}

// Orders keeps one order per order_id: latest order_ts first, then lowest
// customer_id. Rows without order_id or customer_id are dropped.
func Orders(df dataframe.DataFrame) ([]types.Order, Diagnostics) {
	acc := table.Columns(df)
	diag := Diagnostics{Entity: types.Orders, InputRows: acc.Len()}

	rows := make([]types.Order, 0, acc.Len())
	for i := 0; i < acc.Len(); i++ {
		orderID, ok := requiredID(acc, "order_id", i)
		if !ok {
			diag.DroppedEmptyID++
			continue
		}
		customerID, ok := requiredID(acc, "customer_id", i)
		if !ok {
			diag.DroppedEmptyID++
			continue
		}
		rows = append(rows, types.Order{
			OrderID:       orderID,
			CustomerID:    customerID,
			OrderTs:       normalize.Timestamp(acc.Text("order_ts", i)),
			Status:        normalize.String(acc.Text("status", i)),
			PaymentMethod: normalize.String(acc.Text("payment_method", i)),
			TotalAmount:   normalize.Money(acc.Text("total_amount", i)),
			Currency:      normalize.String(acc.Text("currency", i)),
			SalesChannel:  normalize.String(acc.Text("sales_channel", i)),
			Provenance:    provenance(acc, i),
		})
	}

	rows = latestPerKey(rows, func(o types.Order) string { return o.OrderID }, func(a, b types.Order) int {
		if c := normalize.CompareTimeDesc(a.OrderTs, b.OrderTs); c != 0 {
			return c
		}
		return strings.Compare(a.CustomerID, b.CustomerID)
	})
	diag.DuplicatesRemoved = diag.InputRows - diag.DroppedEmptyID - len(rows)
	diag.OutputRows = len(rows)
	return rows, diag
}

// OrderItems keeps the first row per (order_id, product_id).
func OrderItems(df dataframe.DataFrame) ([]types.OrderItem, Diagnostics) {
	acc := table.Columns(df)
	diag := Diagnostics{Entity: types.OrderItems, InputRows: acc.Len()}

	rows := make([]types.OrderItem, 0, acc.Len())
	for i := 0; i < acc.Len(); i++ {
		orderID, ok := requiredID(acc, "order_id", i)
		if !ok {
			diag.DroppedEmptyID++
			continue
		}
		productID, ok := requiredID(acc, "product_id", i)
		if !ok {
			diag.DroppedEmptyID++
			continue
		}
		rows = append(rows, types.OrderItem{
			OrderID:        orderID,
			ProductID:      productID,
			Quantity:       normalize.Quantity(acc.Text("quantity", i)),
			UnitPrice:      normalize.Money(acc.Text("unit_price", i)),
			DiscountAmount: normalize.Money(acc.Text("discount_amount", i)),
			Provenance:     provenance(acc, i),
		})
	}

	rows = latestPerKey(rows, func(it types.OrderItem) string { return it.OrderID + "\x00" + it.ProductID }, func(a, b types.OrderItem) int {
		return 0
	})
	diag.DuplicatesRemoved = diag.InputRows - diag.DroppedEmptyID - len(rows)
	diag.OutputRows = len(rows)
	return rows, diag
}

// ShipmentRecords nulls timestamps the delivery status contradicts, keeps
// the most recently shipped row per order_id and finally clears both
// timestamps where shipped_ts is after delivered_ts.
func ShipmentRecords(df dataframe.DataFrame) ([]types.Shipment, Diagnostics) {
	acc := table.Columns(df)
	diag := Diagnostics{Entity: types.Shipments, InputRows: acc.Len()}

	rows := make([]types.Shipment, 0, acc.Len())
	for i := 0; i < acc.Len(); i++ {
		id, ok := requiredID(acc, "order_id", i)
		if !ok {
			diag.DroppedEmptyID++
			continue
		}

		status := normalize.String(acc.Text("delivery_status", i))
		shipped := acc.Text("shipped_ts", i)
		delivered := acc.Text("delivered_ts", i)
		if status.Valid && slices.Contains(notShippedStatuses, status.V) {
			shipped.Valid = false
			delivered.Valid = false
		}
		if status.Valid && slices.Contains(notDeliveredStatuses, status.V) {
			delivered.Valid = false
		}

		rows = append(rows, types.Shipment{
			OrderID:        id,
			Carrier:        normalize.String(acc.Text("carrier", i)),
			ShippingCost:   normalize.Money(acc.Text("shipping_cost", i)),
			ShippedTs:      normalize.Timestamp(shipped),
			DeliveredTs:    normalize.Timestamp(delivered),
			DeliveryStatus: status,
			Provenance:     provenance(acc, i),
		})
	}

	rows = latestPerKey(rows, func(s types.Shipment) string { return s.OrderID }, func(a, b types.Shipment) int {
		if c := normalize.CompareTimeDesc(a.ShippedTs, b.ShippedTs); c != 0 {
			return c
		}
		return normalize.CompareTimeDesc(a.DeliveredTs, b.DeliveredTs)
	})
	diag.DuplicatesRemoved = diag.InputRows - diag.DroppedEmptyID - len(rows)
	diag.InconsistentDeliveries = clearInconsistentDeliveries(rows)
	diag.OutputRows = len(rows)
	return rows, diag
}

// clearInconsistentDeliveries nulls both timestamps of every row shipped
// after it was delivered and returns how many rows it touched.
func clearInconsistentDeliveries(rows []types.Shipment) int {
	count := 0
	for i := range rows {
		s := &rows[i]
		if s.ShippedTs.Valid && s.DeliveredTs.Valid && s.ShippedTs.V.After(s.DeliveredTs.V) {
			s.ShippedTs.Valid = false
			s.DeliveredTs.Valid = false
			count++
		}
	}
	return count
}

// latestPerKey stable-sorts rows by key ascending and then by tiebreak, and
// keeps the first row of every run of equal keys.
func latestPerKey[T any](rows []T, key func(T) string, tiebreak func(a, b T) int) []T {
	slices.SortStableFunc(rows, func(a, b T) int {
		if c := cmp.Compare(key(a), key(b)); c != 0 {
			return c
		}
		return tiebreak(a, b)
	})

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if len(out) > 0 && key(out[len(out)-1]) == key(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func requiredID(acc *table.Accessor, col string, row int) (string, bool) {
	v := acc.Text(col, row)
	if !v.Valid || strings.TrimSpace(v.V) == "" {
		return "", false
	}
	return v.V, true
}

func provenance(acc *table.Accessor, row int) types.Provenance {
	return types.Provenance{
		SourceFolder:     acc.Text(types.ColSourceFolder, row),
		SourceFileName:   acc.Text(types.ColSourceFileName, row),
		SourceIngestDate: acc.Text(types.ColSourceIngestDate, row),
		SourceModifiedTs: acc.Text(types.ColSourceModifiedTs, row),
		ProcessedTs:      acc.Text(types.ColProcessedTs, row),
	}
}

package gold

import (
	"database/sql"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/farxc/ecommerce_medallion/internal/normalize"
	"github.com/farxc/ecommerce_medallion/internal/silver"
	"github.com/farxc/ecommerce_medallion/internal/table"
	"github.com/farxc/ecommerce_medallion/internal/types"
)

// Silver is the collapsed silver corpus: at most one row per entity key.
type Silver struct {
	Customers  []types.Customer
	Products   []types.Product
	Orders     []types.Order
	OrderItems []types.OrderItem
	Shipments  []types.Shipment
}

// Load reads every silver file, groups them by entity and keeps, per key,
// the row whose source file was modified last. Entities without files come
// back empty.
func (s *Stage) Load(silverFiles []string) (Silver, error) {
	const component = "Gold-Load"

	grouped := make(map[types.Entity][]*table.Accessor)
	for _, path := range silverFiles {
		entity, err := silver.Classify(filepath.Base(path))
		if err != nil {
			s.appLogger.Warn(component, "Skipping silver file: path=%s error=%v", path, err)
			continue
		}
		df, err := s.Reader.Read(files.FormatCSV, path)
		if err != nil {
			return Silver{}, err
		}
		grouped[entity] = append(grouped[entity], table.Columns(df))
	}

	for _, entity := range []types.Entity{types.Customers, types.OrderItems, types.Orders, types.Products, types.Shipments} {
		if len(grouped[entity]) == 0 {
			s.appLogger.Warn(component, "No silver files found: entity=%s", entity)
		}
	}

	var out Silver
	out.Customers = collapse(parseAll(grouped[types.Customers], parseCustomer),
		func(c types.Customer) string { return c.CustomerID },
		func(c types.Customer) types.Provenance { return c.Provenance })
	out.Products = collapse(parseAll(grouped[types.Products], parseProduct),
		func(p types.Product) string { return p.ProductID },
		func(p types.Product) types.Provenance { return p.Provenance })
	out.Orders = collapse(parseAll(grouped[types.Orders], parseOrder),
		func(o types.Order) string { return o.OrderID },
		func(o types.Order) types.Provenance { return o.Provenance })
	out.OrderItems = collapse(parseAll(grouped[types.OrderItems], parseOrderItem),
		func(i types.OrderItem) string { return i.OrderID + "\x00" + i.ProductID },
		func(i types.OrderItem) types.Provenance { return i.Provenance })
	out.Shipments = collapse(parseAll(grouped[types.Shipments], parseShipment),
		func(sh types.Shipment) string { return sh.OrderID },
		func(sh types.Shipment) types.Provenance { return sh.Provenance })
	return out, nil
}

// parseAll concatenates the rows of every table in order. Rows without a key
// are skipped.
func parseAll[T any](tables []*table.Accessor, parse func(*table.Accessor, int) (T, bool)) []T {
	var rows []T
	for _, acc := range tables {
		for i := 0; i < acc.Len(); i++ {
			if row, ok := parse(acc, i); ok {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

// collapse keeps the first row per key after a stable sort on the source
// modification time, latest first.
func collapse[T any](rows []T, key func(T) string, prov func(T) types.Provenance) []T {
	modified := make([]sql.Null[time.Time], len(rows))
	order := make([]int, len(rows))
	for i, row := range rows {
		modified[i] = normalize.Timestamp(prov(row).SourceModifiedTs)
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return normalize.CompareTimeDesc(modified[a], modified[b])
	})

	seen := make(map[string]struct{}, len(rows))
	out := make([]T, 0, len(rows))
	for _, idx := range order {
		k := key(rows[idx])
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, rows[idx])
	}
	return out
}

func requiredText(acc *table.Accessor, col string, row int) (string, bool) {
	v := acc.Text(col, row)
	if !v.Valid || strings.TrimSpace(v.V) == "" {
		return "", false
	}
	return v.V, true
}

func parseProvenance(acc *table.Accessor, row int) types.Provenance {
	return types.Provenance{
		SourceFolder:     acc.Text(types.ColSourceFolder, row),
		SourceFileName:   acc.Text(types.ColSourceFileName, row),
		SourceIngestDate: acc.Text(types.ColSourceIngestDate, row),
		SourceModifiedTs: acc.Text(types.ColSourceModifiedTs, row),
		ProcessedTs:      acc.Text(types.ColProcessedTs, row),
	}
}

func parseCustomer(acc *table.Accessor, row int) (types.Customer, bool) {
	id, ok := requiredText(acc, "customer_id", row)
	if !ok {
		return types.Customer{}, false
	}
	return types.Customer{
		CustomerID: id,
		State:      acc.Text("state", row),
		City:       acc.Text("city", row),
		CreatedTs:  normalize.Timestamp(acc.Text("created_ts", row)),
		Phone:      acc.Text("phone", row),
		Provenance: parseProvenance(acc, row),
	}, true
}

func parseProduct(acc *table.Accessor, row int) (types.Product, bool) {
	id, ok := requiredText(acc, "product_id", row)
	if !ok {
		return types.Product{}, false
	}
	return types.Product{
		ProductID:  id,
		Category:   acc.Text("category", row),
		Brand:      acc.Text("brand", row),
		CreatedTs:  normalize.Timestamp(acc.Text("created_ts", row)),
		Provenance: parseProvenance(acc, row),
	}, true
}

func parseOrder(acc *table.Accessor, row int) (types.Order, bool) {
	id, ok := requiredText(acc, "order_id", row)
	if !ok {
		return types.Order{}, false
	}
	customerID, _ := requiredText(acc, "customer_id", row)
	return types.Order{
		OrderID:       id,
		CustomerID:    customerID,
		OrderTs:       normalize.Timestamp(acc.Text("order_ts", row)),
		Status:        acc.Text("status", row),
		PaymentMethod: acc.Text("payment_method", row),
		TotalAmount:   normalize.Money(acc.Text("total_amount", row)),
		Currency:      acc.Text("currency", row),
		SalesChannel:  acc.Text("sales_channel", row),
		Provenance:    parseProvenance(acc, row),
	}, true
}

func parseOrderItem(acc *table.Accessor, row int) (types.OrderItem, bool) {
	orderID, ok := requiredText(acc, "order_id", row)
	if !ok {
		return types.OrderItem{}, false
	}
	productID, ok := requiredText(acc, "product_id", row)
	if !ok {
		return types.OrderItem{}, false
	}
	return types.OrderItem{
		OrderID:        orderID,
		ProductID:      productID,
		Quantity:       normalize.Quantity(acc.Text("quantity", row)),
		UnitPrice:      normalize.Money(acc.Text("unit_price", row)),
		DiscountAmount: normalize.Money(acc.Text("discount_amount", row)),
		Provenance:     parseProvenance(acc, row),
	}, true
}

func parseShipment(acc *table.Accessor, row int) (types.Shipment, bool) {
	id, ok := requiredText(acc, "order_id", row)
	if !ok {
		return types.Shipment{}, false
	}
	return types.Shipment{
		OrderID:        id,
		Carrier:        acc.Text("carrier", row),
		ShippingCost:   normalize.Money(acc.Text("shipping_cost", row)),
		ShippedTs:      normalize.Timestamp(acc.Text("shipped_ts", row)),
		DeliveredTs:    normalize.Timestamp(acc.Text("delivered_ts", row)),
		DeliveryStatus: acc.Text("delivery_status", row),
		Provenance:     parseProvenance(acc, row),
	}, true
}

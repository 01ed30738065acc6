package types

import (
	"database/sql"
	"strconv"

	"github.com/farxc/ecommerce_medallion/internal/normalize"
	"github.com/shopspring/decimal"
)

var (
	CustomerColumns  = withProvenance("customer_id", "state", "city", "created_ts", "phone")
	ProductColumns   = withProvenance("product_id", "category", "brand", "created_ts")
	OrderColumns     = withProvenance("order_id", "customer_id", "order_ts", "status", "payment_method", "total_amount", "currency", "sales_channel")
	OrderItemColumns = withProvenance("order_id", "product_id", "quantity", "unit_price", "discount_amount")
	ShipmentColumns  = withProvenance("order_id", "carrier", "shipping_cost", "shipped_ts", "delivered_ts", "delivery_status")
)

var (
	DimCustomerColumns   = []string{"customer_id", "state", "city", "created_ts"}
	DimProductColumns    = []string{"product_id", "category", "brand", "created_ts"}
	FactOrderItemColumns = []string{"order_id", "product_id", "quantity", "unit_price", "discount_amount", "item_net_amount"}
	FactOrderColumns     = []string{
		"order_id", "customer_id", "order_date", "order_ts",
		"gross_amount", "discount_total", "net_amount",
		"payment_method", "status_final", "carrier", "shipping_cost",
		"shipped_ts", "delivered_ts", "delivery_time_hours", "is_late",
	}
)

// SilverColumns returns the output column order of an entity.
func SilverColumns(e Entity) []string {
	switch e {
	case Customers:
		return CustomerColumns
	case OrderItems:
		return OrderItemColumns
	case Orders:
		return OrderColumns
	case Products:
		return ProductColumns
	case Shipments:
		return ShipmentColumns
	}
	return nil
}

func withProvenance(cols ...string) []string {
	out := make([]string, 0, len(cols)+len(ProvenanceColumns))
	out = append(out, cols...)
	return append(out, ProvenanceColumns...)
}

func (p Provenance) cells() []sql.Null[string] {
	return []sql.Null[string]{p.SourceFolder, p.SourceFileName, p.SourceIngestDate, p.SourceModifiedTs, p.ProcessedTs}
}

func (c Customer) Record() []sql.Null[string] {
	return append([]sql.Null[string]{
		normalize.Text(c.CustomerID),
		c.State,
		c.City,
		normalize.TimestampText(c.CreatedTs),
		c.Phone,
	}, c.Provenance.cells()...)
}

func (p Product) Record() []sql.Null[string] {
	return append([]sql.Null[string]{
		normalize.Text(p.ProductID),
		p.Category,
		p.Brand,
		normalize.TimestampText(p.CreatedTs),
	}, p.Provenance.cells()...)
}

func (o Order) Record() []sql.Null[string] {
	return append([]sql.Null[string]{
		normalize.Text(o.OrderID),
		normalize.Text(o.CustomerID),
		normalize.TimestampText(o.OrderTs),
		o.Status,
		o.PaymentMethod,
		normalize.MoneyText(o.TotalAmount),
		o.Currency,
		o.SalesChannel,
	}, o.Provenance.cells()...)
}

func (i OrderItem) Record() []sql.Null[string] {
	return append([]sql.Null[string]{
		normalize.Text(i.OrderID),
		normalize.Text(i.ProductID),
		normalize.Text(strconv.FormatInt(i.Quantity, 10)),
		normalize.MoneyText(i.UnitPrice),
		normalize.MoneyText(i.DiscountAmount),
	}, i.Provenance.cells()...)
}

func (s Shipment) Record() []sql.Null[string] {
	return append([]sql.Null[string]{
		normalize.Text(s.OrderID),
		s.Carrier,
		normalize.MoneyText(s.ShippingCost),
		normalize.TimestampText(s.ShippedTs),
		normalize.TimestampText(s.DeliveredTs),
		s.DeliveryStatus,
	}, s.Provenance.cells()...)
}

func (c DimCustomer) Record() []sql.Null[string] {
	return []sql.Null[string]{
		normalize.Text(c.CustomerID),
		c.State,
		c.City,
		normalize.TimestampText(c.CreatedTs),
	}
}

func (p DimProduct) Record() []sql.Null[string] {
	return []sql.Null[string]{
		normalize.Text(p.ProductID),
		p.Category,
		p.Brand,
		normalize.TimestampText(p.CreatedTs),
	}
}

func (f FactOrderItem) Record() []sql.Null[string] {
	return []sql.Null[string]{
		normalize.Text(f.OrderID),
		normalize.Text(f.ProductID),
		normalize.Text(strconv.FormatInt(f.Quantity, 10)),
		normalize.Text(f.UnitPrice.String()),
		normalize.Text(f.DiscountAmount.String()),
		normalize.Text(f.ItemNetAmount.StringFixed(2)),
	}
}

func (f FactOrder) Record() []sql.Null[string] {
	return []sql.Null[string]{
		normalize.Text(f.OrderID),
		normalize.Text(f.CustomerID),
		normalize.DateText(f.OrderDate),
		normalize.TimestampText(f.OrderTs),
		fixed(f.GrossAmount),
		fixed(f.DiscountTotal),
		fixed(f.NetAmount),
		f.PaymentMethod,
		f.StatusFinal,
		f.Carrier,
		normalize.MoneyText(f.ShippingCost),
		normalize.TimestampText(f.ShippedTs),
		normalize.TimestampText(f.DeliveredTs),
		hours(f.DeliveryTimeHours),
		flag(f.IsLate),
	}
}

func fixed(d decimal.NullDecimal) sql.Null[string] {
	if !d.Valid {
		return sql.Null[string]{}
	}
	return normalize.Text(d.Decimal.StringFixed(2))
}

func hours(h sql.Null[float64]) sql.Null[string] {
	if !h.Valid {
		return sql.Null[string]{}
	}
	return normalize.Text(strconv.FormatFloat(h.V, 'f', -1, 64))
}

func flag(b sql.Null[bool]) sql.Null[string] {
	if !b.Valid {
		return sql.Null[string]{}
	}
	return normalize.Text(strconv.FormatBool(b.V))
}

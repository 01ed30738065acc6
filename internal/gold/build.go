package gold

import (
	"cmp"
	"database/sql"
	"slices"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/types"
	"github.com/shopspring/decimal"
)

// LateThresholdHours is the delivery time above which a shipment is late.
const LateThresholdHours = 72.0

var hour = decimal.NewFromInt(int64(time.Hour))

// OrderAmounts holds the monetary rollup of one order's items.
type OrderAmounts struct {
	GrossAmount   decimal.Decimal
	DiscountTotal decimal.Decimal
	NetAmount     decimal.Decimal
}

// Logistics is a shipment with its derived delivery metrics.
type Logistics struct {
	Carrier           sql.Null[string]
	ShippingCost      decimal.Decimal
	ShippedTs         sql.Null[time.Time]
	DeliveredTs       sql.Null[time.Time]
	DeliveryTimeHours sql.Null[float64]
	IsLate            sql.Null[bool]
}

func DimCustomers(customers []types.Customer) []types.DimCustomer {
	out := make([]types.DimCustomer, 0, len(customers))
	for _, c := range customers {
		out = append(out, types.DimCustomer{
			CustomerID: c.CustomerID,
			State:      c.State,
			City:       c.City,
			CreatedTs:  c.CreatedTs,
		})
	}
	slices.SortStableFunc(out, func(a, b types.DimCustomer) int { return cmp.Compare(a.CustomerID, b.CustomerID) })
	return out
}

func DimProducts(products []types.Product) []types.DimProduct {
	out := make([]types.DimProduct, 0, len(products))
	for _, p := range products {
		out = append(out, types.DimProduct{
			ProductID: p.ProductID,
			Category:  p.Category,
			Brand:     p.Brand,
			CreatedTs: p.CreatedTs,
		})
	}
	slices.SortStableFunc(out, func(a, b types.DimProduct) int { return cmp.Compare(a.ProductID, b.ProductID) })
	return out
}

// FactOrderItems treats missing prices and discounts as 0 and derives
// item_net_amount = round(quantity*unit_price - discount_amount, 2).
func FactOrderItems(items []types.OrderItem) []types.FactOrderItem {
	out := make([]types.FactOrderItem, 0, len(items))
	for _, it := range items {
		price := orZero(it.UnitPrice)
		discount := orZero(it.DiscountAmount)
		out = append(out, types.FactOrderItem{
			OrderID:        it.OrderID,
			ProductID:      it.ProductID,
			Quantity:       it.Quantity,
			UnitPrice:      price,
			DiscountAmount: discount,
			ItemNetAmount:  decimal.NewFromInt(it.Quantity).Mul(price).Sub(discount).Round(2),
		})
	}
	slices.SortStableFunc(out, func(a, b types.FactOrderItem) int {
		if c := cmp.Compare(a.OrderID, b.OrderID); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return out
}

// AggregateAmounts sums gross and discount per order, each rounded to 2
// places, and derives net from the rounded values.
func AggregateAmounts(items []types.FactOrderItem) map[string]OrderAmounts {
	gross := make(map[string]decimal.Decimal)
	discount := make(map[string]decimal.Decimal)
	for _, it := range items {
		gross[it.OrderID] = gross[it.OrderID].Add(decimal.NewFromInt(it.Quantity).Mul(it.UnitPrice))
		discount[it.OrderID] = discount[it.OrderID].Add(it.DiscountAmount)
	}

	out := make(map[string]OrderAmounts, len(gross))
	for id, g := range gross {
		g = g.Round(2)
		d := discount[id].Round(2)
		out[id] = OrderAmounts{
			GrossAmount:   g,
			DiscountTotal: d,
			NetAmount:     g.Sub(d).Round(2),
		}
	}
	return out
}

// DeriveLogistics computes delivery_time_hours and is_late per order.
// Both stay null unless shipped_ts and delivered_ts are known.
func DeriveLogistics(shipments []types.Shipment) map[string]Logistics {
	out := make(map[string]Logistics, len(shipments))
	for _, s := range shipments {
		l := Logistics{
			Carrier:      s.Carrier,
			ShippingCost: orZero(s.ShippingCost),
			ShippedTs:    s.ShippedTs,
			DeliveredTs:  s.DeliveredTs,
		}
		if s.ShippedTs.Valid && s.DeliveredTs.Valid {
			elapsed := decimal.NewFromInt(int64(s.DeliveredTs.V.Sub(s.ShippedTs.V)))
			hours := elapsed.Div(hour).Round(2).InexactFloat64()
			l.DeliveryTimeHours = sql.Null[float64]{V: hours, Valid: true}
			l.IsLate = sql.Null[bool]{V: hours > LateThresholdHours, Valid: true}
		}
		out[s.OrderID] = l
	}
	return out
}

// FactOrders left-joins orders with their item amounts and logistics.
// Orders without items have null amounts; orders without a shipment have
// null shipment columns.
func FactOrders(orders []types.Order, amounts map[string]OrderAmounts, logistics map[string]Logistics) []types.FactOrder {
	out := make([]types.FactOrder, 0, len(orders))
	for _, o := range orders {
		f := types.FactOrder{
			OrderID:       o.OrderID,
			CustomerID:    o.CustomerID,
			OrderTs:       o.OrderTs,
			PaymentMethod: o.PaymentMethod,
			StatusFinal:   o.Status,
		}
		if o.OrderTs.Valid {
			ts := o.OrderTs.V.UTC()
			f.OrderDate = sql.Null[time.Time]{V: time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
		}
		if a, ok := amounts[o.OrderID]; ok {
			f.GrossAmount = decimal.NewNullDecimal(a.GrossAmount)
			f.DiscountTotal = decimal.NewNullDecimal(a.DiscountTotal)
			f.NetAmount = decimal.NewNullDecimal(a.NetAmount)
		}
		if l, ok := logistics[o.OrderID]; ok {
			f.Carrier = l.Carrier
			f.ShippingCost = decimal.NewNullDecimal(l.ShippingCost)
			f.ShippedTs = l.ShippedTs
			f.DeliveredTs = l.DeliveredTs
			f.DeliveryTimeHours = l.DeliveryTimeHours
			f.IsLate = l.IsLate
		}
		out = append(out, f)
	}
	slices.SortStableFunc(out, func(a, b types.FactOrder) int {
		if c := cmp.Compare(a.OrderID, b.OrderID); c != 0 {
			return c
		}
		return cmp.Compare(a.CustomerID, b.CustomerID)
	})
	return out
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

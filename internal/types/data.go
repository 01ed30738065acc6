// Package types holds the typed records of the silver and gold layers and
// the fixed column order each of them is written with.
package types

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type Entity int

const (
	Customers Entity = iota
	OrderItems
	Orders
	Products
	Shipments
)

// EntityNames is also the keyword a file name must contain to belong to the entity.
var EntityNames = map[Entity]string{
	Customers:  "customers",
	OrderItems: "order_items",
	Orders:     "orders",
	Products:   "products",
	Shipments:  "shipments",
}

func (e Entity) String() string {
	if name, ok := EntityNames[e]; ok {
		return name
	}
	return "unknown"
}

const (
	ColSourceFolder     = "_source_file_folder"
	ColSourceFileName   = "_source_file_name"
	ColSourceIngestDate = "_source_file_ingest_date"
	ColSourceModifiedTs = "_source_file_modified_ts"
	ColProcessedTs      = "_processed_ts"
)

// ProvenanceColumns close every bronze and silver row, in this order.
var ProvenanceColumns = []string{
	ColSourceFolder,
	ColSourceFileName,
	ColSourceIngestDate,
	ColSourceModifiedTs,
	ColProcessedTs,
}

// Provenance is carried as text from bronze into silver.
type Provenance struct {
	SourceFolder     sql.Null[string]
	SourceFileName   sql.Null[string]
	SourceIngestDate sql.Null[string]
	SourceModifiedTs sql.Null[string]
	ProcessedTs      sql.Null[string]
}

type Customer struct {
	CustomerID string
	State      sql.Null[string]
	City       sql.Null[string]
	CreatedTs  sql.Null[time.Time]
	Phone      sql.Null[string]
	Provenance
}

type Product struct {
	ProductID string
	Category  sql.Null[string]
	Brand     sql.Null[string]
	CreatedTs sql.Null[time.Time]
	Provenance
}

type Order struct {
	OrderID       string
	CustomerID    string
	OrderTs       sql.Null[time.Time]
	Status        sql.Null[string]
	PaymentMethod sql.Null[string]
	TotalAmount   decimal.NullDecimal
	Currency      sql.Null[string]
	SalesChannel  sql.Null[string]
	Provenance
}

type OrderItem struct {
	OrderID        string
	ProductID      string
	Quantity       int64
	UnitPrice      decimal.NullDecimal
	DiscountAmount decimal.NullDecimal
	Provenance
}

type Shipment struct {
	OrderID        string
	Carrier        sql.Null[string]
	ShippingCost   decimal.NullDecimal
	ShippedTs      sql.Null[time.Time]
	DeliveredTs    sql.Null[time.Time]
	DeliveryStatus sql.Null[string]
	Provenance
}

type DimCustomer struct {
	CustomerID string
	State      sql.Null[string]
	City       sql.Null[string]
	CreatedTs  sql.Null[time.Time]
}

type DimProduct struct {
	ProductID string
	Category  sql.Null[string]
	Brand     sql.Null[string]
	CreatedTs sql.Null[time.Time]
}

type FactOrderItem struct {
	OrderID        string
	ProductID      string
	Quantity       int64
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	ItemNetAmount  decimal.Decimal
}

// FactOrder amounts are null when the order has no items. Shipment fields
// are null when no shipment row matches the order.
type FactOrder struct {
	OrderID           string
	CustomerID        string
	OrderDate         sql.Null[time.Time]
	OrderTs           sql.Null[time.Time]
	GrossAmount       decimal.NullDecimal
	DiscountTotal     decimal.NullDecimal
	NetAmount         decimal.NullDecimal
	PaymentMethod     sql.Null[string]
	StatusFinal       sql.Null[string]
	Carrier           sql.Null[string]
	ShippingCost      decimal.NullDecimal
	ShippedTs         sql.Null[time.Time]
	DeliveredTs       sql.Null[time.Time]
	DeliveryTimeHours sql.Null[float64]
	IsLate            sql.Null[bool]
}

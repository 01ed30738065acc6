// Package gold builds the dimensional model from the silver corpus.
package gold

import (
	"fmt"

	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/farxc/ecommerce_medallion/internal/logger"
	"github.com/farxc/ecommerce_medallion/internal/table"
	"github.com/farxc/ecommerce_medallion/internal/types"
	"github.com/go-gota/gota/dataframe"
)

const (
	TableDimCustomers   = "dim_customers"
	TableDimProducts    = "dim_products"
	TableFactOrderItems = "fact_order_items"
	TableFactOrders     = "fact_orders"
)

// Tables lists the gold outputs in the order they are written.
var Tables = []string{TableDimCustomers, TableDimProducts, TableFactOrderItems, TableFactOrders}

var tableColumns = map[string][]string{
	TableDimCustomers:   types.DimCustomerColumns,
	TableDimProducts:    types.DimProductColumns,
	TableFactOrderItems: types.FactOrderItemColumns,
	TableFactOrders:     types.FactOrderColumns,
}

type Result struct {
	Outputs   map[string]string
	Rows      map[string]int
	Logistics LogisticsSummary
}

// Model holds the four gold tables.
type Model struct {
	DimCustomers   []types.DimCustomer
	DimProducts    []types.DimProduct
	FactOrderItems []types.FactOrderItem
	FactOrders     []types.FactOrder
	Logistics      map[string]Logistics
}

type Stage struct {
	OutputRoot string
	Reader     table.Reader

	appLogger *logger.Logger
}

func NewStage(outputRoot string, reader table.Reader, appLogger *logger.Logger) *Stage {
	return &Stage{
		OutputRoot: outputRoot,
		Reader:     reader,
		appLogger:  appLogger,
	}
}

// Build derives the gold model from collapsed silver rows.
func Build(in Silver) Model {
	items := FactOrderItems(in.OrderItems)
	logistics := DeriveLogistics(in.Shipments)
	return Model{
		DimCustomers:   DimCustomers(in.Customers),
		DimProducts:    DimProducts(in.Products),
		FactOrderItems: items,
		FactOrders:     FactOrders(in.Orders, AggregateAmounts(items), logistics),
		Logistics:      logistics,
	}
}

// Run loads the silver files, builds the model and writes the four gold tables.
func (s *Stage) Run(silverFiles []string) (Result, error) {
	const component = "Gold"
	s.appLogger.Info(component, "Building gold layer: silver_files=%d", len(silverFiles))

	in, err := s.Load(silverFiles)
	if err != nil {
		return Result{}, err
	}
	model := Build(in)

	frames := map[string]dataframe.DataFrame{
		TableDimCustomers:   table.FromRecords(types.DimCustomerColumns, model.DimCustomers),
		TableDimProducts:    table.FromRecords(types.DimProductColumns, model.DimProducts),
		TableFactOrderItems: table.FromRecords(types.FactOrderItemColumns, model.FactOrderItems),
		TableFactOrders:     table.FromRecords(types.FactOrderColumns, model.FactOrders),
	}

	result := Result{
		Outputs:   make(map[string]string, len(Tables)),
		Rows:      make(map[string]int, len(Tables)),
		Logistics: Summarize(model.Logistics),
	}
	for _, name := range Tables {
		out, err := s.tablePath(name)
		if err != nil {
			return result, err
		}
		df := frames[name]
		if err := table.Write(files.FormatCSV, out, df); err != nil {
			return result, fmt.Errorf("writing gold table %s: %w", name, err)
		}
		result.Outputs[name] = out
		result.Rows[name] = df.Nrow()
		s.appLogger.Info(component, "Wrote gold table: table=%s rows=%d path=%s", name, df.Nrow(), out)
	}

	l := result.Logistics
	s.appLogger.Info(component, "Logistics summary: shipments=%d delivered=%d late=%d mean_hours=%.2f max_hours=%.2f undelivered=%d",
		l.Shipments, l.Delivered, l.Late, l.MeanHours, l.MaxHours, l.Undelivered)
	return result, nil
}

func (s *Stage) tablePath(name string) (string, error) {
	return files.LayerPath(s.OutputRoot, files.LayerGold, name+"."+files.FormatCSV)
}

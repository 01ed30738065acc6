package silver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/farxc/ecommerce_medallion/internal/types"
	"github.com/go-gota/gota/dataframe"
)

var ErrUnrecognizedEntity = errors.New("unrecognized entity")

// classifyOrder is the match priority; order_items must win over orders.
var classifyOrder = []types.Entity{
	types.OrderItems,
	types.Orders,
	types.Customers,
	types.Products,
	types.Shipments,
}

// Cleaner turns a raw all-text table into the cleaned silver table of one entity.
type Cleaner func(df dataframe.DataFrame) (dataframe.DataFrame, Diagnostics)

var cleaners = map[types.Entity]Cleaner{
	types.Customers:  CleanCustomers,
	types.OrderItems: CleanOrderItems,
	types.Orders:     CleanOrders,
	types.Products:   CleanProducts,
	types.Shipments:  CleanShipments,
}

// Classify maps a file name to its entity by keyword.
func Classify(fileName string) (types.Entity, error) {
	name := strings.ToLower(fileName)
	for _, entity := range classifyOrder {
		if strings.Contains(name, types.EntityNames[entity]) {
			return entity, nil
		}
	}
	return 0, fmt.Errorf("%w: no cleaner for file %s", ErrUnrecognizedEntity, fileName)
}

// CleanerFor returns the cleaner registered for entity.
func CleanerFor(entity types.Entity) (Cleaner, error) {
	cleaner, ok := cleaners[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedEntity, entity)
	}
	return cleaner, nil
}

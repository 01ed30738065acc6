package gold

import (
	"gonum.org/v1/gonum/floats"
)

type LogisticsSummary struct {
	Shipments     int
	Delivered     int
	Late          int
	MeanHours     float64
	MaxHours      float64
	Undelivered   int
}

// Summarize aggregates the delivery metrics of every shipment. MeanHours and
// MaxHours are 0 when nothing was delivered.
func Summarize(logistics map[string]Logistics) LogisticsSummary {
	summary := LogisticsSummary{Shipments: len(logistics)}

	hours := make([]float64, 0, len(logistics))
	for _, l := range logistics {
		if !l.DeliveryTimeHours.Valid {
			summary.Undelivered++
			continue
		}
		hours = append(hours, l.DeliveryTimeHours.V)
		if l.IsLate.V {
			summary.Late++
		}
	}

	summary.Delivered = len(hours)
	if len(hours) > 0 {
		summary.MeanHours = floats.Sum(hours) / float64(len(hours))
		summary.MaxHours = floats.Max(hours)
	}
	return summary
}

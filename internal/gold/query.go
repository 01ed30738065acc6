package gold

import (
	"errors"
	"fmt"
	"slices"

	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/farxc/ecommerce_medallion/internal/table"
)

var ErrUnknownTable = errors.New("unknown gold table")

// Row maps column names to cell text; null cells are nil.
type Row = map[string]*string

// IsTable reports whether name is one of the gold tables.
func IsTable(name string) bool {
	return slices.Contains(Tables, name)
}

// ReadTable returns the first limit rows of a written gold table, or every
// row when limit <= 0.
func (s *Stage) ReadTable(name string, limit int) ([]string, []Row, error) {
	if !IsTable(name) {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	path, err := s.tablePath(name)
	if err != nil {
		return nil, nil, err
	}

	df, err := s.Reader.Read(files.FormatCSV, path)
	if err != nil {
		return nil, nil, err
	}

	acc := table.Columns(df)
	n := acc.Len()
	if limit > 0 && limit < n {
		n = limit
	}

	columns := tableColumns[name]
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		row := make(Row, len(columns))
		for _, col := range columns {
			if cell := acc.Text(col, i); cell.Valid {
				v := cell.V
				row[col] = &v
			} else {
				row[col] = nil
			}
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

package table

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/charmap"
)

// naMarker is how gota marks a missing string element.
const naMarker = "NaN"

var ErrEmptyFile = errors.New("file has no header")

// Reader loads CSV files as all-text tables. Empty cells become NA.
type Reader struct {
	// Windows1252 decodes input bytes as Windows-1252 instead of UTF-8.
	Windows1252 bool
}

// Read loads the file at path. Every column is read as text.
func (r Reader) Read(format, path string) (dataframe.DataFrame, error) {
	if err := files.CheckFormat(format); err != nil {
		return dataframe.DataFrame{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dataframe.DataFrame{}, fmt.Errorf("file %s: %w", path, files.ErrNotFound)
		}
		return dataframe.DataFrame{}, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	var src io.Reader = file
	if r.Windows1252 {
		src = charmap.Windows1252.NewDecoder().Reader(file)
	}

	df, err := Decode(src)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return df, nil
}

// Decode parses CSV content from src into an all-text dataframe.
func Decode(src io.Reader) (dataframe.DataFrame, error) {
	cr := csv.NewReader(src)
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, ErrEmptyFile
	}
	records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")

	if len(records) == 1 {
		return Empty(records[0]), nil
	}

	df := dataframe.LoadRecords(
		records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues([]string{""}),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// Write stores df as CSV at path, creating parent directories. NA cells are
// written as empty strings.
func Write(format, path string, df dataframe.DataFrame) error {
	if err := files.CheckFormat(format); err != nil {
		return err
	}
	if df.Err != nil {
		return fmt.Errorf("refusing to write invalid dataframe: %w", df.Err)
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer out.Close()

	if err := Encode(out, df); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

// Encode writes df as CSV to w.
func Encode(w io.Writer, df dataframe.DataFrame) error {
	cw := csv.NewWriter(w)

	names := df.Names()
	if err := cw.Write(names); err != nil {
		return err
	}

	acc := Columns(df)
	record := make([]string, len(names))
	for i := 0; i < acc.Len(); i++ {
		for j, name := range names {
			cell := acc.Text(name, i)
			if cell.Valid {
				record[j] = cell.V
			} else {
				record[j] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Empty returns a zero-row table with the given columns.
func Empty(columns []string) dataframe.DataFrame {
	cols := make([]series.Series, 0, len(columns))
	for _, name := range columns {
		cols = append(cols, series.New([]string{}, series.String, name))
	}
	return dataframe.New(cols...)
}

// Build assembles a text table from rows of nullable cells laid out in column order.
func Build(columns []string, rows [][]sql.Null[string]) dataframe.DataFrame {
	if len(rows) == 0 {
		return Empty(columns)
	}

	cols := make([]series.Series, 0, len(columns))
	for j, name := range columns {
		values := make([]string, len(rows))
		for i, row := range rows {
			if j < len(row) && row[j].Valid {
				values[i] = row[j].V
			} else {
				values[i] = naMarker
			}
		}
		cols = append(cols, series.New(values, series.String, name))
	}
	return dataframe.New(cols...)
}

// WithConstant sets column name to value on every row, replacing the column
// if it already exists.
func WithConstant(df dataframe.DataFrame, name, value string) dataframe.DataFrame {
	values := make([]string, df.Nrow())
	for i := range values {
		values[i] = value
	}
	return df.Mutate(series.New(values, series.String, name))
}

// Accessor reads cells of a dataframe by column name without copying columns per cell.
type Accessor struct {
	cols map[string]series.Series
	n    int
}

// Columns indexes the columns of df.
func Columns(df dataframe.DataFrame) *Accessor {
	acc := &Accessor{cols: make(map[string]series.Series, df.Ncol()), n: df.Nrow()}
	for _, name := range df.Names() {
		acc.cols[name] = df.Col(name)
	}
	return acc
}

// Len returns the number of rows.
func (a *Accessor) Len() int {
	return a.n
}

// Has reports whether the column exists.
func (a *Accessor) Has(col string) bool {
	_, ok := a.cols[col]
	return ok
}

// Text returns the cell as nullable text. Missing columns and NA cells are null.
func (a *Accessor) Text(col string, row int) sql.Null[string] {
	s, ok := a.cols[col]
	if !ok || row < 0 || row >= s.Len() {
		return sql.Null[string]{}
	}
	el := s.Elem(row)
	if el.IsNA() {
		return sql.Null[string]{}
	}
	return sql.Null[string]{V: el.String(), Valid: true}
}

// Recorder renders itself as one row of nullable cells.
type Recorder interface {
	Record() []sql.Null[string]
}

// FromRecords builds a table with the given columns from typed rows.
func FromRecords[T Recorder](columns []string, rows []T) dataframe.DataFrame {
	cells := make([][]sql.Null[string], len(rows))
	for i, row := range rows {
		cells[i] = row.Record()
	}
	return Build(columns, cells)
}

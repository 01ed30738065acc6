// Package bronze copies raw input files into the bronze layer, appending
// provenance columns.
package bronze

import (
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/farxc/ecommerce_medallion/internal/logger"
	"github.com/farxc/ecommerce_medallion/internal/normalize"
	"github.com/farxc/ecommerce_medallion/internal/table"
	"github.com/farxc/ecommerce_medallion/internal/types"
	"github.com/go-gota/gota/dataframe"
)

type Result struct {
	Input  string
	Output string
	Rows   int
}

type Stage struct {
	OutputRoot string
	Reader     table.Reader
	Now        func() time.Time

	appLogger *logger.Logger
}

func NewStage(outputRoot string, reader table.Reader, appLogger *logger.Logger) *Stage {
	return &Stage{
		OutputRoot: outputRoot,
		Reader:     reader,
		Now:        time.Now,
		appLogger:  appLogger,
	}
}

// Process reads one raw file and writes bronze/ingest_date=<d>/<base>_bronze.csv.
func (s *Stage) Process(inputPath string) (Result, error) {
	const component = "Bronze"
	result := Result{Input: inputPath}

	df, err := s.Reader.Read(files.FormatCSV, inputPath)
	if err != nil {
		return result, err
	}

	modified, err := files.ModifiedTime(inputPath)
	if err != nil {
		return result, err
	}

	ingestDate := files.ExtractIngestDate(inputPath)
	df = withProvenance(df, map[string]string{
		types.ColSourceFolder:     files.SourceFolder(inputPath),
		types.ColSourceFileName:   filepath.Base(inputPath),
		types.ColSourceIngestDate: ingestDate,
		types.ColSourceModifiedTs: normalize.FormatTimestamp(modified),
		types.ColProcessedTs:      normalize.FormatTimestamp(s.Now()),
	})
	if df.Err != nil {
		return result, fmt.Errorf("adding provenance to %s: %w", inputPath, df.Err)
	}

	name := files.BaseName(inputPath) + "_bronze." + files.FormatCSV
	out, err := files.LayerPath(s.OutputRoot, files.LayerBronze, path.Join(files.PartitionFolder(ingestDate), name))
	if err != nil {
		return result, err
	}
	if err := table.Write(files.FormatCSV, out, df); err != nil {
		return result, err
	}

	result.Output = out
	result.Rows = df.Nrow()
	s.appLogger.Info(component, "Ingested file: input=%s output=%s rows=%d ingest_date=%s", inputPath, out, result.Rows, ingestDate)
	return result, nil
}

// withProvenance appends the provenance columns at the end, in their fixed order.
func withProvenance(df dataframe.DataFrame, values map[string]string) dataframe.DataFrame {
	names := make([]string, 0, df.Ncol()+len(types.ProvenanceColumns))
	for _, name := range df.Names() {
		if _, ok := values[name]; !ok {
			names = append(names, name)
		}
	}
	names = append(names, types.ProvenanceColumns...)

	for _, col := range types.ProvenanceColumns {
		df = table.WithConstant(df, col, values[col])
	}
	return df.Select(names)
}

// Package silver cleans bronze files into typed, deduplicated silver tables.
package silver

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/farxc/ecommerce_medallion/internal/files"
	"github.com/farxc/ecommerce_medallion/internal/logger"
	"github.com/farxc/ecommerce_medallion/internal/normalize"
	"github.com/farxc/ecommerce_medallion/internal/table"
	"github.com/farxc/ecommerce_medallion/internal/types"
)

type Result struct {
	Input       string
	Output      string
	Diagnostics Diagnostics
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

// Process cleans one bronze file and writes it under
// silver/ingest_date=<d>/<base>_silver.csv.
func (s *Stage) Process(bronzePath string) (Result, error) {
	const component = "Silver"
	result := Result{Input: bronzePath}

	df, err := s.Reader.Read(files.FormatCSV, bronzePath)
	if err != nil {
		return result, err
	}

	entity, err := Classify(filepath.Base(bronzePath))
	if err != nil {
		return result, err
	}
	cleaner, err := CleanerFor(entity)
	if err != nil {
		return result, err
	}

	cleaned, diag := cleaner(df)
	cleaned = table.WithConstant(cleaned, types.ColProcessedTs, normalize.FormatTimestamp(s.Now()))
	if cleaned.Err != nil {
		return result, fmt.Errorf("stamping %s: %w", bronzePath, cleaned.Err)
	}
	result.Diagnostics = diag

	name := strings.ReplaceAll(files.BaseName(bronzePath), "_bronze", "") + "_silver." + files.FormatCSV
	partition := files.PartitionFolder(files.ExtractIngestDate(bronzePath))
	out, err := files.LayerPath(s.OutputRoot, files.LayerSilver, path.Join(partition, name))
	if err != nil {
		return result, err
	}
	if err := table.Write(files.FormatCSV, out, cleaned); err != nil {
		return result, err
	}
	result.Output = out

	s.appLogger.Info(component, "Cleaned file: entity=%s input=%s output=%s rows_in=%d rows_out=%d dropped_empty_id=%d duplicates=%d",
		entity, bronzePath, out, diag.InputRows, diag.OutputRows, diag.DroppedEmptyID, diag.DuplicatesRemoved)
	if diag.InconsistentDeliveries > 0 {
		s.appLogger.Warn(component, "Cleared shipment dates with delivered_ts before shipped_ts: file=%s rows=%d",
			bronzePath, diag.InconsistentDeliveries)
	}
	return result, nil
}

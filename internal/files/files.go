package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const FormatCSV = "csv"

const (
	LayerBronze = "bronze"
	LayerSilver = "silver"
	LayerGold   = "gold"
)

const (
	UnknownIngestDate = "unknown"
	ingestDateMarker  = "ingest_date="
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrUnsafePath        = errors.New("path outside output root")
	ErrInvalidLayer      = errors.New("invalid layer")
)

// CheckFormat fails with ErrUnsupportedFormat for anything other than csv.
func CheckFormat(format string) error {
	if !strings.EqualFold(format, FormatCSV) {
		return fmt.Errorf("%w: %q (only %q is accepted)", ErrUnsupportedFormat, format, FormatCSV)
	}
	return nil
}

// ListFiles walks dir recursively and returns every file with the given
// extension, in lexical order.
func ListFiles(dir, format string) ([]string, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory %s: %w", dir, ErrNotFound)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	suffix := "." + strings.ToLower(format)
	var found []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(strings.ToLower(d.Name()), suffix) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	return found, nil
}

// ExtractIngestDate returns the value after "ingest_date=" in the name of the
// file's parent folder, or "unknown".
func ExtractIngestDate(path string) string {
	folder := filepath.Base(filepath.Dir(path))
	idx := strings.LastIndex(folder, ingestDateMarker)
	if idx < 0 {
		return UnknownIngestDate
	}
	date := folder[idx+len(ingestDateMarker):]
	if date == "" {
		return UnknownIngestDate
	}
	return date
}

// PartitionFolder returns the partition folder name for an ingest date.
func PartitionFolder(ingestDate string) string {
	if ingestDate == "" {
		ingestDate = UnknownIngestDate
	}
	return ingestDateMarker + ingestDate
}

// BaseName returns the file name without directory and extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// SourceFolder returns the cleaned, slash-separated parent directory of path.
func SourceFolder(path string) string {
	return filepath.ToSlash(filepath.Clean(filepath.Dir(path)))
}

// LayerPath builds <outputRoot>/<layer>/<name> after validating the layer name.
func LayerPath(outputRoot, layer, name string) (string, error) {
	switch strings.ToLower(layer) {
	case LayerBronze, LayerSilver, LayerGold:
	default:
		return "", fmt.Errorf("%w: %q (expected %s, %s or %s)", ErrInvalidLayer, layer, LayerBronze, LayerSilver, LayerGold)
	}
	return filepath.Join(outputRoot, strings.ToLower(layer), filepath.FromSlash(name)), nil
}

// IsWithin reports whether target equals root or lies below it.
func IsWithin(root, target string) (bool, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return false, err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false, err
	}
	absRoot = filepath.Clean(absRoot)
	absTarget = filepath.Clean(absTarget)

	if absTarget == absRoot {
		return true, nil
	}
	return strings.HasPrefix(absTarget, absRoot+string(os.PathSeparator)), nil
}

// CleanDirectory removes dir and recreates it empty. It refuses to touch
// anything that is not root itself or inside root.
func CleanDirectory(root, dir string) error {
	inside, err := IsWithin(root, dir)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", dir, err)
	}
	if !inside {
		return fmt.Errorf("%w: refusing to clear %s (root is %s)", ErrUnsafePath, dir, root)
	}

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return os.MkdirAll(dir, os.ModePerm)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	return os.MkdirAll(dir, os.ModePerm)
}

// ModifiedTime returns the file modification time in UTC.
func ModifiedTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, fmt.Errorf("file %s: %w", path, ErrNotFound)
		}
		return time.Time{}, err
	}
	return info.ModTime().UTC(), nil
}

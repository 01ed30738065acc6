package normalize

import (
	"database/sql"
	"time"
)

// CompareTimeDesc orders later instants first and nulls last.
func CompareTimeDesc(a, b sql.Null[time.Time]) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return 1
	case !b.Valid:
		return -1
	}
	return b.V.Compare(a.V)
}

package dataprocessing

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"engageboard/pkg/contracts/domain"
)

// ErrMissingFields is matched by every SchemaError
var ErrMissingFields = errors.New("required fields not mapped")

// SchemaError reports the fields of a table that could not be resolved
type SchemaError struct {
	Table   domain.TableKind
	Missing []domain.Field
}

func (e *SchemaError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = f.Label()
	}
	return fmt.Sprintf("%s table: missing required fields: %s", e.Table, strings.Join(names, ", "))
}

// Is lets errors.Is(err, ErrMissingFields) match
func (e *SchemaError) Is(target error) bool {
	return target == ErrMissingFields
}

// Validate returns the required fields that are unmapped or whose mapped column
// is not present in the table, in canonical field order. An empty result means
// the table can be read.
func Validate(table *domain.Table, mapping domain.Mapping, required []domain.Field) []domain.Field {
	var missing []domain.Field
	for _, field := range required {
		col, ok := mapping.Column(field)
		if !ok || table == nil || !table.HasColumn(col) {
			missing = append(missing, field)
		}
	}
	sort.SliceStable(missing, func(i, j int) bool {
		return missing[i].Order() < missing[j].Order()
	})
	return missing
}

// columnIndexes resolves every mapped field to its column position, skipping
// fields whose column is absent.
func columnIndexes(table *domain.Table, mapping domain.Mapping) map[domain.Field]int {
	idx := make(map[domain.Field]int, len(mapping))
	for field, col := range mapping {
		if col == "" {
			continue
		}
		if i := table.ColumnIndex(col); i >= 0 {
			idx[field] = i
		}
	}
	return idx
}

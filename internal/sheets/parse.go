package sheets

import (
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/fpang/pitch-scorer/internal/apperr"
)

// ParseOptions controls how a raw value grid becomes records.
type ParseOptions struct {
	IDColumn string
	Renames  map[string]string
}

// ParseValues converts a header-first value grid into records. Short rows
// are padded with empty cells. Duplicate headers get a ".1", ".2" suffix so
// repeated question titles stay addressable. Rows whose id does not parse
// are dropped. A grid without the id column is a source failure.
func ParseValues(values [][]interface{}, opts ParseOptions) ([]Record, error) {
	if len(values) == 0 {
		return nil, nil
	}

	columns := headerColumns(values[0], opts.Renames)
	idIdx := -1
	for i, c := range columns {
		if c == opts.IDColumn {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, apperr.Mark(
			apperr.Newf("id column %q not found in sheet header", opts.IDColumn),
			apperr.ErrSourceUnavailable)
	}

	records := make([]Record, 0, len(values)-1)
	dropped := 0
	for i, row := range values[1:] {
		var rawID interface{}
		if idIdx < len(row) {
			rawID = row[idIdx]
		}
		id, ok := ParseID(rawID)
		if !ok {
			dropped++
			log.Debug().Int("row", i+2).Interface("value", rawID).Msg("Skipping row with invalid application id")
			continue
		}

		fields := make(map[string]string, len(columns))
		for c, name := range columns {
			var cell interface{}
			if c < len(row) {
				cell = row[c]
			}
			fields[name] = cellString(cell)
		}
		records = append(records, Record{
			ID:      id,
			Row:     i + 2,
			Fields:  fields,
			Columns: columns,
		})
	}

	if dropped > 0 {
		log.Info().Int("dropped", dropped).Int("kept", len(records)).Msg("Dropped rows without a valid application id")
	}
	return records, nil
}

func headerColumns(header []interface{}, renames map[string]string) []string {
	seen := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, h := range header {
		name := cellString(h)
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		} else {
			seen[name] = 0
		}
		if to, ok := renames[name]; ok {
			name = to
		}
		columns[i] = name
	}
	return columns
}

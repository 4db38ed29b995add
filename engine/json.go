package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/satishbabariya/dataql/query/executor"
	"github.com/satishbabariya/dataql/query/statement"
)

// EncodeJSON renders a row set as a JSON array of objects keyed by the
// camelCase column names. A repeated key gets a numeric suffix, so
// "id, email, id" encodes as "id", "email" and "id2". It returns nil when
// there are no rows.
func EncodeJSON(set *executor.RowSet) ([]byte, error) {
	if !set.HasResultSet() || set.Len() == 0 {
		return nil, nil
	}

	keys := jsonKeys(set.Columns)

	records := make([]map[string]any, len(set.Rows))
	for i, row := range set.Rows {
		record := make(map[string]any, len(keys))
		for j, key := range keys {
			if j < len(row) {
				record[key] = jsonValue(row[j])
			}
		}
		records[i] = record
	}

	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return data, nil
}

func jsonKeys(columns []string) []string {
	keys := make([]string, len(columns))
	used := make(map[string]bool, len(columns))
	for i, col := range columns {
		key := statement.ToCamelCase(col)
		for n := 2; used[key]; n++ {
			key = statement.ToCamelCase(col) + strconv.Itoa(n)
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}

func jsonValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

package service

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb/v2"
)

// normalizeValue maps a driver value onto a JSON scalar: string, number,
// bool or nil. Composite values are rendered as JSON text.
func normalizeValue(v any) any {
	return normalizeTyped(v, "")
}

// normalizeTyped is normalizeValue with the column's database type name,
// used where the Go value alone is ambiguous (sqlite booleans, duckdb UUIDs).
func normalizeTyped(v any, dbType string) any {
	dbType = strings.ToUpper(dbType)
	switch typed := v.(type) {
	case nil, string, bool:
		return typed
	case []byte:
		if dbType == "UUID" && len(typed) == 16 {
			if id, err := uuid.FromBytes(typed); err == nil {
				return id.String()
			}
		}
		return string(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	case time.Duration:
		return typed.String()
	case duckdb.Decimal:
		if typed.Value == nil {
			return nil
		}
		return typed.Float64()
	case *duckdb.Decimal:
		if typed == nil || typed.Value == nil {
			return nil
		}
		return typed.Float64()
	case duckdb.Interval:
		return fmt.Sprintf("%d months %d days %d microseconds", typed.Months, typed.Days, typed.Micros)
	case duckdb.UUID:
		return typed.String()
	case *big.Int:
		if typed == nil {
			return nil
		}
		if typed.IsInt64() {
			return typed.Int64()
		}
		return typed.String()
	case *big.Rat:
		if typed == nil {
			return nil
		}
		f, _ := typed.Float64()
		return f
	case float64:
		return finite(typed)
	case float32:
		return finite(float64(typed))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if dbType == "BOOLEAN" || dbType == "BOOL" {
			return rv.Int() != 0
		}
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.String()
	}

	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprint(v)
}

// finite keeps NaN and infinities out of the JSON encoder
func finite(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return f
}

// uniqueColumns renames repeated column names so every column has its own row
// key: the second product_id becomes product_id_2, skipping names already taken.
func uniqueColumns(columns []string) []string {
	out := make([]string, len(columns))
	taken := make(map[string]bool, len(columns))
	for _, c := range columns {
		taken[c] = true
	}
	seen := make(map[string]int, len(columns))
	for i, c := range columns {
		seen[c]++
		if seen[c] == 1 {
			out[i] = c
			continue
		}
		n := seen[c]
		name := fmt.Sprintf("%s_%d", c, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s_%d", c, n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

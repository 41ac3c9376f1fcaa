// Package schema holds the static description of the tables the SQL generator
// may query. The text rendered by Describe is prompt context, not a parsed
// contract, so it must change in lockstep with the seeded tables.
package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopql/shopql/internal/models"
)

// Column is one column of a table
type Column struct {
	Name string
	Type string
}

// Table is one queryable table
type Table struct {
	Name    string
	Columns []Column
}

// Schema is the immutable set of tables available to the SQL generator
type Schema struct {
	Tables []Table
}

// Default returns the e-commerce schema backing the demo data set.
func Default() *Schema {
	return &Schema{Tables: []Table{
		{
			Name: "ad_sales",
			Columns: []Column{
				{"product_id", "TEXT"},
				{"date", "TEXT"},
				{"ad_spend", "REAL"},
				{"ad_sales", "REAL"},
				{"clicks", "INTEGER"},
				{"impressions", "INTEGER"},
			},
		},
		{
			Name: "total_sales",
			Columns: []Column{
				{"product_id", "TEXT"},
				{"date", "TEXT"},
				{"total_sales_units", "INTEGER"},
				{"total_sales_revenue", "REAL"},
			},
		},
		{
			Name: "eligibility",
			Columns: []Column{
				{"product_id", "TEXT"},
				{"product_name", "TEXT"},
				{"is_eligible", "BOOLEAN"},
			},
		},
	}}
}

// Describe renders the schema as the multi-line block handed to the SQL generator:
//
//	- table_name (col TYPE, col TYPE, ...)
func (s *Schema) Describe() string {
	var sb strings.Builder
	for _, t := range s.Tables {
		cols := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = c.Name + " " + c.Type
		}
		fmt.Fprintf(&sb, "- %s (%s)\n", t.Name, strings.Join(cols, ", "))
	}
	return sb.String()
}

// Table looks a table up by name, ignoring case
func (s *Schema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Table{}, false
}

// Info converts the registry into its wire form
func (s *Schema) Info() []models.TableInfo {
	out := make([]models.TableInfo, len(s.Tables))
	for i, t := range s.Tables {
		out[i] = TableToInfo(t)
	}
	return out
}

// TableToInfo converts one table into its wire form
func TableToInfo(t Table) models.TableInfo {
	cols := make([]models.ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = models.ColumnInfo{Name: c.Name, Type: c.Type}
	}
	return models.TableInfo{Name: t.Name, Columns: cols}
}

var (
	reStringLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)
	reTableRef      = regexp.MustCompile("(?i)\\b(?:from|join)\\s+(\"[^\"]+\"|`[^`]+`|[A-Za-z_][\\w.]*)(\\s*\\()?")
	reCTEName       = regexp.MustCompile(`(?i)(?:\bwith\s+(?:recursive\s+)?|,\s*)([A-Za-z_]\w*)\s+as\s*\(`)
)

// CheckReferences returns an error naming the first table referenced after
// FROM or JOIN that is neither a known table nor a CTE declared in the same
// statement. It is a lexical check; string literals are ignored and
// identifiers that are known column names are tolerated so that
// EXTRACT(x FROM col) style expressions pass.
func (s *Schema) CheckReferences(sql string) error {
	text := reStringLiteral.ReplaceAllString(sql, "''")

	known := make(map[string]bool)
	for _, t := range s.Tables {
		known[strings.ToLower(t.Name)] = true
		for _, c := range t.Columns {
			known[strings.ToLower(c.Name)] = true
		}
	}
	for _, m := range reCTEName.FindAllStringSubmatch(text, -1) {
		known[strings.ToLower(m[1])] = true
	}

	for _, m := range reTableRef.FindAllStringSubmatch(text, -1) {
		if m[2] != "" {
			// table-valued function call
			continue
		}
		name := strings.Trim(m[1], "\"`")
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		if !known[strings.ToLower(name)] {
			return fmt.Errorf("unknown table %q", name)
		}
	}
	return nil
}

package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopql/shopql/internal/schema"
)

func TestDescribe(t *testing.T) {
	got := schema.Default().Describe()

	lines := strings.Split(strings.TrimSpace(got), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "- ad_sales (product_id TEXT, date TEXT, ad_spend REAL, ad_sales REAL, clicks INTEGER, impressions INTEGER)", lines[0])
	assert.Equal(t, "- total_sales (product_id TEXT, date TEXT, total_sales_units INTEGER, total_sales_revenue REAL)", lines[1])
	assert.Equal(t, "- eligibility (product_id TEXT, product_name TEXT, is_eligible BOOLEAN)", lines[2])
}

func TestDescribeIsStable(t *testing.T) {
	s := schema.Default()
	assert.Equal(t, s.Describe(), s.Describe())
}

func TestTableLookup(t *testing.T) {
	s := schema.Default()

	tbl, ok := s.Table("TOTAL_SALES")
	require.True(t, ok)
	assert.Equal(t, "total_sales", tbl.Name)
	assert.Len(t, tbl.Columns, 4)

	_, ok = s.Table("customers")
	assert.False(t, ok)
}

func TestInfo(t *testing.T) {
	info := schema.Default().Info()
	require.Len(t, info, 3)
	assert.Equal(t, "eligibility", info[2].Name)
	assert.Equal(t, "is_eligible", info[2].Columns[2].Name)
	assert.Equal(t, "BOOLEAN", info[2].Columns[2].Type)
}

func TestCheckReferences(t *testing.T) {
	s := schema.Default()

	valid := []string{
		"SELECT SUM(total_sales_revenue) AS total_revenue FROM total_sales WHERE date >= date('now', '-7 days')",
		"SELECT e.product_name, SUM(a.ad_spend) * 1.0 / NULLIF(SUM(a.clicks), 0) AS cpc FROM ad_sales a JOIN eligibility e ON a.product_id = e.product_id GROUP BY e.product_name",
		"WITH daily AS (SELECT date, SUM(ad_sales) AS s FROM ad_sales GROUP BY date) SELECT * FROM daily",
		"SELECT EXTRACT(YEAR FROM date) FROM total_sales",
		"SELECT * FROM \"total_sales\"",
		"SELECT * FROM shop.total_sales",
		"SELECT 'from customers' AS note FROM eligibility",
		"SELECT * FROM generate_series(1, 3)",
	}
	for _, sql := range valid {
		assert.NoError(t, s.CheckReferences(sql), sql)
	}

	err := s.CheckReferences("SELECT * FROM customers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customers")

	err = s.CheckReferences("SELECT * FROM total_sales t JOIN refunds r ON r.product_id = t.product_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refunds")
}

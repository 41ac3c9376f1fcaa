package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newSQLMock(t *testing.T) (*SQLService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLService(db, "sqlite", time.Second), mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}

func TestSQLServiceExecuteKeepsColumnOrder(t *testing.T) {
	svc, mock := newSQLMock(t)
	day := time.Date(2024, 7, 13, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT product_name, cpc, day, note FROM x`)).
		WillReturnRows(sqlmock.NewRows([]string{"product_name", "cpc", "day", "note"}).
			AddRow([]byte("SuperWidget"), 0.34, day, nil).
			AddRow("MegaGadget", 0.38, day, "top"))

	got, err := svc.Execute(context.Background(), "SELECT product_name, cpc, day, note FROM x")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	wantCols := []string{"product_name", "cpc", "day", "note"}
	if len(got.Columns) != len(wantCols) {
		t.Fatalf("Columns = %v", got.Columns)
	}
	for i, c := range wantCols {
		if got.Columns[i] != c {
			t.Fatalf("Columns = %v, want %v", got.Columns, wantCols)
		}
	}
	if len(got.Rows) != 2 {
		t.Fatalf("rows = %d", len(got.Rows))
	}
	if got.Rows[0]["product_name"] != "SuperWidget" {
		t.Fatalf("[]byte not converted: %#v", got.Rows[0]["product_name"])
	}
	if got.Rows[0]["day"] != "2024-07-13T00:00:00Z" {
		t.Fatalf("time not formatted: %#v", got.Rows[0]["day"])
	}
	if got.Rows[0]["note"] != nil {
		t.Fatalf("null not kept: %#v", got.Rows[0]["note"])
	}
	assertSQLMock(t, mock)
}

func TestSQLServiceExecuteZeroRows(t *testing.T) {
	svc, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT product_id FROM ad_sales WHERE 1 = 0`)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id"}))

	got, err := svc.Execute(context.Background(), "SELECT product_id FROM ad_sales WHERE 1 = 0")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.Columns == nil || got.Rows == nil || len(got.Columns) != 0 || len(got.Rows) != 0 {
		t.Fatalf("want empty non-nil result, got %#v", got)
	}
	assertSQLMock(t, mock)
}

func TestSQLServiceExecuteError(t *testing.T) {
	svc, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT nope FROM ad_sales`)).
		WillReturnError(errors.New("no such column: nope"))

	_, err := svc.Execute(context.Background(), "SELECT nope FROM ad_sales")
	if err == nil || err.Error() != "no such column: nope" {
		t.Fatalf("Execute() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestSQLServiceExecuteEmptySQL(t *testing.T) {
	svc, _ := newSQLMock(t)
	if _, err := svc.Execute(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty sql")
	}
}

func TestSQLServicePing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	mock.ExpectPing()

	if err := NewSQLService(db, "postgres", 0).Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	assertSQLMock(t, mock)
}

func TestSQLDriverName(t *testing.T) {
	cases := map[string]string{"sqlite": "sqlite", "duckdb": "duckdb", "postgres": "pgx"}
	for in, want := range cases {
		got, err := sqlDriverName(in)
		if err != nil || got != want {
			t.Errorf("sqlDriverName(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := sqlDriverName("oracle"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func openMemorySQLite(t *testing.T) *SQLService {
	t.Helper()
	db, err := OpenDB(context.Background(), DBConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLService(db, "sqlite", 5*time.Second)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := openMemorySQLite(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := Seed(ctx, svc.DB(), QuestionMark); err != nil {
			t.Fatalf("Seed() run %d error = %v", i+1, err)
		}
	}

	counts := map[string]int64{"ad_sales": 10, "total_sales": 10, "eligibility": 3}
	for table, want := range counts {
		got, err := svc.Execute(ctx, "SELECT COUNT(*) AS n FROM "+table)
		if err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if got.Rows[0]["n"] != want {
			t.Fatalf("%s rows = %v, want %d", table, got.Rows[0]["n"], want)
		}
	}
}

func TestSeededRevenueAndCPC(t *testing.T) {
	svc := openMemorySQLite(t)
	ctx := context.Background()
	if err := Seed(ctx, svc.DB(), QuestionMark); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	revenue, err := svc.Execute(ctx, "SELECT SUM(total_sales_revenue) AS total_revenue FROM total_sales")
	if err != nil {
		t.Fatalf("revenue query: %v", err)
	}
	if revenue.Rows[0]["total_revenue"] != float64(67400) {
		t.Fatalf("total_revenue = %#v", revenue.Rows[0]["total_revenue"])
	}

	cpc, err := svc.Execute(ctx, `
SELECT e.product_name, SUM(a.ad_spend) * 1.0 / NULLIF(SUM(a.clicks), 0) AS cpc
FROM ad_sales a JOIN eligibility e ON a.product_id = e.product_id
GROUP BY e.product_name
ORDER BY cpc DESC`)
	if err != nil {
		t.Fatalf("cpc query: %v", err)
	}
	if len(cpc.Rows) != 3 {
		t.Fatalf("cpc rows = %d", len(cpc.Rows))
	}
	if cpc.Columns[0] != "product_name" || cpc.Columns[1] != "cpc" {
		t.Fatalf("columns = %v", cpc.Columns)
	}
	if cpc.Rows[0]["product_name"] != "MegaGadget" {
		t.Fatalf("highest cpc product = %v", cpc.Rows[0]["product_name"])
	}
}

func TestExecuteReportsEngineError(t *testing.T) {
	svc := openMemorySQLite(t)
	_, err := svc.Execute(context.Background(), "SELECT * FROM refunds")
	if err == nil {
		t.Fatal("expected error for unknown table")
	}
}

func TestPlaceholders(t *testing.T) {
	if got := params(QuestionMark, 3); got != "(?, ?, ?)" {
		t.Fatalf("params(?) = %q", got)
	}
	if got := params(DollarN, 3); got != "($1, $2, $3)" {
		t.Fatalf("params($) = %q", got)
	}
	if PlaceholderFor("postgres")(2) != "$2" || PlaceholderFor("duckdb")(2) != "?" {
		t.Fatal("PlaceholderFor picked the wrong style")
	}
}

func TestSQLiteBooleansComeBackAsBool(t *testing.T) {
	svc := openMemorySQLite(t)
	ctx := context.Background()
	if err := Seed(ctx, svc.DB(), QuestionMark); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	got, err := svc.Execute(ctx, "SELECT product_id, is_eligible FROM eligibility ORDER BY product_id")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := []interface{}{true, true, false}
	for i, row := range got.Rows {
		if row["is_eligible"] != want[i] {
			t.Fatalf("row %d is_eligible = %#v, want %v", i, row["is_eligible"], want[i])
		}
	}
}

func TestDuplicateColumnNamesKeepEveryValue(t *testing.T) {
	svc := openMemorySQLite(t)
	ctx := context.Background()
	if err := Seed(ctx, svc.DB(), QuestionMark); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	got, err := svc.Execute(ctx, `SELECT * FROM ad_sales a JOIN eligibility e ON a.product_id = e.product_id LIMIT 1`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(got.Columns) != 9 {
		t.Fatalf("columns = %v", got.Columns)
	}
	if len(got.Rows[0]) != len(got.Columns) {
		t.Fatalf("row has %d keys for %d columns", len(got.Rows[0]), len(got.Columns))
	}
	for _, c := range got.Columns {
		if _, ok := got.Rows[0][c]; !ok {
			t.Fatalf("row is missing column %q", c)
		}
	}
	if got.Columns[0] != "product_id" || got.Columns[6] != "product_id_2" {
		t.Fatalf("columns = %v", got.Columns)
	}
}

func openMemoryDuckDB(t *testing.T) *SQLService {
	t.Helper()
	db, err := OpenDB(context.Background(), DBConfig{Driver: "duckdb", DSN: "", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLService(db, "duckdb", 5*time.Second)
}

func TestDuckDBValuesAreScalars(t *testing.T) {
	svc := openMemoryDuckDB(t)
	ctx := context.Background()
	if err := Seed(ctx, svc.DB(), QuestionMark); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	spend, err := svc.Execute(ctx, `
SELECT product_id, ROUND(SUM(ad_spend)::DECIMAL(10,2), 2) AS spend
FROM ad_sales GROUP BY product_id ORDER BY product_id`)
	if err != nil {
		t.Fatalf("decimal query: %v", err)
	}
	if spend.Rows[0]["product_id"] != "P001" || spend.Rows[0]["spend"] != float64(460) {
		t.Fatalf("row 0 = %#v", spend.Rows[0])
	}

	got, err := svc.Execute(ctx, `
SELECT 12::HUGEINT AS big,
       '6ba7b810-9dad-11d1-80b4-00c04fd430c8'::UUID AS id,
       TRUE AS flag`)
	if err != nil {
		t.Fatalf("scalar query: %v", err)
	}
	row := got.Rows[0]
	if row["big"] != int64(12) {
		t.Fatalf("big = %#v", row["big"])
	}
	if row["id"] != "6ba7b810-9dad-11d1-80b4-00c04fd430c8" {
		t.Fatalf("id = %#v", row["id"])
	}
	if row["flag"] != true {
		t.Fatalf("flag = %#v", row["flag"])
	}
}

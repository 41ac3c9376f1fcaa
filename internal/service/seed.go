package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

type adSale struct {
	productID   string
	date        string
	adSpend     float64
	adSales     float64
	clicks      int
	impressions int
}

type totalSale struct {
	productID string
	date      string
	units     int
	revenue   float64
}

type product struct {
	productID string
	name      string
	eligible  bool
}

var demoAdSales = []adSale{
	{"P001", "2024-07-13", 100, 1500, 300, 10000},
	{"P002", "2024-07-13", 150, 2500, 450, 15000},
	{"P001", "2024-07-14", 120, 1800, 350, 12000},
	{"P003", "2024-07-14", 80, 1200, 250, 8000},
	{"P002", "2024-07-15", 200, 3000, 500, 20000},
	{"P001", "2024-07-16", 110, 1650, 320, 11000},
	{"P003", "2024-07-17", 90, 1350, 280, 9000},
	{"P002", "2024-07-18", 220, 3300, 550, 22000},
	{"P001", "2024-07-19", 130, 1950, 380, 13000},
	{"P003", "2024-07-20", 100, 1500, 300, 10000},
}

var demoTotalSales = []totalSale{
	{"P001", "2024-07-13", 50, 5000},
	{"P002", "2024-07-13", 70, 8400},
	{"P001", "2024-07-14", 60, 6000},
	{"P003", "2024-07-14", 40, 4800},
	{"P002", "2024-07-15", 80, 9600},
	{"P001", "2024-07-16", 55, 5500},
	{"P003", "2024-07-17", 45, 5400},
	{"P002", "2024-07-18", 85, 10200},
	{"P001", "2024-07-19", 65, 6500},
	{"P003", "2024-07-20", 50, 6000},
}

var demoProducts = []product{
	{"P001", "SuperWidget", true},
	{"P002", "MegaGadget", true},
	{"P003", "HyperGrommet", false},
}

var seedDDL = []string{
	`CREATE TABLE IF NOT EXISTS ad_sales (product_id TEXT, date TEXT, ad_spend REAL, ad_sales REAL, clicks INTEGER, impressions INTEGER)`,
	`CREATE TABLE IF NOT EXISTS total_sales (product_id TEXT, date TEXT, total_sales_units INTEGER, total_sales_revenue REAL)`,
	`CREATE TABLE IF NOT EXISTS eligibility (product_id TEXT, product_name TEXT, is_eligible BOOLEAN)`,
}

// Seed creates the demo e-commerce tables and replaces their contents. Safe
// to run repeatedly. placeholder renders the n-th (1-based) bind parameter
// for the target driver.
func Seed(ctx context.Context, db *sql.DB, placeholder func(n int) string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range seedDDL {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	for _, table := range []string{"ad_sales", "total_sales", "eligibility"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insertAd := "INSERT INTO ad_sales (product_id, date, ad_spend, ad_sales, clicks, impressions) VALUES " + params(placeholder, 6)
	for _, r := range demoAdSales {
		if _, err := tx.ExecContext(ctx, insertAd, r.productID, r.date, r.adSpend, r.adSales, r.clicks, r.impressions); err != nil {
			return fmt.Errorf("insert ad_sales: %w", err)
		}
	}
	insertTotal := "INSERT INTO total_sales (product_id, date, total_sales_units, total_sales_revenue) VALUES " + params(placeholder, 4)
	for _, r := range demoTotalSales {
		if _, err := tx.ExecContext(ctx, insertTotal, r.productID, r.date, r.units, r.revenue); err != nil {
			return fmt.Errorf("insert total_sales: %w", err)
		}
	}
	insertProduct := "INSERT INTO eligibility (product_id, product_name, is_eligible) VALUES " + params(placeholder, 3)
	for _, r := range demoProducts {
		if _, err := tx.ExecContext(ctx, insertProduct, r.productID, r.name, r.eligible); err != nil {
			return fmt.Errorf("insert eligibility: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	log.Info().
		Int("ad_sales", len(demoAdSales)).
		Int("total_sales", len(demoTotalSales)).
		Int("eligibility", len(demoProducts)).
		Msg("demo data seeded")
	return nil
}

// QuestionMark and DollarN are the placeholder styles of the supported drivers
func QuestionMark(int) string { return "?" }

func DollarN(n int) string { return fmt.Sprintf("$%d", n) }

// PlaceholderFor returns the bind parameter style for a driver
func PlaceholderFor(driver string) func(int) string {
	if driver == "postgres" {
		return DollarN
	}
	return QuestionMark
}

func params(placeholder func(int) string, n int) string {
	out := "("
	for i := 1; i <= n; i++ {
		if i > 1 {
			out += ", "
		}
		out += placeholder(i)
	}
	return out + ")"
}

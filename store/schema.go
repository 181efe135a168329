package store

import (
	"context"
	"fmt"
)

// Schema is the fixed products table. Column names are a contract the
// query-generation prompt depends on verbatim; renaming a column without
// updating analytics.Prompts breaks query generation silently.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	turnover REAL,
	launch_date DATE,
	country TEXT,
	segment TEXT
)`

// Product is one row of the analytics table. The routing engine only ever
// reads products via generated queries; this type exists for seeding.
type Product struct {
	ID          int
	Name        string
	Description string
	Turnover    float64
	LaunchDate  string // ISO date
	Country     string
	Segment     string
}

// EnsureSchema creates the products table if missing.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create products schema: %w", err)
	}
	return nil
}

// Seed loads the sample catalogue when the table is empty. Safe to call on
// every start.
func (s *SQLStore) Seed(ctx context.Context, products []Product) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO products (id, name, description, turnover, launch_date, country, segment)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, p := range products {
		if _, err := tx.ExecContext(ctx, rebind(insert), p.ID, p.Name, p.Description, p.Turnover, p.LaunchDate, p.Country, p.Segment); err != nil {
			return fmt.Errorf("insert product %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// rebind swaps $N placeholders for ? so the same statement works on sqlite.
// lib/pq accepts $N natively; sqlite3 accepts ?.
func rebind(query string) string {
	out := make([]byte, 0, len(query))
	for i := 0; i < len(query); i++ {
		if query[i] == '$' {
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			out = append(out, '?')
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

// SampleProducts is the bundled catalogue used when no external data load has
// happened: casino games across countries and market segments.
func SampleProducts() []Product {
	return []Product{
		{1, "Lucky 7 Slots", "Three-reel slot with expanding wild sevens", 1.45, "2023-03-15", "Belgium", "High"},
		{2, "Roulette Pro", "European single-zero roulette with side bets", 2.10, "2022-11-02", "France", "High"},
		{3, "Star Burst", "Five-reel slot with win-both-ways paylines", 0.95, "2023-07-21", "Belgium", "Medium"},
		{4, "Blackjack Royale", "Classic blackjack with royal match side bet", 1.80, "2021-05-30", "France", "High"},
		{5, "Mega Fortune Wheel", "Progressive jackpot wheel game", 3.25, "2023-01-10", "Netherlands", "High"},
		{6, "Pirate's Plunder", "Adventure slot with treasure bonus rounds", 0.62, "2022-08-17", "Belgium", "Low"},
		{7, "Golden Baccarat", "High-stakes baccarat with golden pairs", 1.15, "2020-12-01", "France", "Medium"},
		{8, "Neon Keno", "Fast-paced keno with neon multipliers", 0.38, "2023-09-05", "Netherlands", "Low"},
		{9, "Dragon's Dice", "Dice game with dragon streak bonuses", 0.74, "2022-04-12", "Belgium", "Medium"},
		{10, "Crystal Poker", "Video poker with crystal wild cards", 1.05, "2021-10-23", "France", "Medium"},
		{11, "Safari Spins", "Wildlife slot with free-spin safaris", 0.51, "2023-06-30", "Netherlands", "Low"},
		{12, "Aurora Bingo", "Themed bingo with aurora jackpots", 0.29, "2022-02-14", "Belgium", "Low"},
	}
}

package store

import (
	"context"
	"fmt"
)

type seedProduct struct {
	name     string
	price    float64
	stock    int
	category string
}

var seedProducts = []seedProduct{
	{"Laptop", 1200, 50, "Electronics"},
	{"Keyboard", 75, 100, "Electronics"},
	{"Mouse", 25, 150, "Electronics"},
	{"Monitor", 300, 30, "Electronics"},
	{"Webcam", 50, 80, "Electronics"},
	{"Desk Chair", 150, 40, "Furniture"},
	{"Standing Desk", 400, 20, "Furniture"},
	{"Bookshelf", 100, 0, "Furniture"},
	{"Notebook", 5, 200, "Stationery"},
	{"Pen Set", 15, 300, "Stationery"},
	{"Backpack", 60, 70, "Accessories"},
	{"Water Bottle", 20, 120, "Accessories"},
	{"Coffee Mug", 12, 90, "Accessories"},
	{"Headphones", 180, 0, "Electronics"},
	{"Smartphone", 800, 60, "Electronics"},
	{"Desk Lamp", 35, 55, "Furniture"},
}

// SeedProducts inserts the starter catalog if the products table is empty.
func (s *Store) SeedProducts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM products"); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, p := range seedProducts {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO products (name, price, stock, category) VALUES ($1, $2, $3, $4)",
			p.name, p.price, p.stock, p.category); err != nil {
			return 0, fmt.Errorf("failed to seed product %s: %w", p.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(seedProducts), nil
}

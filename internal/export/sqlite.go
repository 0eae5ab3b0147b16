package export

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ironsheep/plantquant/internal/plant"
	"github.com/ironsheep/plantquant/internal/quant"
)

// schema.sql creates the regions and quantities tables.
//
//go:embed schema.sql
var schemaSQL string

// Store persists quantity tables in a SQLite database.
type Store struct {
	*sql.DB
}

// OpenStore opens (or creates) the database at path and applies the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db}, nil
}

// SaveResult replaces everything stored for the result's plant with its
// regions and quantities, in one transaction.
//
// Totals are stored as SQLite integers, which are signed 64-bit.
func (s *Store) SaveResult(ctx context.Context, res *plant.Result) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	name := res.Plant
	if _, err := tx.ExecContext(ctx, `DELETE FROM quantities WHERE plant = ?`, name); err != nil {
		return fmt.Errorf("failed to clear quantities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM regions WHERE plant = ?`, name); err != nil {
		return fmt.Errorf("failed to clear regions: %w", err)
	}

	for _, r := range res.RegionInfo() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO regions (plant, region, x, y, width, height, area)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, name, r.Index, r.X, r.Y, r.Width, r.Height, r.PixelArea)
		if err != nil {
			return fmt.Errorf("failed to insert region %d: %w", r.Index, err)
		}
	}

	for _, e := range res.Table.Entries() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO quantities (plant, region, element, total)
			VALUES (?, ?, ?, ?)
		`, name, e.Region, e.Element, int64(e.Total))
		if err != nil {
			return fmt.Errorf("failed to insert %s for region %d: %w", e.Element, e.Region, err)
		}
	}

	return tx.Commit()
}

// Quantities returns the stored entries of a plant, region-major.
func (s *Store) Quantities(ctx context.Context, plantName string) ([]quant.Entry, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT region, element, total FROM quantities
		WHERE plant = ?
		ORDER BY region, rowid
	`, plantName)
	if err != nil {
		return nil, fmt.Errorf("failed to query quantities: %w", err)
	}
	defer rows.Close()

	var out []quant.Entry
	for rows.Next() {
		var e quant.Entry
		var total int64
		if err := rows.Scan(&e.Region, &e.Element, &total); err != nil {
			return nil, fmt.Errorf("failed to scan quantity: %w", err)
		}
		e.Total = uint64(total)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Plants returns the names of plants with at least one stored region, sorted.
func (s *Store) Plants(ctx context.Context) ([]string, error) {
	rows, err := s.QueryContext(ctx, `SELECT DISTINCT plant FROM regions ORDER BY plant`)
	if err != nil {
		return nil, fmt.Errorf("failed to query plants: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

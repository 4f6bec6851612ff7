package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/saadjs/healthsync/internal/model"
)

// SavePendingMeal upserts the single draft. An empty ID gets a fresh one.
func SavePendingMeal(db *sql.DB, p model.PendingMeal) (model.PendingMeal, error) {
	p.Barcode = strings.TrimSpace(p.Barcode)
	if p.Barcode == "" {
		return model.PendingMeal{}, fmt.Errorf("pending meal barcode is required")
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	_, err := db.Exec(`
INSERT INTO pending_meal(slot, id, barcode, product_name, quantity_input, last_error, updated_at)
VALUES(1, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slot) DO UPDATE SET
  id = excluded.id,
  barcode = excluded.barcode,
  product_name = excluded.product_name,
  quantity_input = excluded.quantity_input,
  last_error = excluded.last_error,
  updated_at = excluded.updated_at
`, p.ID, p.Barcode, p.ProductName, p.QuantityInput, p.LastError, p.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return model.PendingMeal{}, fmt.Errorf("save pending meal: %w", err)
	}
	return p, nil
}

func GetPendingMeal(db *sql.DB) (model.PendingMeal, bool, error) {
	var (
		p         model.PendingMeal
		updatedAt string
	)
	err := db.QueryRow(`
SELECT id, barcode, product_name, quantity_input, last_error, updated_at
FROM pending_meal WHERE slot = 1`).Scan(&p.ID, &p.Barcode, &p.ProductName, &p.QuantityInput, &p.LastError, &updatedAt)
	if err == sql.ErrNoRows {
		return model.PendingMeal{}, false, nil
	}
	if err != nil {
		return model.PendingMeal{}, false, fmt.Errorf("get pending meal: %w", err)
	}
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, true, nil
}

func ClearPendingMeal(db *sql.DB) error {
	if _, err := db.Exec(`DELETE FROM pending_meal WHERE slot = 1`); err != nil {
		return fmt.Errorf("clear pending meal: %w", err)
	}
	return nil
}

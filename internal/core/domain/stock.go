// internal/core/domain/stock.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MovementType classifies a stock movement.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is one immutable fact about an inventory change. Records
// are append-only: once written they are never mutated or deleted, even
// if the referenced product later disappears.
type StockMovement struct {
	ID        uuid.UUID    `json:"id"`
	ProductID int64        `json:"product_id"`
	Quantity  int          `json:"quantity"`
	Type      MovementType `json:"type"`
	Reference string       `json:"reference,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	CreatedBy string       `json:"created_by,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Validate enforces the sign convention: in/out carry a positive
// magnitude with the sign implied by the type; adjustments carry a
// non-zero signed delta.
func (m *StockMovement) Validate() error {
	if m.ProductID <= 0 {
		return fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	switch m.Type {
	case MovementIn, MovementOut:
		if m.Quantity <= 0 {
			return fmt.Errorf("%w: %s movement requires a positive quantity", ErrValidation, m.Type)
		}
	case MovementAdjustment:
		if m.Quantity == 0 {
			return fmt.Errorf("%w: adjustment requires a non-zero quantity", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown movement type %q", ErrValidation, m.Type)
	}
	return nil
}

// SignedQuantity resolves the stock delta this movement applies.
func (m *StockMovement) SignedQuantity() int {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}

// PrepareForStorage assigns the id and timestamp if unset.
func (m *StockMovement) PrepareForStorage() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
}

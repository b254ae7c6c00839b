package types

import "github.com/google/uuid"

// CartSnapshot pins the cart contents a payment was initiated against.
// Materialization always reads this snapshot, never the live cart.
type CartSnapshot struct {
	CartID  uuid.UUID   `json:"cart_id"`
	ItemIDs []uuid.UUID `json:"item_ids"`
}

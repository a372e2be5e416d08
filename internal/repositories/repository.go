package repositories

import (
	"errors"
	"fmt"
	"strings"

	"ecom/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paginate applies ordering, offset and limit for q. Only columns present in allowed may be
// used for sorting; anything else falls back to fallback.
func paginate(q models.PageQuery, allowed map[string]string, fallback string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col, ok := allowed[q.SortBy]
		if !ok {
			col = fallback
		}
		desc := strings.EqualFold(q.SortDir, "desc")
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc})
		if q.Size > 0 {
			db = db.Offset(q.Page * q.Size).Limit(q.Size)
		}
		return db
	}
}

// translate maps gorm errors to domain errors, keeping the original message.
func translate(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", msg, models.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", msg, models.ErrConflict)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

// recalculateCartTotals recomputes total_price of the given carts from their items.
func recalculateCartTotals(tx *gorm.DB, cartIDs []string) error {
	if len(cartIDs) == 0 {
		return nil
	}
	err := tx.Exec(`UPDATE carts SET total_price = (
		SELECT COALESCE(SUM(cart_items.price * cart_items.quantity), 0)
		FROM cart_items WHERE cart_items.cart_id = carts.id
	) WHERE id IN ?`, cartIDs).Error
	if err != nil {
		return fmt.Errorf("failed to recalculate cart totals: %w", err)
	}
	return nil
}

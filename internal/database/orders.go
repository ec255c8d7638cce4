package database

import "time"

// Order record statuses
const (
	OrderSubmitted = "submitted"
	OrderSkipped   = "skipped"
	OrderFailed    = "failed"
	OrderDryRun    = "dry_run"
)

// SaveOrderRecord persists one execution decision (submitted, skipped,
// failed or dry-run) for audit.
func (d *Database) SaveOrderRecord(rec *OrderRecord) error {
	rec.CreatedAt = time.Now()
	return d.db.Create(rec).Error
}

// HasLiveOrderForGame reports whether a non-cancelled order already exists
// for this game: the per-game de-duplication gate. Dry-run records count so
// a paper session does not re-decide the same game every cycle.
func (d *Database) HasLiveOrderForGame(gameID uint) (bool, error) {
	var count int64
	err := d.db.Model(&OrderRecord{}).
		Where("game_id = ? AND status IN ?", gameID, []string{OrderSubmitted, OrderDryRun}).
		Count(&count).Error
	return count > 0, err
}

// CountLiveOrdersForDate counts submitted/dry-run orders placed for games on
// a given day, the local proxy for open positions.
func (d *Database) CountLiveOrdersForDate(date string) (int64, error) {
	var count int64
	err := d.db.Model(&OrderRecord{}).
		Where("date = ? AND status IN ?", date, []string{OrderSubmitted, OrderDryRun}).
		Count(&count).Error
	return count, err
}

// OrdersForDate returns the full audit trail for a day, newest first.
func (d *Database) OrdersForDate(date string) ([]OrderRecord, error) {
	var recs []OrderRecord
	err := d.db.Where("date = ?", date).Order("created_at DESC").Find(&recs).Error
	return recs, err
}

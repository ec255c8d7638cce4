package database

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertMatchupStats overwrites the cached stats row for
// (sport, pair, segment) with freshly derived values.
func (d *Database) UpsertMatchupStats(stats *MatchupStats) error {
	stats.UpdatedAt = time.Now()
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "sport"}, {Name: "pair_key"}, {Name: "segment"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sample_count", "min_total", "max_total", "median_total",
			"p05_total", "p95_total", "visible", "updated_at",
		}),
	}).Create(stats).Error
}

// GetMatchupStats returns the cached stats row, or nil when the segment has
// never been computed (n == 0 segments are never stored).
func (d *Database) GetMatchupStats(sport, pairKey, segment string) (*MatchupStats, error) {
	var stats MatchupStats
	err := d.db.Where("sport = ? AND pair_key = ? AND segment = ?", sport, pairKey, segment).
		First(&stats).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// UpsertEdgeAssessment writes the per-(date, game) snapshot, superseding the
// previous compute cycle's row.
func (d *Database) UpsertEdgeAssessment(a *EdgeAssessment) error {
	a.UpdatedAt = time.Now()
	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"line", "sample_count", "p05", "p95", "line_percentile", "visible",
			"edge_side", "edge_magnitude", "hit_prob", "strength", "updated_at",
		}),
	}).Create(a).Error
}

// AssessmentsForDate returns all edge assessments for a day, strongest edge
// first.
func (d *Database) AssessmentsForDate(date, sport string) ([]EdgeAssessment, error) {
	var list []EdgeAssessment
	q := d.db.Where("date = ?", date)
	if sport != "" {
		q = q.Where("sport = ?", sport)
	}
	err := q.Order("edge_magnitude DESC").Find(&list).Error
	return list, err
}

// GetAssessment returns the assessment for one game-day, nil when absent.
func (d *Database) GetAssessment(date string, gameID uint) (*EdgeAssessment, error) {
	var a EdgeAssessment
	err := d.db.Where("date = ? AND game_id = ?", date, gameID).First(&a).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

package database

import "gorm.io/gorm"

// CreateJobRun inserts a new ledger row.
func (d *Database) CreateJobRun(run *JobRun) error {
	return d.db.Create(run).Error
}

// UpdateJobRun overwrites a ledger row (status, counters, finish time).
func (d *Database) UpdateJobRun(run *JobRun) error {
	return d.db.Save(run).Error
}

// GetJobRun fetches one ledger row by id, nil when unknown.
func (d *Database) GetJobRun(id string) (*JobRun, error) {
	var run JobRun
	err := d.db.First(&run, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// RecentJobRuns lists the latest ledger rows, newest first.
func (d *Database) RecentJobRuns(limit int) ([]JobRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []JobRun
	err := d.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

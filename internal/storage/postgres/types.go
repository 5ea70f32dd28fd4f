package postgres

import (
	"time"

	"github.com/shaibs3/pageanalyzer/internal/db"
)

// GormURL maps the urls table
type GormURL struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;size:255"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (GormURL) TableName() string {
	return "urls"
}

func (u GormURL) toRecord() db.URLRecord {
	return db.URLRecord{ID: u.ID, Name: u.Name, CreatedAt: u.CreatedAt}
}

// GormCheck maps the url_checks table
type GormCheck struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	URLID       int64     `gorm:"column:url_id;index"`
	StatusCode  int       `gorm:"column:status_code"`
	H1          string    `gorm:"column:h1;size:255"`
	Title       string    `gorm:"column:title;size:255"`
	Description string    `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (GormCheck) TableName() string {
	return "url_checks"
}

func (c GormCheck) toRecord() db.CheckRecord {
	return db.CheckRecord{
		ID:          c.ID,
		URLID:       c.URLID,
		StatusCode:  c.StatusCode,
		H1:          c.H1,
		Title:       c.Title,
		Description: c.Description,
		CreatedAt:   c.CreatedAt,
	}
}

// urlSummaryRow receives rows of db.ListURLsQuery
type urlSummaryRow struct {
	ID             int64
	Name           string
	CreatedAt      time.Time
	LastCheckAt    *time.Time
	LastStatusCode *int
}

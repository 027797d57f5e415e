package models

import "time"

// Institution is a registered school. The per-shift free class counts are
// consumed once, at registration time, to seed the slot catalog; afterwards
// they are informational only.
type Institution struct {
	ID                   string    `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Region               string    `db:"region" json:"region"`
	City                 string    `db:"city" json:"city"`
	Woreda               string    `db:"woreda" json:"woreda"`
	FreeClassesMorning   int       `db:"free_classes_morning" json:"free_classes_morning"`
	FreeClassesAfternoon int       `db:"free_classes_afternoon" json:"free_classes_afternoon"`
	FreeClassesNight     int       `db:"free_classes_night" json:"free_classes_night"`
	ClassSize            int       `db:"class_size" json:"class_size"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// Pagination carries list metadata in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

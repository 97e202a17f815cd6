package models

import "time"

const (
	StatusReading   = "reading"
	StatusCompleted = "completed"
	StatusOnHold    = "on_hold"
	StatusDropped   = "dropped"
)

// LibraryEntry is a user's saved association with a Work.
type LibraryEntry struct {
	ID              string    `json:"id" bson:"id"`
	UserID          string    `json:"user_id" bson:"user_id"`
	MangaID         string    `json:"manga_id" bson:"manga_id"`
	Title           string    `json:"title" bson:"title"`
	CoverArt        string    `json:"cover_art" bson:"cover_art"`
	LastReadChapter *string   `json:"last_read_chapter" bson:"last_read_chapter"`
	LastReadPage    int       `json:"last_read_page" bson:"last_read_page"`
	Favorite        bool      `json:"favorite" bson:"favorite"`
	Status          string    `json:"status" bson:"status"`
	Timestamp       time.Time `json:"timestamp" bson:"timestamp"`
}

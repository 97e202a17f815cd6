package models

import "time"

// ReadingProgress is the page a user reached in one chapter of a Work.
type ReadingProgress struct {
	ID         string    `json:"id" bson:"id"`
	UserID     string    `json:"user_id" bson:"user_id"`
	MangaID    string    `json:"manga_id" bson:"manga_id"`
	ChapterID  string    `json:"chapter_id" bson:"chapter_id"`
	PageNumber int       `json:"page_number" bson:"page_number"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

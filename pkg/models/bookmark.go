package models

import "time"

type Bookmark struct {
	ID         string    `json:"id" bson:"id"`
	UserID     string    `json:"user_id" bson:"user_id"`
	MangaID    string    `json:"manga_id" bson:"manga_id"`
	ChapterID  string    `json:"chapter_id" bson:"chapter_id"`
	PageNumber int       `json:"page_number" bson:"page_number"`
	Title      string    `json:"title" bson:"title"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

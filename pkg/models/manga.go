package models

import "time"

// SourceMangaDex tags every Work built from the MangaDex catalog.
const SourceMangaDex = "mangadex"

// UnknownAuthor is reported when the catalog has no author relationship.
const UnknownAuthor = "Unknown"

// Work is the normalized form of a manga series returned by the catalog.
// It is rebuilt on every request and never persisted.
type Work struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Status      string   `json:"status"`    // passed through from upstream ("ongoing", "completed", ...)
	CoverArt    string   `json:"cover_art"` // empty when the catalog has no cover
	Tags        []string `json:"tags"`
	Chapters    int      `json:"chapters"` // always 0, the catalog list endpoints do not report it
	Source      string   `json:"source"`
}

// Chapter is a single installment of a Work.
type Chapter struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	ChapterNumber float64    `json:"chapter_number"`
	Pages         int        `json:"pages"`
	MangaID       string     `json:"manga_id"`
	Volume        *string    `json:"volume"`
	PublishedDate *time.Time `json:"published_date"`
}

// Page is one image of a chapter. Width and Height are left to the reader.
type Page struct {
	PageNumber int    `json:"page_number"`
	ImageURL   string `json:"image_url"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

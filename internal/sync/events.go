package sync

import "time"

const (
	EventLibraryAdd     = "library.add"
	EventLibraryUpdate  = "library.update"
	EventLibraryRemove  = "library.remove"
	EventProgressUpdate = "progress.update"
	EventBookmarkAdd    = "bookmark.add"
)

// Event is broadcast after a successful user-state write.
type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	MangaID    string    `json:"manga_id"`
	ChapterID  string    `json:"chapter_id,omitempty"`
	PageNumber *int      `json:"page_number,omitempty"`
	Title      string    `json:"title,omitempty"`
	Status     string    `json:"status,omitempty"`
	Favorite   *bool     `json:"favorite,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher receives events. A nil Publisher is allowed wherever one is accepted.
type Publisher interface {
	Publish(ev Event)
}

// Publish hands ev to p on the caller's goroutine, so events of one writer
// reach p in order. p may be nil and must not block.
func Publish(p Publisher, ev Event) {
	if p == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	p.Publish(ev)
}

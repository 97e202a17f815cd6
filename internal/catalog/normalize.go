package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"mangareader/pkg/models"
)

// toWork maps one manga record. id is used for the Work id and the cover path.
func (c *Client) toWork(id string, m mdManga) (models.Work, error) {
	title, ok := m.Attributes.Title.get("en")
	if !ok {
		if title, ok = m.Attributes.Title.first(); !ok {
			return models.Work{}, errors.Wrapf(ErrMalformedResponse, "manga %s has no title", id)
		}
	}
	desc, _ := m.Attributes.Description.get("en")

	tags := make([]string, 0, len(m.Attributes.Tags))
	for _, t := range m.Attributes.Tags {
		if name, ok := t.Attributes.Name.get("en"); ok {
			tags = append(tags, name)
		}
	}

	return models.Work{
		ID:          id,
		Title:       title,
		Description: desc,
		Author:      authorOf(m.Relationships),
		Status:      m.Attributes.Status,
		CoverArt:    c.coverURL(id, m.Relationships),
		Tags:        tags,
		Chapters:    0,
		Source:      models.SourceMangaDex,
	}, nil
}

// coverURL uses the first cover_art relationship only.
func (c *Client) coverURL(id string, rels []mdRelationship) string {
	for _, rel := range rels {
		if rel.Type != "cover_art" {
			continue
		}
		if rel.Attributes == nil || rel.Attributes.FileName == "" {
			return ""
		}
		return fmt.Sprintf("%s/%s/%s.256.jpg", c.CoverBaseURL, id, rel.Attributes.FileName)
	}
	return ""
}

// authorOf uses the first author relationship only.
func authorOf(rels []mdRelationship) string {
	for _, rel := range rels {
		if rel.Type != "author" {
			continue
		}
		if rel.Attributes == nil || rel.Attributes.Name == nil {
			return models.UnknownAuthor
		}
		return *rel.Attributes.Name
	}
	return models.UnknownAuthor
}

func toChapter(workID string, ch mdChapter) (models.Chapter, error) {
	attrs := ch.Attributes

	number, err := attrs.Chapter.Float()
	if err != nil {
		return models.Chapter{}, errors.Wrapf(ErrMalformedResponse, "chapter %s number %q", ch.ID, attrs.Chapter.raw)
	}
	pages, err := attrs.Pages.Int()
	if err != nil {
		return models.Chapter{}, errors.Wrapf(ErrMalformedResponse, "chapter %s pages %q", ch.ID, attrs.Pages.raw)
	}

	title := ""
	if attrs.Title != nil {
		title = *attrs.Title
	}
	if title == "" {
		title = "Chapter " + FormatChapterNumber(number)
	}

	var published *time.Time
	if attrs.PublishAt != nil && *attrs.PublishAt != "" {
		t, err := ParseTimestamp(*attrs.PublishAt)
		if err != nil {
			return models.Chapter{}, errors.Wrapf(ErrMalformedResponse, "chapter %s publishAt: %v", ch.ID, err)
		}
		published = &t
	}

	return models.Chapter{
		ID:            ch.ID,
		Title:         title,
		ChapterNumber: number,
		Pages:         pages,
		MangaID:       workID,
		Volume:        attrs.Volume,
		PublishedDate: published,
	}, nil
}

// FormatChapterNumber always keeps a fractional part: 5 -> "5.0", 10.5 -> "10.5".
func FormatChapterNumber(n float64) string {
	s := strconv.FormatFloat(n, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ParseTimestamp reads an ISO-8601 timestamp. A trailing "Z" means UTC and a
// value without any offset is taken as UTC too.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
}

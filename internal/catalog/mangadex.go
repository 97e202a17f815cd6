package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mangareader/internal/log"
	"mangareader/pkg/models"
	"mangareader/pkg/utils"
)

const (
	DefaultBaseURL      = "https://api.mangadex.org"
	DefaultCoverBaseURL = "https://uploads.mangadex.org/covers"
)

// Client talks to the MangaDex REST API and normalizes its answers.
// One Client (and its http.Client) is shared by every request.
type Client struct {
	BaseURL      string
	CoverBaseURL string
	UserAgent    string
	HTTP         *http.Client
}

func NewClient(cfg utils.CatalogConfig) *Client {
	c := &Client{
		BaseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		CoverBaseURL: strings.TrimRight(cfg.CoverBaseURL, "/"),
		UserAgent:    cfg.UserAgent,
		HTTP:         &http.Client{Timeout: cfg.Timeout},
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.CoverBaseURL == "" {
		c.CoverBaseURL = DefaultCoverBaseURL
	}
	return c
}

// Search looks up works by title. limit is forwarded as-is.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Work, error) {
	q := url.Values{}
	q.Set("title", query)
	q.Set("limit", strconv.Itoa(limit))
	q.Add("includes[]", "cover_art")
	q.Add("includes[]", "author")

	var md mdMangaList
	if err := c.getJSON(ctx, "/manga", q, &md); err != nil {
		return nil, failure(err, ErrUpstreamUnavailable, "search manga")
	}

	works := make([]models.Work, 0, len(md.Data))
	for _, item := range md.Data {
		w, err := c.toWork(item.ID, item)
		if err != nil {
			return nil, err
		}
		works = append(works, w)
	}
	return works, nil
}

// Details fetches a single work. Any non-200 answer is reported as ErrNotFound.
func (c *Client) Details(ctx context.Context, workID string) (*models.Work, error) {
	q := url.Values{}
	q.Add("includes[]", "cover_art")
	q.Add("includes[]", "author")

	var md mdMangaEntity
	if err := c.getJSON(ctx, "/manga/"+url.PathEscape(workID), q, &md); err != nil {
		return nil, failure(err, ErrNotFound, "get manga "+workID)
	}

	w, err := c.toWork(workID, md.Data)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Chapters returns the English chapter feed of a work in ascending chapter order,
// exactly as the catalog orders it.
func (c *Client) Chapters(ctx context.Context, workID string, limit int) ([]models.Chapter, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("order[chapter]", "asc")
	q.Add("translatedLanguage[]", "en")

	var md mdChapterList
	if err := c.getJSON(ctx, "/manga/"+url.PathEscape(workID)+"/feed", q, &md); err != nil {
		return nil, failure(err, ErrUpstreamUnavailable, "get chapters")
	}

	chapters := make([]models.Chapter, 0, len(md.Data))
	for _, item := range md.Data {
		ch, err := toChapter(workID, item)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, nil
}

// Pages resolves the image delivery node for a chapter and lists its pages.
func (c *Client) Pages(ctx context.Context, chapterID string) ([]models.Page, error) {
	var md mdAtHome
	if err := c.getJSON(ctx, "/at-home/server/"+url.PathEscape(chapterID), nil, &md); err != nil {
		return nil, failure(err, ErrUpstreamUnavailable, "get chapter pages")
	}
	return BuildPages(md.BaseURL, md.Chapter.Hash, md.Chapter.Data), nil
}

// BuildPages numbers files from 1 and points each at {baseURL}/data/{hash}/{file}.
func BuildPages(baseURL, hash string, files []string) []models.Page {
	pages := make([]models.Page, 0, len(files))
	for i, name := range files {
		pages = append(pages, models.Page{
			PageNumber: i + 1,
			ImageURL:   fmt.Sprintf("%s/data/%s/%s", baseURL, hash, name),
		})
	}
	return pages
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrapf(ErrUpstreamUnavailable, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return errors.Wrapf(ErrUpstreamUnavailable, "GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	log.Debug("catalog request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(ErrMalformedResponse, "decode %s: %v", path, err)
	}
	return nil
}

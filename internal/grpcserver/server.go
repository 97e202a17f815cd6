package grpcserver

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mangareader/internal/bookmarks"
	"mangareader/internal/catalog"
	"mangareader/internal/library"
	"mangareader/internal/log"
	"mangareader/internal/manga"
	"mangareader/internal/progress"
	"mangareader/internal/sync"
	"mangareader/pkg/models"
)

// Server answers the Reader service with the same semantics as the HTTP API.
type Server struct {
	Catalog   manga.Catalog
	Library   library.Repository
	Tracker   *progress.Tracker
	Bookmarks bookmarks.Repository
	Hub       sync.Publisher
}

func NewServer(cat manga.Catalog, lib library.Repository, tracker *progress.Tracker, bm bookmarks.Repository, hub sync.Publisher) *Server {
	return &Server{Catalog: cat, Library: lib, Tracker: tracker, Bookmarks: bm, Hub: hub}
}

func (s *Server) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	limit := int(req.Limit)
	if limit == 0 {
		limit = manga.DefaultSearchLimit
	}
	works, err := s.Catalog.Search(ctx, req.Query, limit)
	if err != nil {
		return nil, catalogStatus(err)
	}
	return &SearchResponse{Manga: works}, nil
}

func (s *Server) Details(ctx context.Context, req *DetailsRequest) (*models.Work, error) {
	id := strings.TrimSpace(req.WorkID)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "work_id required")
	}
	w, err := s.Catalog.Details(ctx, id)
	if err != nil {
		return nil, catalogStatus(err)
	}
	return w, nil
}

func (s *Server) Chapters(ctx context.Context, req *ChaptersRequest) (*ChaptersResponse, error) {
	id := strings.TrimSpace(req.WorkID)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "work_id required")
	}
	limit := int(req.Limit)
	if limit == 0 {
		limit = manga.DefaultChapterLimit
	}
	chapters, err := s.Catalog.Chapters(ctx, id, limit)
	if err != nil {
		return nil, catalogStatus(err)
	}
	return &ChaptersResponse{Chapters: chapters}, nil
}

func (s *Server) Pages(ctx context.Context, req *PagesRequest) (*PagesResponse, error) {
	id := strings.TrimSpace(req.ChapterID)
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "chapter_id required")
	}
	pages, err := s.Catalog.Pages(ctx, id)
	if err != nil {
		return nil, catalogStatus(err)
	}
	return &PagesResponse{Pages: pages}, nil
}

func (s *Server) AddToLibrary(ctx context.Context, req *AddLibraryRequest) (*MessageResponse, error) {
	userID, mangaID := strings.TrimSpace(req.UserID), strings.TrimSpace(req.MangaID)
	if userID == "" || mangaID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id and manga_id required")
	}

	entry := library.NewEntry(userID, mangaID, req.Title, req.CoverArt)
	added, err := s.Library.Add(ctx, entry)
	if err != nil {
		return nil, storeStatus("add to library", err)
	}
	if !added {
		return &MessageResponse{Message: "Already in library"}, nil
	}
	sync.Publish(s.Hub, sync.Event{Type: sync.EventLibraryAdd, UserID: userID, MangaID: mangaID, Title: entry.Title, Status: entry.Status})
	return &MessageResponse{Message: "Added to library"}, nil
}

func (s *Server) GetLibrary(ctx context.Context, req *UserRequest) (*LibraryResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id required")
	}
	entries, err := s.Library.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeStatus("list library", err)
	}
	return &LibraryResponse{Library: entries}, nil
}

func (s *Server) UpdateProgress(ctx context.Context, req *UpdateProgressRequest) (*MessageResponse, error) {
	userID, mangaID, chapterID := strings.TrimSpace(req.UserID), strings.TrimSpace(req.MangaID), strings.TrimSpace(req.ChapterID)
	if userID == "" || mangaID == "" || chapterID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id, manga_id and chapter_id required")
	}
	if req.PageNumber < 0 {
		return nil, status.Error(codes.InvalidArgument, "page_number must be >= 0")
	}

	p, err := s.Tracker.Update(ctx, userID, mangaID, chapterID, int(req.PageNumber))
	if err != nil {
		return nil, storeStatus("update progress", err)
	}
	sync.Publish(s.Hub, sync.Event{
		Type: sync.EventProgressUpdate, UserID: userID, MangaID: mangaID,
		ChapterID: chapterID, PageNumber: &p.PageNumber, At: p.Timestamp,
	})
	return &MessageResponse{Message: "Progress updated"}, nil
}

func (s *Server) GetProgress(ctx context.Context, req *GetProgressRequest) (*ProgressResponse, error) {
	userID, mangaID := strings.TrimSpace(req.UserID), strings.TrimSpace(req.MangaID)
	if userID == "" || mangaID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id and manga_id required")
	}
	p, err := s.Tracker.Latest(ctx, userID, mangaID)
	if err != nil {
		return nil, storeStatus("get progress", err)
	}
	if p == nil {
		return &ProgressResponse{Message: "No progress found"}, nil
	}
	return &ProgressResponse{Progress: p}, nil
}

func (s *Server) AddBookmark(ctx context.Context, req *AddBookmarkRequest) (*MessageResponse, error) {
	userID, mangaID, chapterID := strings.TrimSpace(req.UserID), strings.TrimSpace(req.MangaID), strings.TrimSpace(req.ChapterID)
	if userID == "" || mangaID == "" || chapterID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id, manga_id and chapter_id required")
	}
	if req.PageNumber < 0 {
		return nil, status.Error(codes.InvalidArgument, "page_number must be >= 0")
	}

	b, err := s.Bookmarks.Add(ctx, models.Bookmark{
		UserID: userID, MangaID: mangaID, ChapterID: chapterID,
		PageNumber: int(req.PageNumber), Title: req.Title,
	})
	if err != nil {
		return nil, storeStatus("add bookmark", err)
	}
	sync.Publish(s.Hub, sync.Event{
		Type: sync.EventBookmarkAdd, UserID: userID, MangaID: mangaID, ChapterID: chapterID,
		PageNumber: &b.PageNumber, Title: b.Title, At: b.Timestamp,
	})
	return &MessageResponse{Message: "Bookmark added"}, nil
}

func (s *Server) GetBookmarks(ctx context.Context, req *UserRequest) (*BookmarksResponse, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "user_id required")
	}
	items, err := s.Bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeStatus("list bookmarks", err)
	}
	return &BookmarksResponse{Bookmarks: items}, nil
}

func catalogStatus(err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return status.Error(codes.NotFound, "manga not found")
	}
	log.Error("grpc catalog call failed", zap.Error(err))
	return status.Error(codes.Internal, "catalog unavailable")
}

func storeStatus(op string, err error) error {
	log.Error("grpc store call failed", zap.String("op", op), zap.Error(err))
	return status.Error(codes.Internal, op+" failed")
}

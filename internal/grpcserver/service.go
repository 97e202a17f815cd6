package grpcserver

import (
	"context"

	"google.golang.org/grpc"

	"mangareader/pkg/models"
)

const ServiceName = "mangareader.v1.Reader"

type SearchRequest struct {
	Query string `json:"query"`
	Limit int32  `json:"limit,omitempty"`
}

type SearchResponse struct {
	Manga []models.Work `json:"manga"`
}

type DetailsRequest struct {
	WorkID string `json:"work_id"`
}

type ChaptersRequest struct {
	WorkID string `json:"work_id"`
	Limit  int32  `json:"limit,omitempty"`
}

type ChaptersResponse struct {
	Chapters []models.Chapter `json:"chapters"`
}

type PagesRequest struct {
	ChapterID string `json:"chapter_id"`
}

type PagesResponse struct {
	Pages []models.Page `json:"pages"`
}

type AddLibraryRequest struct {
	UserID   string `json:"user_id"`
	MangaID  string `json:"manga_id"`
	Title    string `json:"title"`
	CoverArt string `json:"cover_art"`
}

type UserRequest struct {
	UserID string `json:"user_id"`
}

type LibraryResponse struct {
	Library []models.LibraryEntry `json:"library"`
}

type UpdateProgressRequest struct {
	UserID     string `json:"user_id"`
	MangaID    string `json:"manga_id"`
	ChapterID  string `json:"chapter_id"`
	PageNumber int32  `json:"page_number"`
}

type GetProgressRequest struct {
	UserID  string `json:"user_id"`
	MangaID string `json:"manga_id"`
}

// ProgressResponse has either Progress or the "No progress found" Message.
type ProgressResponse struct {
	Progress *models.ReadingProgress `json:"progress,omitempty"`
	Message  string                  `json:"message,omitempty"`
}

type AddBookmarkRequest struct {
	UserID     string `json:"user_id"`
	MangaID    string `json:"manga_id"`
	ChapterID  string `json:"chapter_id"`
	PageNumber int32  `json:"page_number"`
	Title      string `json:"title"`
}

type BookmarksResponse struct {
	Bookmarks []models.Bookmark `json:"bookmarks"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ReaderServer is implemented by *Server.
type ReaderServer interface {
	Search(context.Context, *SearchRequest) (*SearchResponse, error)
	Details(context.Context, *DetailsRequest) (*models.Work, error)
	Chapters(context.Context, *ChaptersRequest) (*ChaptersResponse, error)
	Pages(context.Context, *PagesRequest) (*PagesResponse, error)
	AddToLibrary(context.Context, *AddLibraryRequest) (*MessageResponse, error)
	GetLibrary(context.Context, *UserRequest) (*LibraryResponse, error)
	UpdateProgress(context.Context, *UpdateProgressRequest) (*MessageResponse, error)
	GetProgress(context.Context, *GetProgressRequest) (*ProgressResponse, error)
	AddBookmark(context.Context, *AddBookmarkRequest) (*MessageResponse, error)
	GetBookmarks(context.Context, *UserRequest) (*BookmarksResponse, error)
}

func unary[Req, Resp any](name string, call func(ReaderServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReaderServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPath(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(ReaderServer), ctx, req.(*Req))
			})
		},
	}
}

func methodPath(name string) string {
	return "/" + ServiceName + "/" + name
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReaderServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Search", ReaderServer.Search),
		unary("Details", ReaderServer.Details),
		unary("Chapters", ReaderServer.Chapters),
		unary("Pages", ReaderServer.Pages),
		unary("AddToLibrary", ReaderServer.AddToLibrary),
		unary("GetLibrary", ReaderServer.GetLibrary),
		unary("UpdateProgress", ReaderServer.UpdateProgress),
		unary("GetProgress", ReaderServer.GetProgress),
		unary("AddBookmark", ReaderServer.AddBookmark),
		unary("GetBookmarks", ReaderServer.GetBookmarks),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mangareader/v1/reader",
}

func RegisterReaderServer(s grpc.ServiceRegistrar, srv ReaderServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls the Reader service with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, methodPath(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Search(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c.cc, "Search", in, opts)
}

func (c *Client) Details(ctx context.Context, in *DetailsRequest, opts ...grpc.CallOption) (*models.Work, error) {
	return invoke[models.Work](ctx, c.cc, "Details", in, opts)
}

func (c *Client) Chapters(ctx context.Context, in *ChaptersRequest, opts ...grpc.CallOption) (*ChaptersResponse, error) {
	return invoke[ChaptersResponse](ctx, c.cc, "Chapters", in, opts)
}

func (c *Client) Pages(ctx context.Context, in *PagesRequest, opts ...grpc.CallOption) (*PagesResponse, error) {
	return invoke[PagesResponse](ctx, c.cc, "Pages", in, opts)
}

func (c *Client) AddToLibrary(ctx context.Context, in *AddLibraryRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "AddToLibrary", in, opts)
}

func (c *Client) GetLibrary(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*LibraryResponse, error) {
	return invoke[LibraryResponse](ctx, c.cc, "GetLibrary", in, opts)
}

func (c *Client) UpdateProgress(ctx context.Context, in *UpdateProgressRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "UpdateProgress", in, opts)
}

func (c *Client) GetProgress(ctx context.Context, in *GetProgressRequest, opts ...grpc.CallOption) (*ProgressResponse, error) {
	return invoke[ProgressResponse](ctx, c.cc, "GetProgress", in, opts)
}

func (c *Client) AddBookmark(ctx context.Context, in *AddBookmarkRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, "AddBookmark", in, opts)
}

func (c *Client) GetBookmarks(ctx context.Context, in *UserRequest, opts ...grpc.CallOption) (*BookmarksResponse, error) {
	return invoke[BookmarksResponse](ctx, c.cc, "GetBookmarks", in, opts)
}

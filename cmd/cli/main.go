package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:8080/api"

var (
	baseURL string
	timeout time.Duration
	user    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "mangareader",
		Short:        "Command line client for the manga reader API",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&baseURL, "api", envOr("MANGAREADER_API", defaultBaseURL), "API base URL including the base path")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "request timeout")
	rootCmd.PersistentFlags().StringVar(&user, "user", os.Getenv("MANGAREADER_USER"), "user id for library, progress and bookmark commands")

	rootCmd.AddCommand(mangaCmd(), libraryCmd(), progressCmd(), bookmarksCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mangaCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "manga", Short: "Browse the catalog"}

	var limit int
	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search works by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"query": {strings.Join(args, " ")}}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			return call(cmd.Context(), http.MethodGet, "/manga/search", q)
		},
	}
	search.Flags().IntVar(&limit, "limit", 0, "maximum results (server default 20)")

	get := &cobra.Command{
		Use:   "get <work_id>",
		Short: "Show one work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd.Context(), http.MethodGet, "/manga/"+url.PathEscape(args[0]), nil)
		},
	}

	var chapterLimit int
	chapters := &cobra.Command{
		Use:   "chapters <work_id>",
		Short: "List English chapters of a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if chapterLimit > 0 {
				q.Set("limit", strconv.Itoa(chapterLimit))
			}
			return call(cmd.Context(), http.MethodGet, "/manga/"+url.PathEscape(args[0])+"/chapters", q)
		},
	}
	chapters.Flags().IntVar(&chapterLimit, "limit", 0, "maximum chapters (server default 100)")

	pages := &cobra.Command{
		Use:   "pages <chapter_id>",
		Short: "List page image URLs of a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return call(cmd.Context(), http.MethodGet, "/chapter/"+url.PathEscape(args[0])+"/pages", nil)
		},
	}

	cmd.AddCommand(search, get, chapters, pages)
	return cmd
}

func libraryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "library", Short: "Manage a user's library"}

	var title, cover string
	add := &cobra.Command{
		Use:   "add <manga_id>",
		Short: "Add a work to the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			q := url.Values{"user_id": {user}, "manga_id": {args[0]}, "title": {title}, "cover_art": {cover}}
			return call(cmd.Context(), http.MethodPost, "/library/add", q)
		},
	}
	add.Flags().StringVar(&title, "title", "", "work title")
	add.Flags().StringVar(&cover, "cover", "", "cover image URL")

	list := &cobra.Command{
		Use:   "list",
		Short: "List the library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			return call(cmd.Context(), http.MethodGet, "/library/"+url.PathEscape(user), nil)
		},
	}

	var status, favorite string
	update := &cobra.Command{
		Use:   "update <manga_id>",
		Short: "Change status or favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			q := url.Values{"user_id": {user}, "manga_id": {args[0]}}
			if status != "" {
				q.Set("status", status)
			}
			if favorite != "" {
				q.Set("favorite", favorite)
			}
			return call(cmd.Context(), http.MethodPost, "/library/update", q)
		},
	}
	update.Flags().StringVar(&status, "status", "", "reading, completed, on_hold or dropped")
	update.Flags().StringVar(&favorite, "favorite", "", "true or false")

	remove := &cobra.Command{
		Use:   "remove <manga_id>",
		Short: "Remove a work from the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			return call(cmd.Context(), http.MethodDelete, "/library/"+url.PathEscape(user)+"/"+url.PathEscape(args[0]), nil)
		},
	}

	cmd.AddCommand(add, list, update, remove)
	return cmd
}

func progressCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "progress", Short: "Track reading progress"}

	update := &cobra.Command{
		Use:   "update <manga_id> <chapter_id> <page>",
		Short: "Record the page reached in a chapter",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			q := url.Values{"user_id": {user}, "manga_id": {args[0]}, "chapter_id": {args[1]}, "page_number": {args[2]}}
			return call(cmd.Context(), http.MethodPost, "/progress/update", q)
		},
	}

	get := &cobra.Command{
		Use:   "get <manga_id>",
		Short: "Show the latest progress in a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			return call(cmd.Context(), http.MethodGet, "/progress/"+url.PathEscape(user)+"/"+url.PathEscape(args[0]), nil)
		},
	}

	cmd.AddCommand(update, get)
	return cmd
}

func bookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "bookmarks", Short: "Manage bookmarks"}

	var title string
	add := &cobra.Command{
		Use:   "add <manga_id> <chapter_id> <page>",
		Short: "Bookmark a page",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			q := url.Values{
				"user_id": {user}, "manga_id": {args[0]}, "chapter_id": {args[1]},
				"page_number": {args[2]}, "title": {title},
			}
			return call(cmd.Context(), http.MethodPost, "/bookmarks/add", q)
		},
	}
	add.Flags().StringVar(&title, "title", "", "bookmark label")

	list := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireUser(); err != nil {
				return err
			}
			return call(cmd.Context(), http.MethodGet, "/bookmarks/"+url.PathEscape(user), nil)
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func requireUser() error {
	if strings.TrimSpace(user) == "" {
		return fmt.Errorf("--user (or MANGAREADER_USER) is required")
	}
	return nil
}

func call(ctx context.Context, method, path string, query url.Values) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := strings.TrimRight(baseURL, "/") + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var out any
	if err := doJSON(ctx, http.DefaultClient, method, endpoint, &out); err != nil {
		return err
	}
	printJSON(out)
	return nil
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed (%d): %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(b))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package sync

import (
	"bufio"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"
)

func readEvent(t *testing.T, r *bufio.Reader) Event {
	t.Helper()
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := r.ReadString('\n')
		ch <- result{line, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			t.Fatalf("read: %v", res.err)
		}
		var ev Event
		if err := json.Unmarshal([]byte(res.line), &ev); err != nil {
			t.Fatalf("decode %q: %v", res.line, err)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestHubBroadcastsToTCPClients(t *testing.T) {
	hub := NewHub()
	server, client := net.Pipe()
	defer client.Close()
	hub.Add(server)

	page := 7
	go hub.Publish(Event{Type: EventProgressUpdate, UserID: "u1", MangaID: "m1", ChapterID: "c1", PageNumber: &page})

	ev := readEvent(t, bufio.NewReader(client))
	if ev.Type != EventProgressUpdate || ev.UserID != "u1" || ev.ChapterID != "c1" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.PageNumber == nil || *ev.PageNumber != 7 {
		t.Fatalf("page number = %v", ev.PageNumber)
	}
}

func TestHubDropsDeadClients(t *testing.T) {
	hub := NewHub()
	server, client := net.Pipe()
	hub.Add(server)
	_ = client.Close()

	hub.BroadcastJSON(Event{Type: EventBookmarkAdd})

	if got := hub.Stats().TCPClients; got != 0 {
		t.Fatalf("expected dead client to be dropped, %d left", got)
	}
}

func TestNilPublisherIsIgnored(t *testing.T) {
	var hub *Hub
	Publish(hub, Event{Type: EventLibraryAdd})
	Publish(nil, Event{Type: EventLibraryAdd})
}

func TestServerWelcomesAndForwards(t *testing.T) {
	hub := NewHub()
	srv := NewServer("127.0.0.1:0", hub)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	welcome := readEvent(t, r)
	if welcome.Type != "welcome" {
		t.Fatalf("expected welcome, got %+v", welcome)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Stats().TCPClients == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	hub.Publish(Event{Type: EventLibraryRemove, UserID: "u1", MangaID: "m9"})

	ev := readEvent(t, r)
	if ev.Type != EventLibraryRemove || !strings.EqualFold(ev.MangaID, "m9") {
		t.Fatalf("unexpected event: %+v", ev)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

type recordingPublisher struct {
	pages []int
}

func (r *recordingPublisher) Publish(ev Event) { r.pages = append(r.pages, *ev.PageNumber) }

func TestPublishKeepsCallerOrder(t *testing.T) {
	rec := &recordingPublisher{}
	for i := 0; i < 20; i++ {
		page := i
		Publish(rec, Event{Type: EventProgressUpdate, UserID: "u1", PageNumber: &page})
	}
	if len(rec.pages) != 20 {
		t.Fatalf("received %d events, want 20", len(rec.pages))
	}
	for i, p := range rec.pages {
		if p != i {
			t.Fatalf("event %d has page %d: %v", i, p, rec.pages)
		}
	}
}

func TestHubDeliversInPublishOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	server, client := net.Pipe()
	defer client.Close()
	hub.Add(server)

	for i := 0; i < 20; i++ {
		page := i
		Publish(hub, Event{Type: EventProgressUpdate, UserID: "u1", MangaID: "m1", PageNumber: &page})
	}

	r := bufio.NewReader(client)
	for i := 0; i < 20; i++ {
		ev := readEvent(t, r)
		if ev.PageNumber == nil || *ev.PageNumber != i {
			t.Fatalf("event %d has page %v", i, ev.PageNumber)
		}
	}
}

func TestHubIgnoresPublishAfterClose(t *testing.T) {
	hub := NewHub()
	hub.Close()
	hub.Close()
	hub.Publish(Event{Type: EventLibraryAdd, UserID: "u1"})
}

func TestWelcomeDoesNotInterleaveWithBroadcast(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	server, client := net.Pipe()
	defer client.Close()
	hub.Add(server)

	done := make(chan struct{})
	go func() {
		hub.Welcome(server)
		close(done)
	}()
	go hub.BroadcastJSON(Event{Type: EventLibraryAdd, UserID: "u1", MangaID: "m1"})

	r := bufio.NewReader(client)
	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		seen[readEvent(t, r).Type] = true
	}
	<-done
	if !seen["welcome"] || !seen[EventLibraryAdd] {
		t.Fatalf("expected one welcome and one event, got %v", seen)
	}
}

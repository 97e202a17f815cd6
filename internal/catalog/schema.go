package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Intermediate shapes of the MangaDex responses. They are decoded once and then
// mapped into pkg/models; nothing here is validated beyond JSON syntax.

type mdRelationship struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes *struct {
		Name     *string `json:"name"`     // author
		FileName string  `json:"fileName"` // cover_art
	} `json:"attributes"`
}

type mdTag struct {
	Attributes struct {
		Name localizedText `json:"name"`
	} `json:"attributes"`
}

type mdManga struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Title       localizedText `json:"title"`
		Description localizedText `json:"description"`
		Status      string        `json:"status"`
		Tags        []mdTag       `json:"tags"`
	} `json:"attributes"`
	Relationships []mdRelationship `json:"relationships"`
}

type mdMangaList struct {
	Result string    `json:"result"`
	Data   []mdManga `json:"data"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Total  int       `json:"total"`
}

type mdMangaEntity struct {
	Result string  `json:"result"`
	Data   mdManga `json:"data"`
}

type mdChapter struct {
	ID         string `json:"id"`
	Attributes struct {
		Title     *string     `json:"title"`
		Chapter   looseNumber `json:"chapter"`
		Pages     looseNumber `json:"pages"`
		Volume    *string     `json:"volume"`
		PublishAt *string     `json:"publishAt"`
	} `json:"attributes"`
}

type mdChapterList struct {
	Result string      `json:"result"`
	Data   []mdChapter `json:"data"`
}

type mdAtHome struct {
	BaseURL string `json:"baseUrl"`
	Chapter struct {
		Hash string   `json:"hash"`
		Data []string `json:"data"`
	} `json:"chapter"`
}

// localizedText is a MangaDex language map ({"en": "...", "ja-ro": "..."}) that
// remembers key order, so "the first title upstream sent" is well defined.
type localizedText struct {
	keys   []string
	values map[string]string
}

func (l *localizedText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '[':
		// empty language maps come back as []
		var discard []json.RawMessage
		return json.Unmarshal(b, &discard)
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("localized text: unexpected token %v", tok)
	}

	l.keys = nil
	l.values = make(map[string]string)
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var v string
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("localized text %q: %w", key, err)
		}
		if _, seen := l.values[key]; !seen {
			l.keys = append(l.keys, key)
		}
		l.values[key] = v
	}
	_, err = dec.Token()
	return err
}

func (l localizedText) get(lang string) (string, bool) {
	v, ok := l.values[lang]
	return v, ok
}

func (l localizedText) first() (string, bool) {
	if len(l.keys) == 0 {
		return "", false
	}
	return l.values[l.keys[0]], true
}

// looseNumber accepts a JSON number, a numeric string, "" or null.
type looseNumber struct {
	raw string
}

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		n.raw = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = str
	}
	n.raw = strings.TrimSpace(s)
	return nil
}

func (n looseNumber) Float() (float64, error) {
	if n.raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(n.raw, 64)
}

func (n looseNumber) Int() (int, error) {
	if n.raw == "" {
		return 0, nil
	}
	return strconv.Atoi(n.raw)
}

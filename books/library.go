// Package books is the domain monitored by the vigil viewer: a library
// document with a list of articles, read from a JSON or YAML file.
package books

import (
	"slices"
	"strings"
)

// Library is the root of a books document.
type Library struct {
	Version   string     `json:"version" yaml:"version" validate:"notblank"`
	Timestamp string     `json:"timestamp" yaml:"timestamp" validate:"datetime=2006-01-02 15:04"`
	Articles  []*Article `json:"articles" yaml:"articles" validate:"required,dive,required"`
}

// Article is a single book in the library.
type Article struct {
	ISBN13   string   `json:"isbn13" yaml:"isbn13" validate:"notblank"`
	Author   string   `json:"author" yaml:"author" validate:"notblank"`
	Title    string   `json:"title" yaml:"title" validate:"notblank"`
	Language Language `json:"language" yaml:"language" validate:"language"`
	Pages    *int     `json:"pages" yaml:"pages" validate:"required"`
}

// Equal reports whether two libraries hold the same data. Articles are
// compared element by element, in order. A nil article list only equals a
// nil list, so an omitted list never equals an empty one.
func (l *Library) Equal(other *Library) bool {
	if l == nil || other == nil {
		return l == other
	}
	if l.Version != other.Version || l.Timestamp != other.Timestamp {
		return false
	}
	if (l.Articles == nil) != (other.Articles == nil) {
		return false
	}
	return slices.EqualFunc(l.Articles, other.Articles, (*Article).Equal)
}

// Clone returns a deep copy. Nil and empty article lists are preserved.
func (l *Library) Clone() *Library {
	if l == nil {
		return nil
	}
	out := &Library{Version: l.Version, Timestamp: l.Timestamp}
	if l.Articles != nil {
		out.Articles = make([]*Article, len(l.Articles))
		for i, a := range l.Articles {
			out.Articles[i] = a.Clone()
		}
	}
	return out
}

// String renders "version, timestamp, [title,title]".
func (l *Library) String() string {
	if l == nil {
		return "<nil>"
	}
	titles := make([]string, len(l.Articles))
	for i, a := range l.Articles {
		titles[i] = a.String()
	}
	return l.Version + ", " + l.Timestamp + ", [" + strings.Join(titles, ",") + "]"
}

// Equal reports whether two articles hold the same data. Pages are
// compared by value.
func (a *Article) Equal(other *Article) bool {
	if a == nil || other == nil {
		return a == other
	}
	if a.ISBN13 != other.ISBN13 || a.Title != other.Title || a.Author != other.Author || a.Language != other.Language {
		return false
	}
	if a.Pages == nil || other.Pages == nil {
		return a.Pages == other.Pages
	}
	return *a.Pages == *other.Pages
}

// Clone returns a deep copy, including Pages.
func (a *Article) Clone() *Article {
	if a == nil {
		return nil
	}
	out := *a
	if a.Pages != nil {
		pages := *a.Pages
		out.Pages = &pages
	}
	return &out
}

func (a *Article) String() string {
	if a == nil {
		return ""
	}
	return a.Title
}

// Pages returns a pointer to n, for building articles in code.
func Pages(n int) *int {
	return &n
}

// Package blog serves the development diary shown on the landing page.
package blog

import (
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/mcoot/creaturegame/internal/model"
)

//go:embed posts/*.html
var postFiles embed.FS

// ErrPostNotFound is returned for an unknown slug
var ErrPostNotFound = model.NewError(model.KindNotFound, "post not found")

// Post is one diary entry. Body is sanitized HTML.
type Post struct {
	Slug      string
	Title     string
	Published time.Time
	Summary   string
	Body      string
}

// Entry describes a post whose body lives in posts/<slug>.html
type Entry struct {
	Slug      string
	Title     string
	Published time.Time
	Summary   string
}

// DefaultEntries lists the published posts
func DefaultEntries() []Entry {
	return []Entry{
		{
			Slug:      "kick-off",
			Title:     "Project kick-off and core concepts",
			Published: time.Date(2023, 10, 26, 0, 0, 0, 0, time.UTC),
			Summary:   "The core concepts are laid out and we are prototyping the first phase, where every creature starts as a single cell.",
		},
		{
			Slug:      "evolution-mockups",
			Title:     "Early creature evolution mockups",
			Published: time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC),
			Summary:   "Sketches of the evolution chamber, balancing a pixel art look with readable stats.",
		},
		{
			Slug:      "phase-1-stadiums",
			Title:     "Phase 1: the stadiums",
			Published: time.Date(2023, 11, 20, 0, 0, 0, 0, time.UTC),
			Summary:   "A tour of the eleven arenas where first-phase creatures fight.",
		},
	}
}

// Service holds the rendered posts, newest first
type Service struct {
	posts  []Post
	bySlug map[string]*Post
	logger *slog.Logger
}

// New loads and sanitizes the bodies of entries
func New(entries []Entry, logger *slog.Logger) (*Service, error) {
	policy := newPolicy()
	s := &Service{
		bySlug: make(map[string]*Post, len(entries)),
		logger: logger.With(slog.String("component", "blog")),
	}

	for _, e := range entries {
		raw, err := postFiles.ReadFile(path.Join("posts", e.Slug+".html"))
		if err != nil {
			return nil, fmt.Errorf("load post %q: %w", e.Slug, err)
		}
		s.posts = append(s.posts, Post{
			Slug:      e.Slug,
			Title:     e.Title,
			Published: e.Published,
			Summary:   e.Summary,
			Body:      policy.Sanitize(string(raw)),
		})
	}

	sort.SliceStable(s.posts, func(i, j int) bool {
		return s.posts[i].Published.After(s.posts[j].Published)
	})
	for i := range s.posts {
		s.bySlug[s.posts[i].Slug] = &s.posts[i]
	}

	s.logger.Debug("blog loaded", slog.Int("posts", len(s.posts)))
	return s, nil
}

// List returns every post, newest first
func (s *Service) List() []Post {
	out := make([]Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Get returns the post with the given slug
func (s *Service) Get(slug string) (Post, error) {
	p, ok := s.bySlug[slug]
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return *p, nil
}

// newPolicy allows simple formatting, links and https images
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "h2", "h3", "ul", "ol", "li", "blockquote", "strong", "em", "figure", "figcaption")

	p.AllowAttrs("href").OnElements("a")
	p.AllowRelativeURLs(true)
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemeWithCustomPolicy("https", func(*url.URL) bool { return true })
	return p
}

// MustDefault loads DefaultEntries. The posts are compiled in, so a failure is a build defect.
func MustDefault(logger *slog.Logger) *Service {
	s, err := New(DefaultEntries(), logger)
	if err != nil {
		panic(err)
	}
	return s
}

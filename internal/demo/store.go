package demo

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// Article is one post of the demo blog.
type Article struct {
	Slug      string
	Title     string
	Summary   string
	Body      string
	Tags      []string
	Published time.Time
}

// HasTag reports whether the article carries tag.
func (a *Article) HasTag(tag string) bool {
	for _, t := range a.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (a *Article) clone() *Article {
	c := *a
	c.Tags = slices.Clone(a.Tags)
	return &c
}

// TagCount is the number of articles carrying a tag.
type TagCount struct {
	Tag   string
	Count int
}

// Store is an in-memory article store safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	articles map[string]*Article
	moved    map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		articles: make(map[string]*Article),
		moved:    make(map[string]string),
	}
}

// NewSampleStore creates a store with a few articles and one moved slug.
func NewSampleStore() *Store {
	s := NewStore()
	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	s.Add(Article{
		Slug:    "hello-world",
		Title:   "Hello, world",
		Summary: "The first post.",
		Body:    "Every blog starts somewhere.",
		Tags:    []string{"meta"},
	}, base)
	s.Add(Article{
		Slug:    "server-rendering",
		Title:   "Server rendering",
		Summary: "Sending finished pages.",
		Body:    "The server renders the page the client later takes over.",
		Tags:    []string{"go", "web"},
	}, base.Add(24*time.Hour))
	s.Add(Article{
		Slug:    "client-navigation",
		Title:   "Client navigation",
		Summary: "Rendering in place.",
		Body:    "Later navigations only swap the content view.",
		Tags:    []string{"go", "web"},
	}, base.Add(48*time.Hour))
	s.Move("first-post", "hello-world")
	return s
}

// Add stores a copy of a, published at the given time. An existing article
// with the same slug is replaced.
func (s *Store) Add(a Article, published time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a.Published = published
	s.articles[a.Slug] = a.clone()
}

// Move records that from now lives at to.
func (s *Store) Move(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moved[from] = to
}

// Get returns a copy of the article, or false when the slug is unknown.
func (s *Store) Get(slug string) (Article, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[slug]
	if !ok {
		return Article{}, false
	}
	return *a.clone(), true
}

// MovedTo returns the current slug of a moved article.
func (s *Store) MovedTo(slug string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	to, ok := s.moved[slug]
	return to, ok
}

// List returns articles, newest first. A non-empty tag filters the list.
func (s *Store) List(tag string) []Article {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Article, 0, len(s.articles))
	for _, a := range s.articles {
		if tag != "" && !a.HasTag(tag) {
			continue
		}
		result = append(result, *a.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Published.After(result[j].Published)
	})
	return result
}

// Tags counts articles per tag, ordered by tag name.
func (s *Store) Tags() []TagCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, a := range s.articles {
		for _, t := range a.Tags {
			counts[strings.ToLower(t)]++
		}
	}
	result := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		result = append(result, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Tag < result[j].Tag
	})
	return result
}

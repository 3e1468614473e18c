// Package lookuptest provides an in-process stand-in for the remote book API.
package lookuptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Book is what the fake search endpoint returns for a title.
type Book struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Authors     []int  `json:"authors"`
}

// Author is what the fake author endpoint returns for an ID.
type Author struct {
	FirstName     string  `json:"firstName"`
	MiddleInitial *string `json:"middleInitial,omitempty"`
	LastName      string  `json:"lastName"`
}

// Server serves POST /api/books/search and GET /api/authors/{id}.
// Unknown titles and IDs answer 404.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	books    map[string]Book
	authors  map[int]Author
	broken   map[int]int // author id -> status code to fail with
	searches []string
	fetched  []int
}

func NewServer() *Server {
	s := &Server{
		books:   map[string]Book{},
		authors: map[int]Author{},
		broken:  map[int]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/books/search", s.search)
	mux.HandleFunc("/api/authors/", s.author)
	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL is the value to put in api.base_url.
func (s *Server) BaseURL() string { return s.URL + "/api/" }

func (s *Server) AddBook(b Book) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.Title] = b
}

func (s *Server) AddAuthor(id int, a Author) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authors[id] = a
}

// BreakAuthor makes the author endpoint answer status for id.
func (s *Server) BreakAuthor(id, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broken[id] = status
}

// Searches returns the titles received so far.
func (s *Server) Searches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.searches...)
}

// Fetched returns the author IDs requested so far, in arrival order.
func (s *Server) Fetched() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.fetched...)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.searches = append(s.searches, body.Title)
	b, ok := s.books[body.Title]
	s.mu.Unlock()

	if !ok {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, b)
}

func (s *Server) author(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/authors/"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.fetched = append(s.fetched, id)
	a, ok := s.authors[id]
	status, broken := s.broken[id]
	s.mu.Unlock()

	switch {
	case broken:
		http.Error(w, "boom", status)
	case !ok:
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	default:
		writeJSON(w, a)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(v)
}

// Ptr is a helper for optional fields.
func Ptr(s string) *string { return &s }

// Package odltest runs an in-memory ODL Video API for tests.
package odltest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/odlvideo/odlv/internal/odl"
)

// CSRFToken is the token the server expects on unsafe methods.
const CSRFToken = "test-csrf-token"

// Server is an httptest server backed by in-memory fixtures.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	pageSize     int
	collections  []odl.Collection
	videos       map[string]odl.Video
	subtitles    map[int]odl.Subtitle
	analytics    map[string]odl.VideoAnalytics
	edxEndpoints []odl.EdxEndpoint
	users        []odl.User
	owners       []odl.PotentialOwner
	failures     map[string]failure
	requests     []string
	nextID       int
}

type failure struct {
	status int
	body   any
}

// New starts a server and registers its shutdown with t.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		pageSize:  2,
		videos:    make(map[string]odl.Video),
		subtitles: make(map[int]odl.Subtitle),
		analytics: make(map[string]odl.VideoAnalytics),
		failures:  make(map[string]failure),
		nextID:    100,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// SetPageSize changes how many collections are served per page.
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// AddCollections appends collection fixtures in list order.
func (s *Server) AddCollections(cs ...odl.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = append(s.collections, cs...)
	for _, c := range cs {
		for _, v := range c.Videos {
			s.videos[v.Key] = v
		}
	}
}

// AddVideos stores video fixtures.
func (s *Server) AddVideos(vs ...odl.Video) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vs {
		s.videos[v.Key] = v
	}
}

// SetAnalytics stores analytics for a video key.
func (s *Server) SetAnalytics(key string, a odl.VideoAnalytics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics[key] = a
}

// SetDirectory sets the users, potential owners and edX endpoints fixtures.
func (s *Server) SetDirectory(users []odl.User, owners []odl.PotentialOwner, edx []odl.EdxEndpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.owners = owners
	s.edxEndpoints = edx
}

// Fail makes every request matching "METHOD /path" answer with status and a
// JSON body until Recover is called.
func (s *Server) Fail(method, path string, status int, body any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, body: body}
}

// Recover clears a failure registered with Fail.
func (s *Server) Recover(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, method+" "+path)
}

// Requests returns "METHOD /path?query" for every request served.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := make([]string, len(s.requests))
	copy(dup, s.requests)
	return dup
}

// Video returns the stored video fixture.
func (s *Server) Video(key string) (odl.Video, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[key]
	return v, ok
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.injectFailures, s.requireCSRF)
	r.Route("/api/v0", func(r chi.Router) {
		r.Get("/collections/", s.listCollections)
		r.Post("/collections/", s.createCollection)
		r.Get("/collections/{key}/", s.getCollection)
		r.Patch("/collections/{key}/", s.updateCollection)
		r.Get("/videos/{key}/", s.getVideo)
		r.Patch("/videos/{key}/", s.updateVideo)
		r.Delete("/videos/{key}/", s.deleteVideo)
		r.Get("/videos/{key}/analytics/", s.getAnalytics)
		r.Post("/upload_subtitles/", s.uploadSubtitle)
		r.Delete("/subtitles/{id}/", s.deleteSubtitle)
		r.Get("/edx-endpoints/", s.list(func() any { return s.edxEndpoints }))
		r.Get("/users/", s.list(func() any { return s.users }))
		r.Get("/potential-owners/", s.list(func() any { return s.owners }))
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := r.Method + " " + r.URL.Path
		if r.URL.RawQuery != "" {
			entry += "?" + r.URL.RawQuery
		}
		s.mu.Lock()
		s.requests = append(s.requests, entry)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if ok {
			writeJSON(w, f.status, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
		default:
			if r.Header.Get("X-CSRFToken") != CSRFToken {
				writeJSON(w, http.StatusForbidden, map[string]any{"detail": "CSRF Failed"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Invalid page."})
			return
		}
		page = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.collections)
	numPages := (total + s.pageSize - 1) / s.pageSize
	if numPages == 0 {
		numPages = 1
	}
	if page > numPages {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Invalid page."})
		return
	}
	start := (page - 1) * s.pageSize
	end := min(start+s.pageSize, total)
	results := make([]odl.Collection, end-start)
	copy(results, s.collections[start:end])
	startIndex := 0
	if end > start {
		startIndex = start + 1
	}
	writeJSON(w, http.StatusOK, odl.CollectionsPage{
		Results:    results,
		Count:      total,
		NumPages:   numPages,
		StartIndex: startIndex,
		EndIndex:   end,
	})
}

func (s *Server) createCollection(w http.ResponseWriter, r *http.Request) {
	var body odl.NewCollection
	if !decode(w, r, &body) {
		return
	}
	if body.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"title": []string{"This field may not be blank."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c := odl.Collection{
		Key:            fmt.Sprintf("c%d", s.nextID),
		Title:          body.Title,
		Description:    body.Description,
		ViewLists:      body.ViewLists,
		AdminLists:     body.AdminLists,
		IsLoggedInOnly: body.IsLoggedInOnly,
		Owner:          body.Owner,
		IsAdmin:        true,
	}
	s.collections = append([]odl.Collection{c}, s.collections...)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) findCollection(key string) int {
	for i, c := range s.collections {
		if c.Key == key {
			return i
		}
	}
	return -1
}

func (s *Server) getCollection(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findCollection(chi.URLParam(r, "key"))
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, s.collections[idx])
}

func (s *Server) updateCollection(w http.ResponseWriter, r *http.Request) {
	var body odl.CollectionUpdate
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.findCollection(chi.URLParam(r, "key"))
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	c := s.collections[idx]
	if body.Title != nil {
		c.Title = *body.Title
	}
	if body.Description != nil {
		c.Description = *body.Description
	}
	if body.ViewLists != nil {
		c.ViewLists = *body.ViewLists
	}
	if body.AdminLists != nil {
		c.AdminLists = *body.AdminLists
	}
	s.collections[idx] = c
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) getVideo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.videos[chi.URLParam(r, "key")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) updateVideo(w http.ResponseWriter, r *http.Request) {
	var body odl.VideoUpdate
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chi.URLParam(r, "key")
	v, ok := s.videos[key]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	if body.Title != nil {
		if *body.Title == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"title": []string{"This field may not be blank."}})
			return
		}
		v.Title = *body.Title
	}
	if body.Description != nil {
		v.Description = *body.Description
	}
	s.videos[key] = v
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := chi.URLParam(r, "key")
	if _, ok := s.videos[key]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	delete(s.videos, key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getAnalytics(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.analytics[chi.URLParam(r, "key")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": a})
}

func (s *Server) uploadSubtitle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"file": []string{"No file was submitted."}})
		return
	}
	defer file.Close()
	if _, err := io.Copy(io.Discard, file); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sub := odl.Subtitle{
		ID:       s.nextID,
		VideoKey: r.FormValue("video"),
		Language: r.FormValue("language"),
		Filename: r.FormValue("filename"),
	}
	s.subtitles[sub.ID] = sub
	writeJSON(w, http.StatusAccepted, sub)
}

func (s *Server) deleteSubtitle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subtitles[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	delete(s.subtitles, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) list(get func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, get())
	}
}

func decode(w http.ResponseWriter, r *http.Request, dest any) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "JSON parse error"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

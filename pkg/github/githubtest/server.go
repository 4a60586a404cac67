// Package githubtest provides an in-memory GitHub issue comment API for tests.
package githubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"
)

// Server serves the list, create and edit issue comment endpoints.
type Server struct {
	*httptest.Server

	// PerPage caps the page size the server returns, regardless of the
	// per_page the client requests.
	PerPage int
	// Token, when set, is the bearer token every request must carry.
	Token string
	// Login is the author recorded on comments created through the API.
	Login string

	mu       sync.Mutex
	comments map[int][]*github.IssueComment
	nextID   int64
	clock    time.Time

	ListCalls   int
	CreateCalls int
	EditCalls   int
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		PerPage:  100,
		Login:    "github-actions[bot]",
		comments: make(map[int][]*github.IssueComment),
		nextID:   1000,
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// AddComment seeds a comment on issue and returns its id. A nil body or an
// empty author is stored as absent.
func (s *Server) AddComment(issue int, author string, body *string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(issue, author, body).GetID()
}

// Comments returns a snapshot of the comments on issue in creation order.
func (s *Server) Comments(issue int) []*github.IssueComment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*github.IssueComment, len(s.comments[issue]))
	copy(out, s.comments[issue])
	return out
}

func (s *Server) add(issue int, author string, body *string) *github.IssueComment {
	s.nextID++
	s.clock = s.clock.Add(time.Minute)
	c := &github.IssueComment{
		ID:        github.Ptr(s.nextID),
		Body:      body,
		HTMLURL:   github.Ptr(fmt.Sprintf("https://github.com/o/r/pull/%d#issuecomment-%d", issue, s.nextID)),
		CreatedAt: &github.Timestamp{Time: s.clock},
		UpdatedAt: &github.Timestamp{Time: s.clock},
	}
	if author != "" {
		c.User = &github.User{Login: github.Ptr(author)}
	}
	s.comments[issue] = append(s.comments[issue], c)
	return c
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// repos/{owner}/{repo}/issues/{number}/comments
	// repos/{owner}/{repo}/issues/comments/{id}
	if len(parts) != 6 || parts[0] != "repos" || parts[3] != "issues" {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	switch {
	case parts[5] == "comments" && r.Method == http.MethodGet:
		s.handleList(w, r, parts[4])
	case parts[5] == "comments" && r.Method == http.MethodPost:
		s.handleCreate(w, r, parts[4])
	case parts[4] == "comments" && r.Method == http.MethodPatch:
		s.handleEdit(w, r, parts[5])
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request, number string) {
	issue, err := strconv.Atoi(number)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++

	all := s.comments[issue]
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if size < 1 || size > s.PerPage {
		size = s.PerPage
	}

	start := (page - 1) * size
	end := start + size
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	if end < len(all) {
		next := *r.URL
		q := next.Query()
		q.Set("page", strconv.Itoa(page+1))
		next.RawQuery = q.Encode()
		w.Header().Set("Link", fmt.Sprintf(`<%s%s>; rel="next"`, s.URL, next.RequestURI()))
	}
	writeJSON(w, http.StatusOK, all[start:end])
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request, number string) {
	issue, err := strconv.Atoi(number)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	var req github.IssueComment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}
	if req.GetBody() == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation Failed",
			"errors":  []map[string]string{{"resource": "IssueComment", "field": "body", "code": "missing_field"}},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.CreateCalls++
	writeJSON(w, http.StatusCreated, s.add(issue, s.Login, req.Body))
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	var req github.IssueComment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Problems parsing JSON"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.EditCalls++

	for _, issue := range s.issues() {
		for _, c := range s.comments[issue] {
			if c.GetID() != id {
				continue
			}
			s.clock = s.clock.Add(time.Minute)
			c.Body = req.Body
			c.UpdatedAt = &github.Timestamp{Time: s.clock}
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
}

func (s *Server) issues() []int {
	keys := make([]int, 0, len(s.comments))
	for k := range s.comments {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Package boardtest provides an in-memory board API server for tests. It
// implements the subset of the board REST API that the board client uses,
// with real mutation semantics: created cards land at the bottom of their
// column, moves honor top/bottom placement, comments are returned newest
// first, and every mutation bumps the card's last-activity timestamp.
package boardtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dovecote/drover/pkg/board"
)

// Key and Token are the credentials the server accepts. Requests carrying
// anything else are rejected with a 401, mirroring the real board API.
const (
	Key   = "test-key"
	Token = "test-token"
)

type list struct {
	id    string
	name  string
	cards []string // ordered card IDs, top of the column first
}

type card struct {
	id           string
	name         string
	listID       string
	lastActivity time.Time
	comments     []comment // newest first
}

type comment struct {
	id   string
	text string
	date time.Time
}

// Server is a fake board reachable over HTTP. All exported methods are safe
// for concurrent use with in-flight requests.
type Server struct {
	mu     sync.Mutex
	srv    *httptest.Server
	boards map[string][]string // board ID -> ordered list IDs
	lists  map[string]*list
	cards  map[string]*card
}

// NewServer starts a fake board server. Callers must Close it when done.
func NewServer() *Server {
	s := &Server{
		boards: make(map[string][]string),
		lists:  make(map[string]*list),
		cards:  make(map[string]*card),
	}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the base URL of the fake board API.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts down the underlying HTTP server.
func (s *Server) Close() {
	s.srv.Close()
}

// Client returns a board client configured against this server.
func (s *Server) Client() *board.Client {
	client, err := board.NewClient(board.Config{
		BaseURL: s.srv.URL,
		Key:     Key,
		Token:   Token,
	})
	if err != nil {
		panic(err) // static config, cannot fail
	}
	return client
}

// AddBoard creates a board with one column per name, in the given order, and
// returns the board ID plus the column IDs.
func (s *Server) AddBoard(listNames ...string) (string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	boardID := uuid.New().String()
	listIDs := make([]string, 0, len(listNames))
	for _, name := range listNames {
		l := &list{id: uuid.New().String(), name: name}
		s.lists[l.id] = l
		listIDs = append(listIDs, l.id)
	}
	s.boards[boardID] = listIDs
	return boardID, listIDs
}

// AddCard appends a card to the bottom of a column and returns its ID.
// Panics on an unknown column; tests control the fixture.
func (s *Server) AddCard(listID, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listID]
	if !ok {
		panic("boardtest: unknown list " + listID)
	}
	c := &card{
		id:           uuid.New().String(),
		name:         name,
		listID:       listID,
		lastActivity: time.Now().UTC(),
	}
	s.cards[c.id] = c
	l.cards = append(l.cards, c.id)
	return c.id
}

// SeedComment makes text the newest comment of a card and rewinds the card's
// last-activity timestamp to at. Tests use it to construct cards that were
// notified some time ago.
func (s *Server) SeedComment(cardID, text string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[cardID]
	if !ok {
		panic("boardtest: unknown card " + cardID)
	}
	c.comments = append([]comment{{id: uuid.New().String(), text: text, date: at}}, c.comments...)
	c.lastActivity = at
}

// SetLastActivity overrides a card's last-activity timestamp.
func (s *Server) SetLastActivity(cardID string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[cardID]
	if !ok {
		panic("boardtest: unknown card " + cardID)
	}
	c.lastActivity = at
}

// CardNames returns the display names of a column's cards, top first.
func (s *Server) CardNames(listID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listID]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(l.cards))
	for _, id := range l.cards {
		names = append(names, s.cards[id].name)
	}
	return names
}

// CommentTexts returns a card's comment texts, newest first.
func (s *Server) CommentTexts(cardID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[cardID]
	if !ok {
		return nil
	}
	texts := make([]string, 0, len(c.comments))
	for _, cm := range c.comments {
		texts = append(texts, cm.text)
	}
	return texts
}

// CardColumn returns the ID of the column currently holding the card.
func (s *Server) CardColumn(cardID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[cardID]
	if !ok {
		return "", false
	}
	return c.listID, true
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Get("key") != Key || query.Get("token") != Token {
		http.Error(w, "invalid key", http.StatusUnauthorized)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "1" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodGet && len(parts) == 4 && parts[1] == "boards" && parts[3] == "lists":
		s.handleLists(w, parts[2])
	case r.Method == http.MethodGet && len(parts) == 4 && parts[1] == "lists" && parts[3] == "cards":
		s.handleCards(w, parts[2])
	case r.Method == http.MethodGet && len(parts) == 4 && parts[1] == "cards" && parts[3] == "actions":
		s.handleActions(w, parts[2])
	case r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cards":
		s.handleCreate(w, query)
	case r.Method == http.MethodPut && len(parts) == 3 && parts[1] == "cards":
		s.handleMove(w, parts[2], query)
	case r.Method == http.MethodPost && len(parts) == 5 && parts[1] == "cards" && parts[3] == "actions" && parts[4] == "comments":
		s.handleComment(w, parts[2], query)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) handleLists(w http.ResponseWriter, boardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listIDs, ok := s.boards[boardID]
	if !ok {
		http.Error(w, "board not found", http.StatusNotFound)
		return
	}
	lists := make([]board.List, 0, len(listIDs))
	for _, id := range listIDs {
		lists = append(lists, board.List{ID: id, Name: s.lists[id].name})
	}
	writeJSON(w, lists)
}

func (s *Server) handleCards(w http.ResponseWriter, listID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listID]
	if !ok {
		http.Error(w, "list not found", http.StatusNotFound)
		return
	}
	cards := make([]board.Card, 0, len(l.cards))
	for i, id := range l.cards {
		cards = append(cards, s.renderCard(s.cards[id], i))
	}
	writeJSON(w, cards)
}

func (s *Server) handleActions(w http.ResponseWriter, cardID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[cardID]
	if !ok {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	type actionData struct {
		Text string `json:"text"`
	}
	type action struct {
		ID   string     `json:"id"`
		Type string     `json:"type"`
		Date time.Time  `json:"date"`
		Data actionData `json:"data"`
	}
	actions := make([]action, 0, len(c.comments))
	for _, cm := range c.comments {
		actions = append(actions, action{ID: cm.id, Type: "commentCard", Date: cm.date, Data: actionData{Text: cm.text}})
	}
	writeJSON(w, actions)
}

func (s *Server) handleCreate(w http.ResponseWriter, query map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listID := first(query, "idList")
	name := first(query, "name")
	l, ok := s.lists[listID]
	if !ok {
		http.Error(w, "list not found", http.StatusNotFound)
		return
	}
	c := &card{
		id:           uuid.New().String(),
		name:         name,
		listID:       listID,
		lastActivity: time.Now().UTC(),
	}
	s.cards[c.id] = c
	l.cards = append(l.cards, c.id)
	writeJSON(w, s.renderCard(c, len(l.cards)-1))
}

func (s *Server) handleMove(w http.ResponseWriter, cardID string, query map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[cardID]
	if !ok {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	dest, ok := s.lists[first(query, "idList")]
	if !ok {
		http.Error(w, "list not found", http.StatusNotFound)
		return
	}

	src := s.lists[c.listID]
	for i, id := range src.cards {
		if id == cardID {
			src.cards = append(src.cards[:i], src.cards[i+1:]...)
			break
		}
	}
	if first(query, "pos") == string(board.PositionBottom) {
		dest.cards = append(dest.cards, cardID)
	} else {
		dest.cards = append([]string{cardID}, dest.cards...)
	}
	c.listID = dest.id
	c.lastActivity = time.Now().UTC()
	writeJSON(w, s.renderCard(c, 0))
}

func (s *Server) handleComment(w http.ResponseWriter, cardID string, query map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cards[cardID]
	if !ok {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	now := time.Now().UTC()
	cm := comment{id: uuid.New().String(), text: first(query, "text"), date: now}
	c.comments = append([]comment{cm}, c.comments...)
	c.lastActivity = now
	writeJSON(w, map[string]string{"id": cm.id})
}

// renderCard builds the wire representation of a card. Positions are synthetic
// but strictly increasing down the column, like the real board's sort keys.
func (s *Server) renderCard(c *card, index int) board.Card {
	return board.Card{
		ID:           c.id,
		Name:         c.name,
		LastActivity: c.lastActivity,
		Pos:          float64((index + 1) * 1024),
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func first(query map[string][]string, key string) string {
	if vals := query[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

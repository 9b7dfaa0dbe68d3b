package board

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds the settings needed to reach the board API.
type Config struct {
	// BaseURL is the root of the board API, e.g. "https://api.trello.com".
	BaseURL string

	// Key and Token authenticate every request. They are sent as query
	// parameters, which is how the board API expects them.
	Key   string
	Token string

	// HTTPClient is used for all requests. If nil a client with a 30 second
	// overall timeout is used. Individual polls rely on the caller's context
	// for cancellation.
	HTTPClient *http.Client
}

// Client is a stateless wrapper around the board's REST API. It is safe for
// concurrent use; overlapping polls share the one underlying http.Client.
type Client struct {
	baseURL    string
	key        string
	token      string
	httpClient *http.Client
}

// NewClient creates a board API client.
// Returns an error if the base URL or either credential is empty.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("board base URL cannot be empty")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid board base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("board API key cannot be empty")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("board API token cannot be empty")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		key:        cfg.Key,
		token:      cfg.Token,
		httpClient: httpClient,
	}, nil
}

// Lists returns the open columns of a board, in board order.
func (c *Client) Lists(ctx context.Context, boardID string) ([]List, error) {
	if boardID == "" {
		return nil, fmt.Errorf("board ID cannot be empty")
	}
	body, err := c.do(ctx, http.MethodGet, "/1/boards/"+boardID+"/lists", url.Values{"filter": {"open"}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch columns for board %s: %w", boardID, err)
	}
	var lists []List
	if err := json.Unmarshal(body, &lists); err != nil {
		return nil, fmt.Errorf("failed to decode column list: %w", err)
	}
	return lists, nil
}

// Cards returns the open cards of a column, top of the column first.
func (c *Client) Cards(ctx context.Context, listID string) ([]Card, error) {
	if listID == "" {
		return nil, fmt.Errorf("list ID cannot be empty")
	}
	body, err := c.do(ctx, http.MethodGet, "/1/lists/"+listID+"/cards", url.Values{"filter": {"open"}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cards for list %s: %w", listID, err)
	}
	var cards []Card
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode card list: %w", err)
	}
	return cards, nil
}

// commentAction is the wire shape of a comment: the board models comments as
// card actions with the text nested under "data".
type commentAction struct {
	ID   string    `json:"id"`
	Date time.Time `json:"date"`
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
}

// Comments returns a card's comments, newest first (board order).
func (c *Client) Comments(ctx context.Context, cardID string) ([]Comment, error) {
	if cardID == "" {
		return nil, fmt.Errorf("card ID cannot be empty")
	}
	body, err := c.do(ctx, http.MethodGet, "/1/cards/"+cardID+"/actions", url.Values{"filter": {"commentCard"}})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments for card %s: %w", cardID, err)
	}
	var actions []commentAction
	if err := json.Unmarshal(body, &actions); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	comments := make([]Comment, 0, len(actions))
	for _, action := range actions {
		comments = append(comments, Comment{ID: action.ID, Text: action.Data.Text, Date: action.Date})
	}
	return comments, nil
}

// CreateCard creates a card at the bottom of a column and returns it.
func (c *Client) CreateCard(ctx context.Context, listID, name string) (*Card, error) {
	if listID == "" {
		return nil, fmt.Errorf("list ID cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("card name cannot be empty")
	}
	body, err := c.do(ctx, http.MethodPost, "/1/cards", url.Values{"idList": {listID}, "name": {name}})
	if err != nil {
		return nil, fmt.Errorf("failed to create card %q: %w", name, err)
	}
	var card Card
	if err := json.Unmarshal(body, &card); err != nil {
		return nil, fmt.Errorf("failed to decode created card: %w", err)
	}
	return &card, nil
}

// MoveCard moves a card into a column at the given position. PositionDefault
// is sent as PositionTop so the placement does not depend on board defaults.
func (c *Client) MoveCard(ctx context.Context, cardID, listID string, pos Position) error {
	if cardID == "" {
		return fmt.Errorf("card ID cannot be empty")
	}
	if listID == "" {
		return fmt.Errorf("list ID cannot be empty")
	}
	if err := pos.Validate(); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}
	if pos == PositionDefault {
		pos = PositionTop
	}
	_, err := c.do(ctx, http.MethodPut, "/1/cards/"+cardID, url.Values{"idList": {listID}, "pos": {string(pos)}})
	if err != nil {
		return fmt.Errorf("failed to move card %s: %w", cardID, err)
	}
	return nil
}

// AddComment appends a comment to a card. The board bumps the card's
// last-activity timestamp as a side effect.
func (c *Client) AddComment(ctx context.Context, cardID, text string) error {
	if cardID == "" {
		return fmt.Errorf("card ID cannot be empty")
	}
	if text == "" {
		return fmt.Errorf("comment text cannot be empty")
	}
	_, err := c.do(ctx, http.MethodPost, "/1/cards/"+cardID+"/actions/comments", url.Values{"text": {text}})
	if err != nil {
		return fmt.Errorf("failed to comment on card %s: %w", cardID, err)
	}
	return nil
}

// do performs one request against the board API with the credentials attached
// and returns the response body. Non-2xx responses come back as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.key)
	query.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response for %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}

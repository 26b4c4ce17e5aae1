package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dex-quiz-service/internal/domain"
	"dex-quiz-service/internal/logger"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL = "https://pokeapi.co/api/v2"
	defaultTimeout = 10 * time.Second
)

// Client reads records from the PokeAPI. Concurrent requests for the same id
// share one HTTP call; nothing is kept once the call returns.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
	sf         singleflight.Group
}

// NewClient creates a Client against the public PokeAPI.
func NewClient(log *logger.Logger) *Client {
	return NewClientWithURL(DefaultBaseURL, defaultTimeout, log)
}

// NewClientWithURL creates a Client with a custom base URL and timeout.
func NewClientWithURL(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With("adapter", "pokeapi"),
	}
}

// FetchRecord fetches the record for id. A 404 wraps domain.ErrRecordNotFound.
// Concurrent callers for the same id share one upstream request; that request
// is bounded by the client timeout only, and each caller stops waiting when
// its own ctx ends.
func (c *Client) FetchRecord(ctx context.Context, id int) (domain.Record, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(strconv.Itoa(id), func() (interface{}, error) {
		return c.fetch(shared, id)
	})

	select {
	case <-ctx.Done():
		return domain.Record{}, fmt.Errorf("pokeapi: id %d: %w", id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Record{}, res.Err
		}
		if res.Shared {
			c.log.Debug("pokeapi request shared", "id", id)
		}
		return res.Val.(domain.Record), nil
	}
}

func (c *Client) fetch(ctx context.Context, id int) (domain.Record, error) {
	reqURL := c.baseURL + "/pokemon/" + strconv.Itoa(id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return domain.Record{}, fmt.Errorf("pokeapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Record{}, fmt.Errorf("pokeapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.Record{}, fmt.Errorf("pokeapi: id %d: %w", id, domain.ErrRecordNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.Record{}, fmt.Errorf("pokeapi: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Record{}, fmt.Errorf("pokeapi: read body: %w", err)
	}

	var p apiPokemon
	if err := json.Unmarshal(body, &p); err != nil {
		return domain.Record{}, fmt.Errorf("pokeapi: decode json: %w", err)
	}
	if p.Name == "" {
		return domain.Record{}, fmt.Errorf("pokeapi: id %d: empty name", id)
	}

	rec := mapPokemon(p)
	if rec.ID == 0 {
		rec.ID = id
	}
	c.log.Debug("pokeapi response", "id", rec.ID, "name", rec.Name)
	return rec, nil
}

// mapPokemon prefers the default front sprite and falls back to official artwork.
func mapPokemon(p apiPokemon) domain.Record {
	sprite := p.Sprites.FrontDefault
	if sprite == "" {
		sprite = p.Sprites.Other.OfficialArtwork.FrontDefault
	}
	return domain.Record{
		ID:     p.ID,
		Name:   strings.ToLower(p.Name),
		Sprite: sprite,
	}
}

package tacticsclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/park285/squad-tactics/internal/tactics"
	"github.com/park285/squad-tactics/pkg/tacticsdto"
)

// HeaderProvider injects per-request headers.
type HeaderProvider func() map[string]string

// Client calls the tactics HTTP API as a single player.
type Client struct {
	baseURL string
	player  string
	http    *fasthttp.Client
	headers HeaderProvider

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func WithHeaderProvider(h HeaderProvider) Option {
	return func(c *Client) { c.headers = h }
}

// WithRetry bounds attempts for idempotent reads.
func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

// WithDial replaces the TCP dialer, e.g. with an in-memory listener.
func WithDial(dial func(addr string) (net.Conn, error)) Option {
	return func(c *Client) { c.http.Dial = fasthttp.DialFunc(dial) }
}

func NewClient(baseURL, player string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		player:         strings.TrimSpace(player),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 64},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Player returns the identity the client acts as.
func (c *Client) Player() string { return c.player }

func (c *Client) CreateGame(ctx context.Context, opponent string, opts tactics.Options) (*tacticsdto.SessionState, error) {
	req := tacticsdto.CreateGameRequest{Opponent: opponent, Ranked: opts.Ranked, MaxTurns: opts.MaxTurns, Stake: opts.Stake}
	return c.session(ctx, fasthttp.MethodPost, "/games", req)
}

func (c *Client) Join(ctx context.Context, id string) (*tacticsdto.SessionState, error) {
	return c.session(ctx, fasthttp.MethodPost, gamePath(id, "join"), nil)
}

func (c *Client) Cancel(ctx context.Context, id string) (*tacticsdto.SessionState, error) {
	return c.session(ctx, fasthttp.MethodPost, gamePath(id, "cancel"), nil)
}

func (c *Client) Move(ctx context.Context, id string, unit, x, y int) (*tacticsdto.SessionState, error) {
	return c.session(ctx, fasthttp.MethodPost, gamePath(id, "move"), tacticsdto.MoveRequest{Unit: unit, X: x, Y: y})
}

func (c *Client) Attack(ctx context.Context, id string, attacker, target int) (*tacticsdto.SessionState, error) {
	return c.session(ctx, fasthttp.MethodPost, gamePath(id, "attack"), tacticsdto.AttackRequest{Attacker: attacker, Target: target})
}

func (c *Client) Defend(ctx context.Context, id string, unit int) (*tacticsdto.SessionState, error) {
	return c.session(ctx, fasthttp.MethodPost, gamePath(id, "defend"), tacticsdto.DefendRequest{Unit: unit})
}

func (c *Client) EndTurn(ctx context.Context, id string) (*tacticsdto.SessionState, error) {
	return c.session(ctx, fasthttp.MethodPost, gamePath(id, "end-turn"), nil)
}

func (c *Client) Forfeit(ctx context.Context, id string) (*tacticsdto.SessionState, error) {
	return c.session(ctx, fasthttp.MethodPost, gamePath(id, "forfeit"), nil)
}

// Apply submits a parsed action; the action's player field is ignored in
// favour of the client's identity.
func (c *Client) Apply(ctx context.Context, id string, a tactics.Action) (*tacticsdto.SessionState, error) {
	switch a.Kind {
	case tactics.ActionMove:
		return c.Move(ctx, id, a.Unit, a.To.X, a.To.Y)
	case tactics.ActionAttack:
		return c.Attack(ctx, id, a.Unit, a.Target)
	case tactics.ActionDefend:
		return c.Defend(ctx, id, a.Unit)
	case tactics.ActionEndTurn:
		return c.EndTurn(ctx, id)
	case tactics.ActionForfeit:
		return c.Forfeit(ctx, id)
	}
	return nil, tactics.NewError(tactics.CodeInvalidAction, "unknown action %q", a.Kind)
}

func (c *Client) State(ctx context.Context, id string) (*tacticsdto.SessionState, error) {
	var out tacticsdto.SessionState
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/games/"+url.PathEscape(id), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Actions(ctx context.Context, id string) (*tacticsdto.ActionLog, error) {
	var out tacticsdto.ActionLog
	if err := c.doJSON(ctx, fasthttp.MethodGet, gamePath(id, "actions"), nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Games(ctx context.Context, player string) ([]tacticsdto.SessionState, error) {
	var out tacticsdto.GamesResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/players/"+url.PathEscape(player)+"/games", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Games, nil
}

func (c *Client) Results(ctx context.Context, player string, limit int) ([]tacticsdto.GameResult, error) {
	path := "/players/" + url.PathEscape(player) + "/results"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out tacticsdto.ResultsResponse
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &out, true); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func gamePath(id, verb string) string {
	return "/games/" + url.PathEscape(id) + "/" + verb
}

func (c *Client) session(ctx context.Context, method, path string, in any) (*tacticsdto.SessionState, error) {
	var out tacticsdto.SessionState
	if err := c.doJSON(ctx, method, path, in, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if c.player != "" {
		req.Header.Set(tacticsdto.PlayerHeader, c.player)
	}
	if c.headers != nil {
		for k, v := range c.headers() {
			if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
				req.Header.Set(k, v)
			}
		}
	}
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry && c.retryMax > 1 {
		attempts = c.retryMax
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			if attempt == attempts {
				return lastErr
			}
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			err := decodeError(status, resp.Body())
			if attempt == attempts || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

// decodeError turns an error body back into *tactics.Error when it carries
// a domain code, so callers can keep using errors.Is.
func decodeError(status int, body []byte) error {
	var de tacticsdto.DomainError
	if err := json.Unmarshal(body, &de); err != nil || de.Code == "" {
		return fmt.Errorf("tactics api error: status=%d body=%s", status, truncate(string(body), 512))
	}
	if tactics.IsCode(de.Code) {
		return &tactics.Error{Code: tactics.Code(de.Code), Message: de.Message}
	}
	return de
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

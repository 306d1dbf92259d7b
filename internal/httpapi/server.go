package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/squad-tactics/internal/domain"
	"github.com/park285/squad-tactics/internal/msgcat"
	"github.com/park285/squad-tactics/internal/obslog"
	"github.com/park285/squad-tactics/internal/pvptactics"
	"github.com/park285/squad-tactics/internal/tactics"
	"github.com/park285/squad-tactics/pkg/tacticsdto"
)

// Service is the session API the server exposes.
type Service interface {
	CreateGame(ctx context.Context, creator, opponent string, opts tactics.Options) (*tactics.Session, error)
	JoinGame(ctx context.Context, id, joiner string) (*tactics.Session, error)
	CancelGame(ctx context.Context, id, actor string) (*tactics.Session, error)
	Move(ctx context.Context, id, player string, unit, x, y int) (*tactics.Session, error)
	Attack(ctx context.Context, id, player string, attacker, target int) (*tactics.Session, error)
	Defend(ctx context.Context, id, player string, unit int) (*tactics.Session, error)
	EndTurn(ctx context.Context, id, player string) (*tactics.Session, error)
	Forfeit(ctx context.Context, id, player string) (*tactics.Session, error)
	GetGame(ctx context.Context, id string) (*pvptactics.Game, error)
	GamesByPlayer(ctx context.Context, player string) ([]*tactics.Session, error)
	RecentResults(ctx context.Context, player string, limit int) ([]*domain.GameResult, error)
}

// Server maps the JSON API onto a Service:
//
//	POST /games                       create (body CreateGameRequest)
//	GET  /games/{id}                  state
//	GET  /games/{id}/actions          action log
//	POST /games/{id}/join|cancel|end-turn|forfeit
//	POST /games/{id}/move|attack|defend
//	GET  /players/{id}/games          live sessions
//	GET  /players/{id}/results        archived results (?limit=)
//
// The acting player comes from the X-Player-Id header.
type Server struct {
	svc     Service
	cat     *msgcat.Catalog
	timeout time.Duration
	srv     *fasthttp.Server
}

func New(svc Service, cat *msgcat.Catalog) *Server {
	s := &Server{svc: svc, cat: cat, timeout: 5 * time.Second}
	s.srv = &fasthttp.Server{
		Handler:      s.Handler(),
		Name:         "squad-tactics",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Serve blocks until ln is closed or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()
	select {
	case <-ctx.Done():
		return s.srv.ShutdownWithContext(context.Background())
	case err := <-errCh:
		return err
	}
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	obslog.L().Info("http_listen", zap.String("addr", ln.Addr().String()))
	return s.Serve(ctx, ln)
}

func (s *Server) Handler() fasthttp.RequestHandler {
	return func(rc *fasthttp.RequestCtx) {
		start := time.Now()
		s.route(rc)
		obslog.L().Debug("http_request",
			zap.ByteString("method", rc.Method()),
			zap.ByteString("path", rc.Path()),
			zap.Int("status", rc.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) route(rc *fasthttp.RequestCtx) {
	parts := strings.Split(strings.Trim(string(rc.Path()), "/"), "/")
	post := rc.IsPost()
	get := rc.IsGet()

	switch {
	case len(parts) == 1 && parts[0] == "healthz" && get:
		rc.SetStatusCode(fasthttp.StatusOK)
		rc.SetBodyString("ok")
	case len(parts) == 1 && parts[0] == "games" && post:
		s.createGame(rc)
	case len(parts) == 2 && parts[0] == "games" && get:
		s.getState(rc, parts[1])
	case len(parts) == 3 && parts[0] == "games" && parts[2] == "actions" && get:
		s.getActions(rc, parts[1])
	case len(parts) == 3 && parts[0] == "games" && post:
		s.gameAction(rc, parts[1], parts[2])
	case len(parts) == 3 && parts[0] == "players" && parts[2] == "games" && get:
		s.playerGames(rc, parts[1])
	case len(parts) == 3 && parts[0] == "players" && parts[2] == "results" && get:
		s.playerResults(rc, parts[1])
	default:
		s.writeError(rc, fasthttp.StatusNotFound, "NOT_FOUND", "no such route")
	}
}

func (s *Server) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *Server) createGame(rc *fasthttp.RequestCtx) {
	var req tacticsdto.CreateGameRequest
	if !s.decode(rc, &req) {
		return
	}
	ctx, cancel := s.context()
	defer cancel()
	sess, err := s.svc.CreateGame(ctx, player(rc), req.Opponent, tactics.Options{
		Ranked:   req.Ranked,
		MaxTurns: req.MaxTurns,
		Stake:    req.Stake,
	})
	if err != nil {
		s.fail(rc, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusCreated, toSessionState(sess))
}

func (s *Server) getState(rc *fasthttp.RequestCtx, id string) {
	ctx, cancel := s.context()
	defer cancel()
	g, err := s.svc.GetGame(ctx, id)
	if err != nil {
		s.fail(rc, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, toSessionState(g.Session))
}

func (s *Server) getActions(rc *fasthttp.RequestCtx, id string) {
	ctx, cancel := s.context()
	defer cancel()
	g, err := s.svc.GetGame(ctx, id)
	if err != nil {
		s.fail(rc, err)
		return
	}
	out := tacticsdto.ActionLog{GameID: g.ID(), Version: g.Version, Actions: make([]string, 0, len(g.Actions))}
	for _, a := range g.Actions {
		out.Actions = append(out.Actions, a.Notation())
	}
	s.writeJSON(rc, fasthttp.StatusOK, out)
}

func (s *Server) gameAction(rc *fasthttp.RequestCtx, id, verb string) {
	who := player(rc)
	ctx, cancel := s.context()
	defer cancel()

	var (
		sess *tactics.Session
		err  error
	)
	switch verb {
	case "join":
		sess, err = s.svc.JoinGame(ctx, id, who)
	case "cancel":
		sess, err = s.svc.CancelGame(ctx, id, who)
	case "end-turn":
		sess, err = s.svc.EndTurn(ctx, id, who)
	case "forfeit":
		sess, err = s.svc.Forfeit(ctx, id, who)
	case "move":
		var req tacticsdto.MoveRequest
		if !s.decode(rc, &req) {
			return
		}
		sess, err = s.svc.Move(ctx, id, who, req.Unit, req.X, req.Y)
	case "attack":
		var req tacticsdto.AttackRequest
		if !s.decode(rc, &req) {
			return
		}
		sess, err = s.svc.Attack(ctx, id, who, req.Attacker, req.Target)
	case "defend":
		var req tacticsdto.DefendRequest
		if !s.decode(rc, &req) {
			return
		}
		sess, err = s.svc.Defend(ctx, id, who, req.Unit)
	default:
		s.writeError(rc, fasthttp.StatusNotFound, "NOT_FOUND", "no such route")
		return
	}
	if err != nil {
		s.fail(rc, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, toSessionState(sess))
}

func (s *Server) playerGames(rc *fasthttp.RequestCtx, id string) {
	ctx, cancel := s.context()
	defer cancel()
	list, err := s.svc.GamesByPlayer(ctx, id)
	if err != nil {
		s.fail(rc, err)
		return
	}
	out := tacticsdto.GamesResponse{Games: make([]tacticsdto.SessionState, 0, len(list))}
	for _, sess := range list {
		out.Games = append(out.Games, toSessionState(sess))
	}
	s.writeJSON(rc, fasthttp.StatusOK, out)
}

func (s *Server) playerResults(rc *fasthttp.RequestCtx, id string) {
	limit := 20
	if v := rc.QueryArgs().Peek("limit"); len(v) > 0 {
		n, err := strconv.Atoi(string(v))
		if err != nil || n <= 0 || n > 200 {
			s.writeError(rc, fasthttp.StatusBadRequest, string(tactics.CodeInvalidAction), "limit must be 1..200")
			return
		}
		limit = n
	}
	ctx, cancel := s.context()
	defer cancel()
	list, err := s.svc.RecentResults(ctx, id, limit)
	if err != nil {
		s.fail(rc, err)
		return
	}
	out := tacticsdto.ResultsResponse{Results: make([]tacticsdto.GameResult, 0, len(list))}
	for _, r := range list {
		out.Results = append(out.Results, toResult(r))
	}
	s.writeJSON(rc, fasthttp.StatusOK, out)
}

func player(rc *fasthttp.RequestCtx) string {
	return strings.TrimSpace(string(rc.Request.Header.Peek(tacticsdto.PlayerHeader)))
}

func (s *Server) decode(rc *fasthttp.RequestCtx, v any) bool {
	body := rc.PostBody()
	if len(body) == 0 {
		s.writeError(rc, fasthttp.StatusBadRequest, string(tactics.CodeInvalidAction), "request body required")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		s.writeError(rc, fasthttp.StatusBadRequest, string(tactics.CodeInvalidAction), "malformed request body")
		return false
	}
	return true
}

func (s *Server) fail(rc *fasthttp.RequestCtx, err error) {
	code := tactics.CodeOf(err)
	if code == "" {
		if errors.Is(err, pvptactics.ErrContended) {
			s.writeError(rc, fasthttp.StatusServiceUnavailable, "CONTENDED", err.Error())
			return
		}
		obslog.L().Error("http_internal_error", zap.ByteString("path", rc.Path()), zap.Error(err))
		s.writeError(rc, fasthttp.StatusInternalServerError, "INTERNAL", s.cat.ErrorText("internal"))
		return
	}
	s.writeError(rc, StatusFor(code), string(code), s.cat.ErrorText(string(code)))
}

// StatusFor maps a domain error code to its HTTP status.
func StatusFor(code tactics.Code) int {
	switch code {
	case tactics.CodeNotFound:
		return fasthttp.StatusNotFound
	case tactics.CodeNotParticipant, tactics.CodeWrongOpponent:
		return fasthttp.StatusForbidden
	case tactics.CodeGameNotActive, tactics.CodeNotYourTurn, tactics.CodeAlreadyActive,
		tactics.CodeNotPending, tactics.CodeGameClosed:
		return fasthttp.StatusConflict
	case tactics.CodeInvalidPlayer, tactics.CodeInvalidOpponent, tactics.CodeInvalidOptions,
		tactics.CodeInvalidAction:
		return fasthttp.StatusBadRequest
	}
	return fasthttp.StatusUnprocessableEntity
}

func (s *Server) writeError(rc *fasthttp.RequestCtx, status int, code, message string) {
	s.writeJSON(rc, status, tacticsdto.DomainError{Code: code, Message: message})
}

func (s *Server) writeJSON(rc *fasthttp.RequestCtx, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		obslog.L().Error("http_encode_error", zap.Error(err))
		rc.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	rc.SetStatusCode(status)
	rc.SetContentType("application/json")
	rc.SetBody(raw)
}

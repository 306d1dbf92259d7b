package spectate

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/squad-tactics/internal/obslog"
	"github.com/park285/squad-tactics/internal/tactics"
)

// Subscriber streams the events of one session until ctx ends.
type Subscriber interface {
	Subscribe(ctx context.Context, sessionID string) (<-chan tactics.Event, error)
}

// Server pushes a session's domain events to websocket spectators at
// GET /games/{id}/events. The socket closes normally after the game ends.
type Server struct {
	bus          Subscriber
	writeTimeout time.Duration
	srv          *http.Server
}

func New(bus Subscriber) *Server {
	s := &Server{bus: bus, writeTimeout: 5 * time.Second}
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /games/{id}/events", s.handleEvents)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	obslog.L().Info("spectator_listen", zap.String("addr", ln.Addr().String()))
	return s.Serve(ctx, ln)
}

// Serve blocks until ctx is cancelled or the listener fails.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		obslog.L().Warn("spectator_accept_error", zap.String("game_id", id), zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	ctx := conn.CloseRead(r.Context())
	events, err := s.bus.Subscribe(ctx, id)
	if err != nil {
		conn.Close(websocket.StatusTryAgainLater, "subscribe failed")
		return
	}
	obslog.L().Info("spectator_join", zap.String("game_id", id), zap.String("remote", r.RemoteAddr))
	defer obslog.L().Info("spectator_leave", zap.String("game_id", id), zap.String("remote", r.RemoteAddr))

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, s.writeTimeout)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				return
			}
			if ev.Type == tactics.EventGameFinished || ev.Type == tactics.EventGameCancelled {
				conn.Close(websocket.StatusNormalClosure, "game over")
				return
			}
		}
	}
}

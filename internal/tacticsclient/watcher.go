package tacticsclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/squad-tactics/internal/obslog"
	"github.com/park285/squad-tactics/internal/tactics"
)

type WatchState string

const (
	WatchConnecting   WatchState = "connecting"
	WatchConnected    WatchState = "connected"
	WatchReconnecting WatchState = "reconnecting"
	WatchDisconnected WatchState = "disconnected"
	WatchFailed       WatchState = "failed"
)

type EventCallback func(ev tactics.Event)

type StateCallback func(state WatchState)

type eventEntry struct {
	id       int
	callback EventCallback
}

type stateEntry struct {
	id       int
	callback StateCallback
}

// Watcher follows the spectator feed of one session and reconnects with
// backoff when the connection drops. A normal closure from the server ends
// the feed.
type Watcher struct {
	wsURL string

	state  WatchState
	stateM sync.RWMutex

	eventCbs []eventEntry
	stateCbs []stateEntry
	nextID   int
	cbM      sync.RWMutex

	maxReconnectAttempts int
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc

	headerProvider HeaderProvider
}

// NewWatcher builds a watcher for gameID on the spectator server at baseURL
// (ws://host:port).
func NewWatcher(baseURL, gameID string, maxReconnectAttempts int) *Watcher {
	return &Watcher{
		wsURL:                strings.TrimRight(baseURL, "/") + "/games/" + url.PathEscape(gameID) + "/events",
		state:                WatchDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
	}
}

// SetHeaderProvider injects headers into every handshake.
func (w *Watcher) SetHeaderProvider(h HeaderProvider) { w.headerProvider = h }

// SetPingInterval overrides the keepalive period.
func (w *Watcher) SetPingInterval(d time.Duration) {
	if d > 0 {
		w.pingInterval = d
	}
}

func (w *Watcher) Connect(ctx context.Context) error {
	w.setState(WatchConnecting)
	conn, err := w.dial(ctx)
	if err != nil {
		w.setState(WatchFailed)
		return err
	}
	w.rootCtx, w.rootCancel = context.WithCancel(context.Background())
	w.setState(WatchConnected)
	w.wg.Add(1)
	go w.run(conn)
	return nil
}

func (w *Watcher) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, w.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      w.buildHeaders(),
	})
	return conn, err
}

func (w *Watcher) run(conn *websocket.Conn) {
	defer w.wg.Done()
	for {
		err := w.listen(conn)
		if w.isStopping() || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
			w.setState(WatchDisconnected)
			return
		}
		obslog.L().Debug("tactics_watch_dropped", zap.String("url", w.wsURL), zap.Error(err))
		if conn = w.reconnect(); conn == nil {
			w.setState(WatchFailed)
			return
		}
		w.setState(WatchConnected)
	}
}

func (w *Watcher) listen(conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(w.rootCtx)
	defer cancel()
	defer conn.Close(websocket.StatusNormalClosure, "")

	w.wg.Add(1)
	go w.pingLoop(ctx, conn)

	for {
		var ev tactics.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return err
		}
		w.cbM.RLock()
		callbacks := make([]eventEntry, len(w.eventCbs))
		copy(callbacks, w.eventCbs)
		w.cbM.RUnlock()
		for _, entry := range callbacks {
			entry.callback(ev)
		}
	}
}

func (w *Watcher) pingLoop(ctx context.Context, conn *websocket.Conn) {
	defer w.wg.Done()
	t := time.NewTicker(w.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(pctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				_ = conn.Close(websocket.StatusGoingAway, "ping failure")
				return
			}
		}
	}
}

func (w *Watcher) reconnect() *websocket.Conn {
	if w.maxReconnectAttempts <= 0 {
		return nil
	}
	w.setState(WatchReconnecting)
	for attempt := 1; attempt <= w.maxReconnectAttempts; attempt++ {
		select {
		case <-w.stopCh:
			return nil
		case <-time.After(backoffDuration(attempt)):
		}
		conn, err := w.dial(w.rootCtx)
		if err == nil {
			return conn
		}
	}
	return nil
}

func (w *Watcher) OnEvent(cb EventCallback) int {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	w.nextID++
	w.eventCbs = append(w.eventCbs, eventEntry{id: w.nextID, callback: cb})
	return w.nextID
}

func (w *Watcher) RemoveEventCallback(id int) {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	for i, cb := range w.eventCbs {
		if cb.id == id {
			w.eventCbs = append(w.eventCbs[:i], w.eventCbs[i+1:]...)
			break
		}
	}
}

func (w *Watcher) OnStateChange(cb StateCallback) int {
	w.cbM.Lock()
	defer w.cbM.Unlock()
	w.nextID++
	w.stateCbs = append(w.stateCbs, stateEntry{id: w.nextID, callback: cb})
	return w.nextID
}

func (w *Watcher) State() WatchState {
	w.stateM.RLock()
	defer w.stateM.RUnlock()
	return w.state
}

func (w *Watcher) setState(state WatchState) {
	w.stateM.Lock()
	w.state = state
	w.stateM.Unlock()

	w.cbM.RLock()
	callbacks := make([]stateEntry, len(w.stateCbs))
	copy(callbacks, w.stateCbs)
	w.cbM.RUnlock()
	for _, entry := range callbacks {
		entry.callback(state)
	}
}

// Close stops the watcher and waits for its goroutines or ctx.
func (w *Watcher) Close(ctx context.Context) error {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.rootCancel != nil {
			w.rootCancel()
		}
	})
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (w *Watcher) isStopping() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

func (w *Watcher) buildHeaders() http.Header {
	hdr := http.Header{}
	if w.headerProvider == nil {
		return hdr
	}
	for k, v := range w.headerProvider() {
		if strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			continue
		}
		hdr.Set(k, v)
	}
	return hdr
}

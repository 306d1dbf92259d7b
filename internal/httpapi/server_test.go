package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/squad-tactics/internal/msgcat"
	"github.com/park285/squad-tactics/internal/pvptactics"
	"github.com/park285/squad-tactics/internal/tactics"
	"github.com/park285/squad-tactics/internal/tacticsclient"
	"github.com/park285/squad-tactics/pkg/tacticsdto"
)

type testAPI struct {
	ln   *fasthttputil.InmemoryListener
	mgr  *pvptactics.Manager
	dial func(string) (net.Conn, error)
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	var seq int64
	mgr := pvptactics.NewManager(pvptactics.NewMemoryStore(),
		pvptactics.WithIDGenerator(func() string { return fmt.Sprintf("g%d", atomic.AddInt64(&seq, 1)) }))
	mgr.AttachRepository(pvptactics.NewMemoryRepository())
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	ln := fasthttputil.NewInmemoryListener()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = New(mgr, cat).Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &testAPI{ln: ln, mgr: mgr, dial: func(string) (net.Conn, error) { return ln.Dial() }}
}

func (a *testAPI) client(player string) *tacticsclient.Client {
	return tacticsclient.NewClient("http://tactics.test", player, tacticsclient.WithDial(a.dial), tacticsclient.WithRetry(1))
}

func (a *testAPI) raw(t *testing.T, method, path, player, body string) (int, tacticsdto.DomainError) {
	t.Helper()
	c := &fasthttp.Client{Dial: a.dial}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)
	req.Header.SetMethod(method)
	req.SetRequestURI("http://tactics.test" + path)
	if player != "" {
		req.Header.Set(tacticsdto.PlayerHeader, player)
	}
	if body != "" {
		req.SetBodyString(body)
	}
	if err := c.Do(req, resp); err != nil {
		t.Fatalf("do: %v", err)
	}
	var de tacticsdto.DomainError
	_ = json.Unmarshal(resp.Body(), &de)
	return resp.StatusCode(), de
}

func TestFullMatchOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	alice, bob := api.client("alice"), api.client("bob")

	st, err := alice.CreateGame(ctx, "bob", tactics.Options{MaxTurns: 10})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if st.Status != "PENDING" || st.Player2 != "bob" || len(st.Units) != 0 {
		t.Fatalf("unexpected created state: %+v", st)
	}
	if _, err := api.client("carol").Join(ctx, st.ID); !errors.Is(err, tactics.ErrWrongOpponent) {
		t.Fatalf("expected WRONG_OPPONENT, got %v", err)
	}
	st, err = bob.Join(ctx, st.ID)
	if err != nil || st.Status != "ACTIVE" || st.CurrentPlayer != "alice" {
		t.Fatalf("Join: %v %+v", err, st)
	}
	if st.Board[0][0] != 0 || st.Board[1][1] != -1 || st.Board[2][2] != 4 {
		t.Fatalf("unexpected board: %v", st.Board)
	}

	_, err = bob.Move(ctx, st.ID, 4, 1, 1)
	if !errors.Is(err, tactics.ErrNotYourTurn) {
		t.Fatalf("expected NOT_YOUR_TURN, got %v", err)
	}
	if err.Error() != "It is not your turn." {
		t.Fatalf("message should come from the catalog, got %q", err.Error())
	}

	st, err = alice.Move(ctx, st.ID, 0, 1, 1)
	if err != nil || st.Board[1][1] != 0 {
		t.Fatalf("Move: %v %+v", err, st.Board)
	}
	if _, err := alice.Attack(ctx, st.ID, 0, 4); !errors.Is(err, tactics.ErrOutOfRange) {
		t.Fatalf("expected OUT_OF_RANGE, got %v", err)
	}
	if _, err := alice.Move(ctx, st.ID, 0, 2, 1); !errors.Is(err, tactics.ErrAlreadyMoved) {
		t.Fatalf("expected ALREADY_MOVED, got %v", err)
	} else if err.Error() != "That unit has already moved this turn." {
		t.Fatalf("message should come from the catalog, got %q", err.Error())
	}
	st, err = alice.EndTurn(ctx, st.ID)
	if err != nil || st.CurrentPlayer != "bob" || st.TurnCount != 1 {
		t.Fatalf("EndTurn: %v %+v", err, st)
	}
	st, err = bob.Attack(ctx, st.ID, 7, 0)
	if err != nil || st.Units[0].HP != 99 {
		t.Fatalf("Attack: %v", err)
	}
	st, err = bob.Forfeit(ctx, st.ID)
	if err != nil || st.Status != "FINISHED" || st.Winner != "alice" || st.FinishReason != "forfeit" {
		t.Fatalf("Forfeit: %v %+v", err, st)
	}

	log, err := alice.Actions(ctx, st.ID)
	if err != nil {
		t.Fatalf("Actions: %v", err)
	}
	if fmt.Sprint(log.Actions) != "[M0@1,1 E A7>0 F]" {
		t.Fatalf("unexpected action log: %v", log.Actions)
	}
	results, err := alice.Results(ctx, "alice", 5)
	if err != nil || len(results) != 1 || results[0].Winner != "alice" {
		t.Fatalf("Results: %v %+v", err, results)
	}
	games, err := bob.Games(ctx, "bob")
	if err != nil || len(games) != 1 || games[0].ID != st.ID {
		t.Fatalf("Games: %v %+v", err, games)
	}
}

func TestCancelOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	alice, bob := api.client("alice"), api.client("bob")
	st, err := alice.CreateGame(ctx, "bob", tactics.Options{})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if st.MaxTurns != 60 {
		t.Fatalf("default max turns not applied: %d", st.MaxTurns)
	}
	st, err = bob.Cancel(ctx, st.ID)
	if err != nil || st.Status != "CANCELLED" {
		t.Fatalf("Cancel: %v %+v", err, st)
	}
	if _, err := bob.Join(ctx, st.ID); !errors.Is(err, tactics.ErrGameClosed) {
		t.Fatalf("expected GAME_CLOSED, got %v", err)
	}
}

func TestErrorStatuses(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	st, err := api.client("alice").CreateGame(ctx, "bob", tactics.Options{MaxTurns: 5})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	cases := []struct {
		name         string
		method, path string
		player, body string
		status       int
		code         string
	}{
		{"unknown game", "GET", "/games/nope", "", "", 404, "NOT_FOUND"},
		{"unknown route", "GET", "/nowhere", "", "", 404, "NOT_FOUND"},
		{"unknown verb", "POST", "/games/" + st.ID + "/dance", "alice", "", 404, "NOT_FOUND"},
		{"malformed body", "POST", "/games/" + st.ID + "/move", "alice", "{", 400, "INVALID_ACTION"},
		{"missing body", "POST", "/games", "alice", "", 400, "INVALID_ACTION"},
		{"no identity", "POST", "/games", "", `{"opponent":"bob"}`, 400, "INVALID_PLAYER"},
		{"self challenge", "POST", "/games", "bob", `{"opponent":"bob"}`, 400, "INVALID_OPPONENT"},
		{"pending game", "POST", "/games/" + st.ID + "/end-turn", "alice", "", 409, "GAME_NOT_ACTIVE"},
		{"outsider cancel", "POST", "/games/" + st.ID + "/cancel", "mallory", "", 403, "NOT_PARTICIPANT"},
		{"bad limit", "GET", "/players/alice/results?limit=0", "", "", 400, "INVALID_ACTION"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			status, de := api.raw(t, c.method, c.path, c.player, c.body)
			if status != c.status || de.Code != c.code {
				t.Fatalf("got %d %q, want %d %q", status, de.Code, c.status, c.code)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[tactics.Code]int{
		tactics.CodeNotFound:       404,
		tactics.CodeWrongOpponent:  403,
		tactics.CodeNotYourTurn:    409,
		tactics.CodeGameClosed:     409,
		tactics.CodeCellOccupied:   422,
		tactics.CodeOutOfRange:     422,
		tactics.CodeInvalidOptions: 400,
	}
	for code, want := range cases {
		if got := StatusFor(code); got != want {
			t.Fatalf("StatusFor(%s)=%d want %d", code, got, want)
		}
	}
}

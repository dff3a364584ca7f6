package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/errors"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
	"github.com/gorilla/websocket"
)

type testServer struct {
	t         *testing.T
	bridge    *Bridge
	server    *httptest.Server
	connected chan struct{}
	intents   chan gamestate.Intent
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	ts := &testServer{
		t:         t,
		connected: make(chan struct{}, 4),
		intents:   make(chan gamestate.Intent, 4),
	}
	ts.bridge = New(append([]Option{
		WithLogger(func(string, ...any) {}),
		WithConnectHook(func() { ts.connected <- struct{}{} }),
		WithIntents(func(_ context.Context, intent gamestate.Intent) error {
			ts.intents <- intent
			return nil
		}),
	}, opts...)...)
	ts.server = httptest.NewServer(ts.bridge.Handler())
	t.Cleanup(ts.server.Close)
	return ts
}

// dial connects a page and waits until the bridge adopted it.
func (ts *testServer) dial() *websocket.Conn {
	ts.t.Helper()
	return ts.dialAs("", "")
}

// dialAs connects a page from origin with a launch token; empty values are
// left off the request.
func (ts *testServer) dialAs(origin, token string) *websocket.Conn {
	ts.t.Helper()
	conn, resp, err := ts.attempt(origin, token)
	if err != nil {
		ts.t.Fatalf("dial: %v (status %d)", err, statusOf(resp))
	}
	ts.t.Cleanup(func() { _ = conn.Close() })
	select {
	case <-ts.connected:
	case <-time.After(2 * time.Second):
		ts.t.Fatal("page was not adopted")
	}
	return conn
}

func (ts *testServer) attempt(origin, token string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + Path
	if token != "" {
		url += "?" + TokenParam + "=" + token
	}
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func statusOf(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}

type pageRequest struct {
	ID     uint64            `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func readRequest(t *testing.T, conn *websocket.Conn) pageRequest {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var req pageRequest
	if err := conn.ReadJSON(&req); err != nil {
		t.Errorf("page read: %v", err)
	}
	return req
}

func requestAsync(b *Bridge, result any, method string, params ...any) <-chan error {
	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- b.Request(ctx, result, method, params...)
	}()
	return done
}

func TestRequestWithoutPageIsDisconnected(t *testing.T) {
	b := New(WithLogger(func(string, ...any) {}))
	err := b.Request(context.Background(), nil, "eth_accounts")
	var perr *chainlink.ProviderError
	if pe, ok := err.(*chainlink.ProviderError); ok {
		perr = pe
	}
	if perr == nil || perr.Code != chainlink.CodeDisconnected {
		t.Fatalf("err = %v, want code %d", err, chainlink.CodeDisconnected)
	}
	if code := apperrors.CodeOf(chainlink.Classify(err, chainlink.ReadPath, "eth_accounts")); code != apperrors.CodeProviderMissing {
		t.Fatalf("classified = %s, want %s", code, apperrors.CodeProviderMissing)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial()

	var accounts []string
	done := requestAsync(ts.bridge, &accounts, "wallet_switchEthereumChain", map[string]string{"chainId": "0x13881"})

	req := readRequest(t, conn)
	if req.Method != "wallet_switchEthereumChain" || len(req.Params) != 1 {
		t.Fatalf("request = %+v", req)
	}
	if got := string(req.Params[0]); got != `{"chainId":"0x13881"}` {
		t.Fatalf("params = %s", got)
	}
	if err := conn.WriteJSON(map[string]any{"id": req.ID, "result": []string{"0xaa"}}); err != nil {
		t.Fatalf("page write: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(accounts) != 1 || accounts[0] != "0xaa" {
		t.Fatalf("accounts = %v, want [0xaa]", accounts)
	}
}

func TestRequestErrorKeepsProviderCode(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial()

	done := requestAsync(ts.bridge, nil, "eth_requestAccounts")
	req := readRequest(t, conn)
	if err := conn.WriteJSON(map[string]any{
		"id":    req.ID,
		"error": map[string]any{"code": 4001, "message": "User rejected the request."},
	}); err != nil {
		t.Fatalf("page write: %v", err)
	}
	err := <-done
	if code := apperrors.CodeOf(chainlink.Classify(err, chainlink.ReadPath, "eth_requestAccounts")); code != apperrors.CodeUserRejected {
		t.Fatalf("classified = %s (%v), want %s", code, err, apperrors.CodeUserRejected)
	}
}

func TestDisconnectFailsInFlightRequests(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial()

	done := requestAsync(ts.bridge, nil, "eth_chainId")
	readRequest(t, conn)
	_ = conn.Close()

	err := <-done
	pe, ok := err.(*chainlink.ProviderError)
	if !ok || pe.Code != chainlink.CodeDisconnected {
		t.Fatalf("err = %v, want code %d", err, chainlink.CodeDisconnected)
	}
}

func TestNotificationsReachLink(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial()

	link := chainlink.New(ts.bridge, chainlink.Descriptor{ChainID: "0x13881"}, chainlink.WithLogger(func(string, ...any) {}))
	chains := make(chan chainlink.ChainID, 1)
	release := link.SubscribeChainChanged(func(id chainlink.ChainID) { chains <- id })
	defer release()

	if err := conn.WriteJSON(map[string]any{"event": "chainChanged", "data": "0x1"}); err != nil {
		t.Fatalf("page write: %v", err)
	}
	select {
	case id := <-chains:
		if id != "0x1" {
			t.Fatalf("chain = %s, want 0x1", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("chainChanged not delivered")
	}
}

func TestIntentsAreForwarded(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial()

	if err := conn.WriteJSON(map[string]any{"intent": "mint", "index": 2}); err != nil {
		t.Fatalf("page write: %v", err)
	}
	select {
	case intent := <-ts.intents:
		if intent != (gamestate.Intent{Kind: gamestate.ActionMint, Index: 2}) {
			t.Fatalf("intent = %+v", intent)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("intent not forwarded")
	}
}

func TestPushReachesPage(t *testing.T) {
	ts := newTestServer(t)
	conn := ts.dial()

	ts.bridge.Push(EventNotice, map[string]string{"text": "Revive Completed!"})
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("page read: %v", err)
	}
	if frame.Event != EventNotice || frame.Data["text"] != "Revive Completed!" {
		t.Fatalf("frame = %+v", frame)
	}
}

func TestNewPageReplacesOld(t *testing.T) {
	ts := newTestServer(t)
	first := ts.dial()
	second := ts.dial()

	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := first.ReadMessage(); err == nil {
		t.Fatal("first page still open")
	}

	var chain string
	done := requestAsync(ts.bridge, &chain, "eth_chainId")
	req := readRequest(t, second)
	if err := second.WriteJSON(map[string]any{"id": req.ID, "result": "0x13881"}); err != nil {
		t.Fatalf("page write: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("request: %v", err)
	}
	if chain != "0x13881" {
		t.Fatalf("chain = %s, want 0x13881", chain)
	}
	if !ts.bridge.Connected() {
		t.Fatal("bridge reports no page")
	}
}

package bridge

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

const pageOrigin = "http://localhost:3000"

func guardedAccess(t *testing.T) (*Access, string) {
	t.Helper()
	key, err := NewLaunchKey()
	if err != nil {
		t.Fatalf("launch key: %v", err)
	}
	access := NewAccess(pageOrigin, "http://127.0.0.1:3000").WithLaunchKey(key)
	token, err := access.IssueToken(time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return access, token
}

func TestForeignOriginCannotTakeOverPage(t *testing.T) {
	access, token := guardedAccess(t)
	ts := newTestServer(t, WithAccess(access))
	page := ts.dialAs(pageOrigin, token)

	conn, resp, err := ts.attempt("https://evil.example", token)
	if err == nil {
		_ = conn.Close()
		t.Fatal("foreign origin was upgraded")
	}
	if got := statusOf(resp); got != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", got, http.StatusForbidden)
	}

	select {
	case <-ts.connected:
		t.Fatal("foreign page was adopted")
	default:
	}
	select {
	case intent := <-ts.intents:
		t.Fatalf("intent %+v dispatched", intent)
	default:
	}

	var chain string
	done := requestAsync(ts.bridge, &chain, "eth_chainId")
	req := readRequest(t, page)
	if req.Method != "eth_chainId" {
		t.Fatalf("request = %+v, want eth_chainId on the original page", req)
	}
	if err := page.WriteJSON(map[string]any{"id": req.ID, "result": "0x13881"}); err != nil {
		t.Fatalf("page write: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("request: %v", err)
	}
	if chain != "0x13881" {
		t.Fatalf("chain = %s, want 0x13881", chain)
	}
}

func TestDefaultAccessRefusesBrowserOrigins(t *testing.T) {
	ts := newTestServer(t)

	conn, resp, err := ts.attempt(pageOrigin, "")
	if err == nil {
		_ = conn.Close()
		t.Fatal("browser origin was upgraded without an allow-list")
	}
	if got := statusOf(resp); got != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", got, http.StatusForbidden)
	}
	if ts.bridge.Connected() {
		t.Fatal("bridge reports a page")
	}
}

func TestAllowedOriginIsNormalized(t *testing.T) {
	access, token := guardedAccess(t)
	ts := newTestServer(t, WithAccess(access))

	ts.dialAs("HTTP://LOCALHOST:3000/", token)

	if !ts.bridge.Connected() {
		t.Fatal("bridge reports no page")
	}
}

func TestLaunchTokenIsRequired(t *testing.T) {
	access, _ := guardedAccess(t)
	ts := newTestServer(t, WithAccess(access))

	other, _ := guardedAccess(t)
	forged, err := other.IssueToken(time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	for name, token := range map[string]string{"missing": "", "other key": forged, "garbage": "not-a-token"} {
		conn, resp, err := ts.attempt(pageOrigin, token)
		if err == nil {
			_ = conn.Close()
			t.Fatalf("%s: upgraded", name)
		}
		if got := statusOf(resp); got != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want %d", name, got, http.StatusUnauthorized)
		}
	}
	if ts.bridge.Connected() {
		t.Fatal("bridge reports a page")
	}
}

func TestLaunchTokenExpires(t *testing.T) {
	access, token := guardedAccess(t)
	access.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	if err := access.verify(token); !errors.Is(err, errTokenExpired) {
		t.Fatalf("verify = %v, want %v", err, errTokenExpired)
	}
}

func TestIssueTokenNeedsKey(t *testing.T) {
	if _, err := NewAccess(pageOrigin).IssueToken(time.Hour); err == nil {
		t.Fatal("expected error without a launch key")
	}
}

// Package bridge connects the engine to the wallet of a browser page over a
// websocket.
//
// The page forwards provider requests to its injected wallet, relays the
// wallet's chainChanged and accountsChanged notifications, sends the
// player's intents and draws the views and notices pushed to it. One page is
// active at a time; a new connection replaces the old one once it passes the
// Access checks.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/chainlink"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/gamestate"
	"github.com/gorilla/websocket"
)

// Path is the websocket endpoint the page connects to.
const Path = "/wallet"

const (
	sendBuffer   = 64
	readLimit    = 1 << 20
	bufferSize   = 2048
	firstRequest = 1
)

// Push event names.
const (
	EventView   = "view"
	EventNotice = "notice"
)

// IntentFunc receives an intent sent by the page.
type IntentFunc func(ctx context.Context, intent gamestate.Intent) error

// outbound is an engine to page frame.
type outbound struct {
	ID     uint64 `json:"id,omitempty"`
	Method string `json:"method,omitempty"`
	Params []any  `json:"params,omitempty"`
	Event  string `json:"event,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// inbound is a page to engine frame: a response, a notification or an
// intent.
type inbound struct {
	ID     uint64                   `json:"id,omitempty"`
	Result json.RawMessage          `json:"result,omitempty"`
	Error  *chainlink.ProviderError `json:"error,omitempty"`
	Event  string                   `json:"event,omitempty"`
	Data   json.RawMessage          `json:"data,omitempty"`
	Intent gamestate.ActionKind     `json:"intent,omitempty"`
	Index  int                      `json:"index,omitempty"`
}

type response struct {
	result json.RawMessage
	err    error
}

// page is one connected browser page.
type page struct {
	conn    *websocket.Conn
	send    chan []byte
	closed  chan struct{}
	once    sync.Once
	pending map[uint64]chan response
}

func (p *page) close() {
	p.once.Do(func() {
		close(p.closed)
		_ = p.conn.Close()
	})
}

// Bridge is a chainlink.Provider backed by the connected page.
type Bridge struct {
	upgrader  websocket.Upgrader
	access    *Access
	logf      func(string, ...any)
	intents   IntentFunc
	onConnect func()

	mu      sync.Mutex
	page    *page
	nextID  uint64
	nextSub int
	subs    map[string]map[int]func(json.RawMessage)
}

var _ chainlink.Provider = (*Bridge)(nil)

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger overrides the log sink (log.Printf by default).
func WithLogger(logf func(string, ...any)) Option {
	return func(b *Bridge) {
		if logf != nil {
			b.logf = logf
		}
	}
}

// WithIntents forwards page intents to fn.
func WithIntents(fn IntentFunc) Option {
	return func(b *Bridge) { b.intents = fn }
}

// WithAccess sets the origin allow-list and launch key. Without it only
// requests that carry no Origin header are accepted.
func WithAccess(access *Access) Option {
	return func(b *Bridge) {
		if access != nil {
			b.access = access
		}
	}
}

// WithConnectHook runs fn after each page connects.
func WithConnectHook(fn func()) Option {
	return func(b *Bridge) { b.onConnect = fn }
}

// New builds a Bridge with no page connected.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		access: NewAccess(),
		logf:   log.Printf,
		nextID: firstRequest,
		subs:   map[string]map[int]func(json.RawMessage){},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.upgrader = websocket.Upgrader{
		ReadBufferSize:  bufferSize,
		WriteBufferSize: bufferSize,
		CheckOrigin:     b.access.allowOrigin,
	}
	return b
}

// Handler serves the websocket endpoint.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, b)
	return mux
}

// Connected reports whether a page is attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.page != nil
}

// ServeHTTP upgrades the request and serves the page until it disconnects.
func (b *Bridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if status, err := b.access.authorize(r); err != nil {
		b.logf("bridge: refused %s origin=%q: %v", r.RemoteAddr, r.Header.Get("Origin"), err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logf("bridge upgrade: %v", err)
		return
	}
	conn.SetReadLimit(readLimit)
	p := &page{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		closed:  make(chan struct{}),
		pending: map[uint64]chan response{},
	}

	b.mu.Lock()
	previous := b.page
	b.page = p
	b.mu.Unlock()
	if previous != nil {
		b.logf("bridge: page replaced")
		b.detach(previous)
	}
	b.logf("bridge: page connected from %s", r.RemoteAddr)

	go b.writer(p)
	if b.onConnect != nil {
		b.onConnect()
	}
	b.reader(r.Context(), p)
}

func (b *Bridge) writer(p *page) {
	defer p.close()
	for {
		select {
		case msg := <-p.send:
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-p.closed:
			return
		}
	}
}

func (b *Bridge) reader(ctx context.Context, p *page) {
	defer b.detach(p)
	for {
		var frame inbound
		if err := p.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logf("bridge read: %v", err)
			}
			return
		}
		switch {
		case frame.ID != 0:
			b.resolve(p, frame)
		case frame.Event != "":
			b.notify(frame.Event, frame.Data)
		case frame.Intent != "":
			b.intent(ctx, gamestate.Intent{Kind: frame.Intent, Index: frame.Index})
		default:
			b.logf("bridge: ignoring empty frame")
		}
	}
}

// detach closes p and fails its in-flight requests. It is a no-op for the
// pending map of a page already detached.
func (b *Bridge) detach(p *page) {
	b.mu.Lock()
	if b.page == p {
		b.page = nil
	}
	pending := p.pending
	p.pending = map[uint64]chan response{}
	b.mu.Unlock()

	p.close()
	for _, ch := range pending {
		ch <- response{err: disconnected("wallet page disconnected")}
	}
}

func (b *Bridge) resolve(p *page, frame inbound) {
	b.mu.Lock()
	ch, ok := p.pending[frame.ID]
	delete(p.pending, frame.ID)
	b.mu.Unlock()
	if !ok {
		b.logf("bridge: response for unknown request %d", frame.ID)
		return
	}
	if frame.Error != nil {
		ch <- response{err: frame.Error}
		return
	}
	ch <- response{result: frame.Result}
}

func (b *Bridge) notify(event string, data json.RawMessage) {
	b.mu.Lock()
	handlers := make([]func(json.RawMessage), 0, len(b.subs[event]))
	for _, h := range b.subs[event] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	if len(handlers) == 0 {
		b.logf("bridge: no subscriber for %s", event)
	}
	for _, h := range handlers {
		h(data)
	}
}

func (b *Bridge) intent(ctx context.Context, intent gamestate.Intent) {
	if b.intents == nil {
		b.logf("bridge: ignoring intent %s", intent.Kind)
		return
	}
	go func() {
		if err := b.intents(ctx, intent); err != nil {
			b.logf("bridge: intent %s: %v", intent.Kind, err)
		}
	}()
}

// Request sends method to the page and waits for its answer.
func (b *Bridge) Request(ctx context.Context, result any, method string, params ...any) error {
	ch := make(chan response, 1)
	b.mu.Lock()
	p := b.page
	if p == nil {
		b.mu.Unlock()
		return disconnected("no wallet page connected")
	}
	id := b.nextID
	b.nextID++
	p.pending[id] = ch
	b.mu.Unlock()

	msg, err := json.Marshal(outbound{ID: id, Method: method, Params: params})
	if err != nil {
		b.forget(p, id)
		return fmt.Errorf("encode %s: %w", method, err)
	}
	select {
	case p.send <- msg:
	case <-p.closed:
		b.forget(p, id)
		return disconnected("wallet page disconnected")
	case <-ctx.Done():
		b.forget(p, id)
		return ctx.Err()
	}

	select {
	case resp := <-ch:
		if resp.err != nil {
			return resp.err
		}
		if result == nil || len(resp.result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
		return nil
	case <-ctx.Done():
		b.forget(p, id)
		return ctx.Err()
	}
}

func (b *Bridge) forget(p *page, id uint64) {
	b.mu.Lock()
	delete(p.pending, id)
	b.mu.Unlock()
}

// Subscribe registers handler for a page notification.
func (b *Bridge) Subscribe(event string, handler func(json.RawMessage)) (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSub
	b.nextSub++
	if b.subs[event] == nil {
		b.subs[event] = map[int]func(json.RawMessage){}
	}
	b.subs[event][id] = handler
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[event], id)
		})
	}
}

// Push sends an event to the page. It is dropped when no page is connected
// or the page is not keeping up.
func (b *Bridge) Push(event string, data any) {
	b.mu.Lock()
	p := b.page
	b.mu.Unlock()
	if p == nil {
		return
	}
	msg, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		b.logf("bridge: encode %s: %v", event, err)
		return
	}
	select {
	case p.send <- msg:
	default:
		b.logf("bridge: page is slow, dropped %s", event)
	}
}

func disconnected(message string) error {
	return &chainlink.ProviderError{Code: chainlink.CodeDisconnected, Message: message}
}

package chainlink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type fakeResponse struct {
	result any
	err    error
}

type fakeCall struct {
	method string
	params []any
}

type fakeProvider struct {
	mu        sync.Mutex
	calls     []fakeCall
	responses map[string][]fakeResponse
	handlers  map[string]map[int]func(json.RawMessage)
	nextID    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		responses: map[string][]fakeResponse{},
		handlers:  map[string]map[int]func(json.RawMessage){},
	}
}

func (f *fakeProvider) queue(method string, result any, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method] = append(f.responses[method], fakeResponse{result: result, err: err})
}

func (f *fakeProvider) Request(_ context.Context, result any, method string, params ...any) error {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{method: method, params: params})
	pending := f.responses[method]
	if len(pending) == 0 {
		f.mu.Unlock()
		return fmt.Errorf("unexpected call %s", method)
	}
	next := pending[0]
	f.responses[method] = pending[1:]
	f.mu.Unlock()

	if next.err != nil {
		return next.err
	}
	return assign(result, next.result)
}

func (f *fakeProvider) Subscribe(event string, handler func(json.RawMessage)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers[event] == nil {
		f.handlers[event] = map[int]func(json.RawMessage){}
	}
	id := f.nextID
	f.nextID++
	f.handlers[event][id] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers[event], id)
	}
}

func (f *fakeProvider) emit(event string, value any) {
	data, _ := json.Marshal(value)
	f.mu.Lock()
	var handlers []func(json.RawMessage)
	for _, h := range f.handlers[event] {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
}

func (f *fakeProvider) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, call := range f.calls {
		out[i] = call.method
	}
	return out
}

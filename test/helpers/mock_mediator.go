package helpers

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/andrescamacho/upgrade-planner/internal/application/mediator"
)

// MockMediator is a test double for the Mediator interface.
// Adapters that only forward requests are tested against it without a planning service.
type MockMediator struct {
	mu       sync.Mutex
	sendFunc func(ctx context.Context, request mediator.Request) (mediator.Response, error)
	callLog  []string // Request type names, in call order
}

// NewMockMediator creates a new MockMediator
func NewMockMediator() *MockMediator {
	return &MockMediator{
		callLog: []string{},
	}
}

// Send records the call and delegates to the configured function
func (m *MockMediator) Send(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	m.mu.Lock()
	name := strings.TrimPrefix(fmt.Sprintf("%T", request), "*")
	m.callLog = append(m.callLog, name[strings.LastIndex(name, ".")+1:])
	fn := m.sendFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, request)
	}
	return nil, fmt.Errorf("unsupported request type: %T", request)
}

// SetSendFunc sets a custom function for Send calls
func (m *MockMediator) SetSendFunc(fn func(ctx context.Context, request mediator.Request) (mediator.Response, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendFunc = fn
}

// GetCallLog returns the request names that were sent
func (m *MockMediator) GetCallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.callLog...)
}

// ClearCallLog clears the call log
func (m *MockMediator) ClearCallLog() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callLog = []string{}
}

// Register implements the Mediator interface (no-op for tests)
func (m *MockMediator) Register(requestType reflect.Type, handler mediator.RequestHandler) error {
	return nil
}

// RegisterMiddleware implements the Mediator interface (no-op for tests)
func (m *MockMediator) RegisterMiddleware(middleware mediator.Middleware) {}

var _ mediator.Mediator = (*MockMediator)(nil)

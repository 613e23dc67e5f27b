package mediator

import (
	"context"
)

// Request is a planning command or query, dispatched by its concrete type
type Request interface{}

// Response is whatever the request's handler returns, usually a *XxxResponse struct
type Response interface{}

// RequestHandler serves one request type
type RequestHandler interface {
	Handle(ctx context.Context, request Request) (Response, error)
}

// HandlerFunc is the next step of a middleware chain
type HandlerFunc func(ctx context.Context, request Request) (Response, error)

// Middleware wraps every Send, e.g. run logging and request metrics
type Middleware func(ctx context.Context, request Request, next HandlerFunc) (Response, error)

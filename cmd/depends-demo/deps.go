package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/junioryono/depends"
)

// Clock tells the time of the request.
type Clock func() time.Time

var clockDep = depends.On[Clock](systemClock)

func (Clock) Dependency() depends.Descriptor { return clockDep }

func systemClock() Clock { return time.Now }

func fixedClock() Clock {
	return func() time.Time {
		return time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	}
}

// RequestID is the ID assigned by chi's RequestID middleware.
type RequestID string

var requestIDDep = depends.On[RequestID](requestID)

func (RequestID) Dependency() depends.Descriptor { return requestIDDep }

func requestID(ctx context.Context) RequestID {
	return RequestID(middleware.GetReqID(ctx))
}

// Greeting is built from the name query parameter and the clock.
type Greeting string

var greetingDep = depends.On[Greeting](greet)

func (Greeting) Dependency() depends.Descriptor { return greetingDep }

func greet(r *http.Request, now Clock) (Greeting, error) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "world"
	}
	if len(name) > 64 {
		return "", errNameTooLong
	}
	return Greeting(fmt.Sprintf("hello %s at %s", name, now().Format(time.RFC3339))), nil
}

// Visits counts requests across the process. It lives in the dig container
// and is bound in newServer.
type Visits struct {
	n *atomic.Int64
}

var visitsDep = depends.Declare[Visits]()

func (Visits) Dependency() depends.Descriptor { return visitsDep }

func newVisits() Visits {
	return Visits{n: new(atomic.Int64)}
}

// Add records a visit and returns the total.
func (v Visits) Add() int64 {
	return v.n.Add(1)
}

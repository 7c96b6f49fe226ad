package main

import (
	"runtime/debug"
	"strings"
)

// handlerFunc processes one decoded request and returns the wire line to
// send (empty means no synchronous reply, as with session/start) or an
// *apiError to report instead.
type handlerFunc func(st *serverState, c *Client, body string) (string, *apiError)

type route struct {
	method       string
	endpoint     string
	fn           handlerFunc
	authRequired bool // spec.md §6's "Auth: yes" column for this endpoint
}

// routes is the dispatch table, grounded directly on protocol.c's
// handle_request if/else chain. session/create, session/join, and
// session/start all require an authenticated client.
var routes = []route{
	{method: "POST", endpoint: "player/register", fn: handlePlayerRegister},
	{method: "POST", endpoint: "player/login", fn: handlePlayerLogin},
	{method: "POST", endpoint: "session/create", fn: handleSessionCreate, authRequired: true},
	{method: "POST", endpoint: "session/join", fn: handleSessionJoin, authRequired: true},
	{method: "POST", endpoint: "session/start", fn: handleSessionStart, authRequired: true},
	{method: "POST", endpoint: "question/answer", fn: handleAnswer},
	{method: "POST", endpoint: "joker/use", fn: handleJokerUse},
	{method: "GET", endpoint: "themes/list", fn: handleThemesList},
	{method: "GET", endpoint: "sessions/list", fn: handleSessionsList},
}

// dispatch resolves a request to its handler. An unrecognized endpoint of a
// known method yields errUnknown (520); a request using neither GET nor POST
// yields errBadRequest (400) — matching send_unknown_error vs
// send_bad_request in protocol.c. A route flagged authRequired rejects an
// unauthenticated client with 401 before its handler ever runs. A panic
// inside a handler is recovered, logged with its stack, and reported as
// errUnknown (520), so the connection's reader keeps running.
func dispatch(st *serverState, c *Client, req request) (reply string, apiErr *apiError) {
	defer func() {
		if r := recover(); r != nil {
			st.log.Error("handler panic", "endpoint", req.endpoint, "panic", r, "stack", string(debug.Stack()))
			reply, apiErr = "", errUnknown()
		}
	}()
	method := strings.ToUpper(req.method)
	if method != "GET" && method != "POST" {
		return "", errBadRequest()
	}
	for _, r := range routes {
		if r.method == method && r.endpoint == req.endpoint {
			if r.authRequired && !c.Authenticated {
				return "", errAction(r.endpoint, statusUnauthorized, "not authenticated")
			}
			return r.fn(st, c, req.body)
		}
	}
	return "", errUnknown()
}

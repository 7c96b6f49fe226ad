package main

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadRequestGetHasNoBody(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("GET themes/list\n"))
	req, err := readRequest(r)
	require.NoError(t, err)
	require.Equal(t, "GET", req.method)
	require.Equal(t, "themes/list", req.endpoint)
	require.Empty(t, req.body)
}

func TestReadRequestPostReadsSecondLineAsBody(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("POST player/login\n{\"pseudo\":\"a\",\"password\":\"b\"}\n"))
	req, err := readRequest(r)
	require.NoError(t, err)
	require.Equal(t, "POST", req.method)
	require.Equal(t, "player/login", req.endpoint)
	require.JSONEq(t, `{"pseudo":"a","password":"b"}`, req.body)
}

func TestDispatchUnknownEndpointIsUnknownError(t *testing.T) {
	catalog := newTestCatalog(t)
	logger := tag(newLogger(false), "test")
	st := &serverState{
		accounts: newAccountRegistry(t.TempDir()+"/a.dat", logger),
		catalog:  catalog,
		clients:  newClientRegistry(logger),
		sessions: newSessionRegistry(catalog, logger),
		log:      logger,
	}
	c, _ := testClient(t, st.clients)

	_, apiErr := dispatch(st, c, request{method: "GET", endpoint: "nope/nope"})
	require.NotNil(t, apiErr)
	require.Equal(t, statusUnknown, apiErr.status)
}

func TestDispatchUnknownMethodIsBadRequest(t *testing.T) {
	catalog := newTestCatalog(t)
	logger := tag(newLogger(false), "test")
	st := &serverState{
		accounts: newAccountRegistry(t.TempDir()+"/a.dat", logger),
		catalog:  catalog,
		clients:  newClientRegistry(logger),
		sessions: newSessionRegistry(catalog, logger),
		log:      logger,
	}
	c, _ := testClient(t, st.clients)

	_, apiErr := dispatch(st, c, request{method: "PATCH", endpoint: "player/login"})
	require.NotNil(t, apiErr)
	require.Equal(t, statusBadRequest, apiErr.status)
}

func TestPlayerRegisterAndLoginRoundTrip(t *testing.T) {
	catalog := newTestCatalog(t)
	logger := tag(newLogger(false), "test")
	st := &serverState{
		accounts: newAccountRegistry(t.TempDir()+"/a.dat", logger),
		catalog:  catalog,
		clients:  newClientRegistry(logger),
		sessions: newSessionRegistry(catalog, logger),
		log:      logger,
	}
	c, _ := testClient(t, st.clients)

	reply, apiErr := dispatch(st, c, request{method: "POST", endpoint: "player/register", body: `{"pseudo":"alice","password":"pw"}`})
	require.Nil(t, apiErr)
	require.Contains(t, reply, "201")

	_, apiErr = dispatch(st, c, request{method: "POST", endpoint: "player/register", body: `{"pseudo":"alice","password":"pw"}`})
	require.NotNil(t, apiErr)
	require.Equal(t, statusConflict, apiErr.status)

	reply, apiErr = dispatch(st, c, request{method: "POST", endpoint: "player/login", body: `{"pseudo":"alice","password":"pw"}`})
	require.Nil(t, apiErr)
	require.Contains(t, reply, "login successful")
	require.True(t, c.Authenticated)
}

package main

import "encoding/json"

// handlers/player.c: register and login. Both act on the shared account
// registry; a successful login marks the connection authenticated.

func handlePlayerRegister(st *serverState, c *Client, body string) (string, *apiError) {
	var req struct {
		Pseudo   string `json:"pseudo"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil || req.Pseudo == "" || req.Password == "" {
		return "", errBadRequest()
	}

	switch st.accounts.Register(req.Pseudo, req.Password) {
	case registerDuplicate:
		return "", errAction("player/register", statusConflict, "pseudo already exists")
	case registerCapacity:
		return "", errAction("player/register", statusConflict, "pseudo already exists")
	}

	return frame{
		"action":  "player/register",
		"statut":  statusCreated,
		"message": "player registered successfully",
	}.marshal(), nil
}

func handlePlayerLogin(st *serverState, c *Client, body string) (string, *apiError) {
	var req struct {
		Pseudo   string `json:"pseudo"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal([]byte(body), &req); err != nil || req.Pseudo == "" || req.Password == "" {
		return "", errBadRequest()
	}

	if st.accounts.Authenticate(req.Pseudo, req.Password) != loginOK {
		return "", errAction("player/login", statusUnauthorized, "invalid credentials")
	}

	c.Authenticated = true
	c.Name = req.Pseudo

	return frame{
		"action":  "player/login",
		"statut":  statusOK,
		"message": "login successful",
	}.marshal(), nil
}

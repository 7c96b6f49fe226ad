package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

const maxAccounts = 100 // mirrors the original's MAX_CLIENTS-sized accounts array

// registerResult and loginResult enumerate the outcomes Register/Authenticate
// can produce — grounded on register_player/login_player's int return codes.
type registerResult int

const (
	registerOK registerResult = iota
	registerDuplicate
	registerCapacity
)

type loginResult int

const (
	loginOK loginResult = iota
	loginBadCredentials
	loginUnknown
)

// AccountRegistry is the flat-file-backed player account store. One mutex
// guards all in-memory mutations; flush is a full-file rewrite under the same
// mutex, mirroring save_accounts/register_player/login_player in player.c.
type AccountRegistry struct {
	mu     sync.Mutex
	byName map[string]*PlayerAccount
	order  []string // preserves file order for deterministic flush
	path   string
	log    *log.Logger
}

func newAccountRegistry(path string, logger *log.Logger) *AccountRegistry {
	return &AccountRegistry{
		byName: make(map[string]*PlayerAccount),
		path:   path,
		log:    logger,
	}
}

// Load reads "name;digest" lines from the account file. A missing file is not
// an error — it means an empty, fresh registry (load_accounts behavior).
func (r *AccountRegistry) Load() error {
	f, err := os.Open(r.path)
	if os.IsNotExist(err) {
		r.log.Debug("no accounts file found, starting fresh", "path", r.path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r.mu.Lock()
	defer r.mu.Unlock()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ";", 2)
		if len(parts) != 2 {
			continue
		}
		name, hash := parts[0], parts[1]
		if len(name) > 32 {
			name = name[:32]
		}
		acct := &PlayerAccount{Name: name, PasswordHash: hash}
		r.byName[name] = acct
		r.order = append(r.order, name)
	}
	r.log.Info("accounts loaded", "count", len(r.order))
	return scanner.Err()
}

// flushLocked rewrites the entire accounts file under the registry mutex, which the
// caller must already hold — mirrors save_accounts' full-array rewrite.
func (r *AccountRegistry) flushLocked() error {
	f, err := os.Create(r.path)
	if err != nil {
		r.log.Error("failed to save accounts", "err", err)
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, name := range r.order {
		acct := r.byName[name]
		fmt.Fprintf(w, "%s;%s\n", acct.Name, acct.PasswordHash)
	}
	return w.Flush()
}

// Register creates a new account. Names are case-sensitive and unique.
func (r *AccountRegistry) Register(name, password string) registerResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return registerDuplicate
	}
	if len(r.order) >= maxAccounts {
		return registerCapacity
	}

	acct := &PlayerAccount{Name: name, PasswordHash: weakDigest(password)}
	r.byName[name] = acct
	r.order = append(r.order, name)

	if err := r.flushLocked(); err != nil {
		r.log.Error("account flush failed after register", "name", name, "err", err)
	}
	return registerOK
}

// Authenticate checks credentials and, on success, marks the account logged
// in for the lifetime of the process (runtime-only flag).
func (r *AccountRegistry) Authenticate(name, password string) loginResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, exists := r.byName[name]
	if !exists {
		return loginUnknown
	}
	if acct.PasswordHash != weakDigest(password) {
		return loginBadCredentials
	}
	acct.LoggedIn = true
	return loginOK
}

package main

import (
	"bufio"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

// testClient wires a Client into a registry over an in-memory pipe, handing
// back the peer side so a test can read what was sent to it.
func testClient(t *testing.T, reg *ClientRegistry) (*Client, *bufio.Reader) {
	t.Helper()
	serverConn, peerConn := net.Pipe()
	t.Cleanup(func() { _ = peerConn.Close() })

	c := reg.Accept(serverConn)
	require.NotNil(t, c)
	return c, bufio.NewReader(peerConn)
}

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := writeCatalogFixture(t,
		"geo;facile;qcm;Capital of France?;Paris,Lyon,Nice,Lille;0;",
		"geo;facile;qcm;Capital of Italy?;Rome,Milan,Turin,Naples;0;",
		"geo;facile;qcm;Capital of Spain?;Madrid,Barcelona,Seville,Valencia;0;",
		"geo;facile;qcm;Capital of Germany?;Berlin,Munich,Hamburg,Cologne;0;",
		"geo;facile;qcm;Capital of Portugal?;Lisbon,Porto,Braga,Faro;0;",
		"geo;facile;qcm;Capital of Belgium?;Brussels,Antwerp,Ghent,Liege;0;",
		"geo;facile;qcm;Capital of Austria?;Vienna,Graz,Linz,Salzburg;0;",
		"geo;facile;qcm;Capital of Poland?;Warsaw,Krakow,Gdansk,Poznan;0;",
		"geo;facile;qcm;Capital of Greece?;Athens,Patras,Larissa,Volos;0;",
		"geo;facile;qcm;Capital of Ireland?;Dublin,Cork,Galway,Limerick;0;",
	)
	c := newCatalog(tag(newLogger(false), "test"))
	require.NoError(t, c.Load(path))
	return c
}

func TestSessionJoinNotifiesExistingPlayersOnly(t *testing.T) {
	logger := tag(newLogger(false), "test")
	clients := newClientRegistry(logger)
	catalog := newTestCatalog(t)
	sessions := newSessionRegistry(catalog, logger)

	themeID, _ := catalog.themeIDFor("geo")
	s, err := sessions.Create("lobby", []int{themeID}, DifficultyEasy, 10, 30, ModeSolo, 0, 4, 1)
	require.NoError(t, err)

	creator, creatorPeer := testClient(t, clients)
	joiner, _ := testClient(t, clients)

	// The creator is seeded into the session by the handler layer in
	// production; here we do it directly to isolate Join's behavior.
	s.mu.Lock()
	s.Players = append(s.Players, &SessionPlayer{ClientID: creator.ID, Name: "creator", CurrentAnswer: -1})
	s.mu.Unlock()

	// The pipe is unbuffered, so the creator's side must be reading while
	// Join sends the notification.
	type readResult struct {
		line string
		err  error
	}
	read := make(chan readResult, 1)
	go func() {
		line, err := creatorPeer.ReadString('\n')
		read <- readResult{line, err}
	}()

	result := s.Join(clients, joiner.ID, "newplayer")
	require.Equal(t, joinOK, result)

	got := <-read
	require.NoError(t, got.err)
	require.Contains(t, got.line, "session/player/joined")
	require.Contains(t, got.line, "newplayer")
}

func peerDrain(r *bufio.Reader) error {
	for {
		if _, err := r.ReadString('\n'); err != nil {
			return err
		}
	}
}

func TestSessionJoinRejectsWhenFull(t *testing.T) {
	logger := tag(newLogger(false), "test")
	clients := newClientRegistry(logger)
	catalog := newTestCatalog(t)
	sessions := newSessionRegistry(catalog, logger)
	themeID, _ := catalog.themeIDFor("geo")

	s, err := sessions.Create("lobby", []int{themeID}, DifficultyEasy, 10, 30, ModeSolo, 0, 1, 1)
	require.NoError(t, err)

	c1, _ := testClient(t, clients)
	c2, _ := testClient(t, clients)

	require.Equal(t, joinOK, s.Join(clients, c1.ID, "p1"))
	require.Equal(t, joinFull, s.Join(clients, c2.ID, "p2"))
}

func TestSessionLeaveTransfersCreatorship(t *testing.T) {
	logger := tag(newLogger(false), "test")
	clients := newClientRegistry(logger)
	catalog := newTestCatalog(t)
	sessions := newSessionRegistry(catalog, logger)
	themeID, _ := catalog.themeIDFor("geo")

	s, err := sessions.Create("lobby", []int{themeID}, DifficultyEasy, 10, 30, ModeSolo, 0, 4, 1)
	require.NoError(t, err)

	c1, _ := testClient(t, clients)
	c2, p2 := testClient(t, clients)
	go func() { _ = peerDrain(p2) }()

	s.mu.Lock()
	s.CreatorClient = c1.ID
	s.Players = append(s.Players,
		&SessionPlayer{ClientID: c1.ID, Name: "p1", CurrentAnswer: -1},
		&SessionPlayer{ClientID: c2.ID, Name: "p2", CurrentAnswer: -1},
	)
	s.mu.Unlock()

	s.Leave(clients, c1.ID)

	s.mu.Lock()
	defer s.mu.Unlock()
	require.Equal(t, c2.ID, s.CreatorClient)
	require.Len(t, s.Players, 1)
}

package test

import (
	"log/slog"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"chat-relay/auth"
	"chat-relay/infrastructure/ws"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/services"
)

const timestampLen = len("2006-01-02 15:04:05")

// frame is one decoded outbound wire message.
type frame struct {
	Sender  string
	Color   string
	Type    string
	Payload string
}

func parseFrame(t *testing.T, raw string) frame {
	t.Helper()
	fields := strings.SplitN(raw, "|", 5)
	require.Len(t, fields, 5, "raw=%q", raw)
	require.Len(t, fields[2], timestampLen, "raw=%q", raw)
	return frame{Sender: fields[0], Color: fields[1], Type: fields[3], Payload: fields[4]}
}

type client struct {
	t      *testing.T
	socket *websocket.Conn
}

func connect(t *testing.T, url string) *client {
	t.Helper()
	socket, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http")+"/chat", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = socket.Close() })
	return &client{t: t, socket: socket}
}

func (c *client) send(raw string) {
	c.t.Helper()
	require.NoError(c.t, c.socket.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func (c *client) read() frame {
	c.t.Helper()
	require.NoError(c.t, c.socket.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := c.socket.ReadMessage()
	require.NoError(c.t, err)
	return parseFrame(c.t, string(raw))
}

// expectSilence asserts no frame arrives within a short window. A timed-out
// read poisons the gorilla connection, so this must be the last read ever
// performed on the socket.
func (c *client) expectSilence() {
	c.t.Helper()
	require.NoError(c.t, c.socket.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, raw, err := c.socket.ReadMessage()
	require.Error(c.t, err, "unexpected frame: %q", raw)
	netErr, ok := err.(net.Error)
	require.True(c.t, ok, "expected a read timeout, got: %v", err)
	require.True(c.t, netErr.Timeout(), "expected a read timeout, got: %v", err)
}

func Test_Scenario(t *testing.T) {
	req := require.New(t)

	// Reduced value log size for testing (avoid gigabytes of preallocation)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	req.NoError(err)
	defer db.Close()

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	// SHA-256 keeps the scenario fast; the digest choice is orthogonal to the
	// relay behavior under test.
	gate := services.NewAuthService(repositories.NewCredentialRepository(db), auth.SHA256Digester{})
	sessions := runtime.NewSessionRegistry(7)
	rooms := runtime.NewRoomRegistry()
	dispatcher := runtime.NewDispatcher(log, gate, sessions, rooms, time.Now, "general")

	transport := ws.NewServer(log, dispatcher, ws.Options{OriginPolicy: ws.OriginAny})
	httpSrv := httptest.NewServer(transport.Handler())
	defer httpSrv.Close()

	// --- alice connects and signs up on first login.
	alice := connect(t, httpSrv.URL)
	welcome := alice.read()
	req.Equal("SERVER", welcome.Sender)
	req.Equal("#000000", welcome.Color)
	req.Equal("INFO", welcome.Type)
	req.Equal("Welcome! Please login: LOGIN|yourName|yourPassword", welcome.Payload)

	alice.send("a1|t1|LOGIN|alice|secret")
	joined := alice.read()
	req.Equal("INFO", joined.Type)
	req.Equal("alice joined the chat.", joined.Payload)

	// --- bob joins the same room; both sides see the presence notice.
	bob := connect(t, httpSrv.URL)
	bob.read() // welcome
	bob.send("b1|t1|LOGIN|bob|hunter2")
	req.Equal("bob joined the chat.", bob.read().Payload)
	req.Equal("bob joined the chat.", alice.read().Payload)

	// --- room broadcast reaches every member, sender included.
	alice.send("a1|t2|TEXT|hello")
	fromAlice := bob.read()
	req.Equal("alice", fromAlice.Sender)
	req.Equal("TEXT", fromAlice.Type)
	req.Equal("hello", fromAlice.Payload)
	req.Regexp(`^#[0-9A-F]{6}$`, fromAlice.Color)
	echo := alice.read()
	req.Equal(fromAlice, echo)

	// --- private delivery echoes an identical envelope to both ends.
	alice.send("a1|t3|PRIVATE|bob|psst")
	direct := bob.read()
	req.Equal("PRIVATE", direct.Type)
	req.Equal("psst", direct.Payload)
	req.Equal(direct, alice.read())

	// --- re-login attempts against a live or wrong-password account.
	carol := connect(t, httpSrv.URL)
	carol.read() // welcome
	carol.send("c1|t1|LOGIN|alice|wrong")
	denied := carol.read()
	req.Equal("ERROR", denied.Type)
	req.Equal("Invalid password.", denied.Payload)

	carol.send("c1|t2|LOGIN|alice|secret")
	denied = carol.read()
	req.Equal("ERROR", denied.Type)
	req.Equal("Username already in use.", denied.Payload)

	carol.send("c1|t3|LOGIN|carol|pw")
	req.Equal("carol joined the chat.", carol.read().Payload)
	req.Equal("carol joined the chat.", alice.read().Payload)
	req.Equal("carol joined the chat.", bob.read().Payload)

	// --- bob switches rooms: confirmation plus arrival notice, and the
	// departed room hears nothing.
	bob.send("b1|t2|JOIN_ROOM|sports")
	req.Equal("Joined room: sports", bob.read().Payload)
	req.Equal("bob joined the room.", bob.read().Payload)

	// --- subsequent TEXT stays inside the new room.
	bob.send("b1|t3|TEXT|anyone?")
	own := bob.read()
	req.Equal("anyone?", own.Payload)

	// --- /list is scoped to the sender's current room. The exact match also
	// proves bob's sports-room TEXT never leaked into general: a stray frame
	// would arrive here first.
	alice.send("a1|t4|TEXT|/list")
	listing := alice.read()
	req.Equal("INFO", listing.Type)
	req.Equal("Users in room: alice, carol", listing.Payload)

	// --- disconnect announces the departure to the departed room.
	req.NoError(alice.socket.Close())
	left := carol.read()
	req.Equal("INFO", left.Type)
	req.Equal("alice left the chat.", left.Payload)
	bob.expectSilence()

	// --- the username is free again for a fresh session.
	again := connect(t, httpSrv.URL)
	again.read() // welcome
	again.send("a2|t1|LOGIN|alice|secret")
	req.Equal("alice joined the chat.", again.read().Payload)
}

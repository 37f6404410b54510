package runtime

import (
	stderrors "errors"
	"log/slog"
	"strings"

	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/protocol"
)

// CredentialGate authenticates or registers a username/password pair.
// First sight of a username registers it with the supplied password.
type CredentialGate interface {
	Authenticate(username, password string) error
}

// Dispatcher drives the per-connection state machine
// (Connected -> Authenticating -> Active -> Closed) and fans messages out to
// the right recipients. The transport invokes it once per event; many
// connections run through it concurrently against the shared registries.
type Dispatcher struct {
	log         *slog.Logger
	gate        CredentialGate
	sessions    *SessionRegistry
	rooms       *RoomRegistry
	clock       contract.Clock
	defaultRoom string
}

func NewDispatcher(log *slog.Logger, gate CredentialGate, sessions *SessionRegistry,
	rooms *RoomRegistry, clock contract.Clock, defaultRoom string) *Dispatcher {
	return &Dispatcher{
		log:         log,
		gate:        gate,
		sessions:    sessions,
		rooms:       rooms,
		clock:       clock,
		defaultRoom: defaultRoom,
	}
}

// OnOpen greets a freshly accepted connection. Nothing is registered yet;
// the connection stays anonymous until a LOGIN succeeds.
func (d *Dispatcher) OnOpen(conn contract.Conn) {
	d.notify(conn, domain.TypeInfo, "Welcome! Please login: LOGIN|yourName|yourPassword")
}

// OnMessage decodes one inbound frame and routes it. Malformed frames answer
// with a local ERROR and never terminate the connection.
func (d *Dispatcher) OnMessage(conn contract.Conn, raw string) {
	cmd, err := protocol.Decode(raw)
	if err != nil {
		d.log.Debug("Rejected inbound frame", "conn", conn.ID(), "err", err)
		d.notify(conn, domain.TypeError, "Invalid message format.")
		return
	}

	if login, ok := cmd.(domain.LoginCommand); ok {
		d.handleLogin(conn, login)
		return
	}

	// Everything except LOGIN requires an authenticated session.
	sess, ok := d.sessions.LookupUser(conn.ID())
	if !ok {
		d.notify(conn, domain.TypeError, "Please login first.")
		return
	}

	switch c := cmd.(type) {
	case domain.TextCommand:
		d.broadcastFrom(sess, domain.TypeText, c.Body)
	case domain.EmojiCommand:
		d.broadcastFrom(sess, domain.TypeEmoji, c.Body)
	case domain.JoinRoomCommand:
		d.handleJoinRoom(conn, sess, c.Room)
	case domain.PrivateCommand:
		d.handlePrivate(conn, sess, c.To, c.Body)
	case domain.WhisperCommand:
		d.handlePrivate(conn, sess, c.To, c.Body)
	case domain.ListMembersCommand:
		d.handleList(conn, sess)
	case domain.UnknownCommand:
		d.notify(conn, domain.TypeError, "Unknown message type: "+c.Type)
	}
}

// OnClose tears the connection down: unbind, leave the room, tell the room.
// Safe to call for connections that never authenticated.
func (d *Dispatcher) OnClose(conn contract.Conn) {
	sess, ok := d.sessions.LookupUser(conn.ID())
	if !ok {
		return
	}
	// Leave the room before freeing the username: once Unbind runs, a fresh
	// LOGIN may rebind the same name, and a late Leave would tear down that
	// session's membership instead of ours.
	room, inRoom := d.rooms.Leave(sess.Username)
	d.sessions.Unbind(conn.ID())
	if inRoom {
		d.broadcast(room, domain.ServerNotice(d.clock(), domain.TypeInfo, sess.Username+" left the chat."))
	}
	d.log.Info("Session closed", "user", sess.Username, "conn", conn.ID())
}

func (d *Dispatcher) handleLogin(conn contract.Conn, c domain.LoginCommand) {
	if _, bound := d.sessions.LookupUser(conn.ID()); bound {
		d.notify(conn, domain.TypeError, "Already logged in.")
		return
	}

	if err := d.gate.Authenticate(c.Username, c.Password); err != nil {
		d.notify(conn, domain.TypeError, loginFailureText(err))
		return
	}

	// The duplicate-online check is the bind itself: one atomic step, so two
	// concurrent LOGINs for the same name cannot both pass.
	sess, err := d.sessions.Bind(conn, c.Username)
	if err != nil {
		d.notify(conn, domain.TypeError, "Username already in use.")
		return
	}

	room := d.rooms.Join(sess.Username, d.defaultRoom)
	d.log.Info("Session opened", "user", sess.Username, "room", room, "conn", conn.ID())
	d.broadcast(room, domain.ServerNotice(d.clock(), domain.TypeInfo, sess.Username+" joined the chat."))
}

func loginFailureText(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrMissingCredentials):
		return "Username and password required."
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		return "Invalid password."
	case stderrors.Is(err, errors.ErrStoreUnavailable):
		return "Database error."
	default:
		return "Database error."
	}
}

func (d *Dispatcher) handleJoinRoom(conn contract.Conn, sess Session, room string) {
	joined := d.rooms.Join(sess.Username, room)
	d.notify(conn, domain.TypeInfo, "Joined room: "+joined)
	// The departed room deliberately gets no notice; only disconnects
	// announce a departure.
	d.broadcast(joined, domain.ServerNotice(d.clock(), domain.TypeInfo, sess.Username+" joined the room."))
}

// handlePrivate delivers to the recipient and echoes the same envelope back
// to the sender as a delivery confirmation.
func (d *Dispatcher) handlePrivate(conn contract.Conn, sess Session, to, body string) {
	recipient, online := d.sessions.LookupConn(to)
	if !online {
		d.notify(conn, domain.TypeError, "User not found: "+to)
		return
	}
	env := domain.UserMessage(sess.Username, sess.Color, d.clock(), domain.TypePrivate, body)
	d.send(recipient.Conn, env)
	d.send(conn, env)
}

func (d *Dispatcher) handleList(conn contract.Conn, sess Session) {
	var members []string
	if room, ok := d.rooms.RoomOf(sess.Username); ok {
		members = d.rooms.MembersOf(room)
	}
	d.notify(conn, domain.TypeInfo, "Users in room: "+strings.Join(members, ", "))
}

// broadcastFrom fans a user-authored message out to the sender's current
// room, sender included.
func (d *Dispatcher) broadcastFrom(sess Session, typ domain.MessageType, body string) {
	room, ok := d.rooms.RoomOf(sess.Username)
	if !ok {
		room = d.defaultRoom
	}
	d.broadcast(room, domain.UserMessage(sess.Username, sess.Color, d.clock(), typ, body))
}

// broadcast iterates a snapshot of the room's membership. A send failing for
// one recipient never aborts delivery to the rest and never mutates state.
func (d *Dispatcher) broadcast(room string, env domain.Envelope) {
	for _, member := range d.rooms.MembersOf(room) {
		recipient, online := d.sessions.LookupConn(member)
		if !online {
			continue
		}
		d.send(recipient.Conn, env)
	}
}

func (d *Dispatcher) notify(conn contract.Conn, typ domain.MessageType, payload string) {
	d.send(conn, domain.ServerNotice(d.clock(), typ, payload))
}

// send writes one envelope. Transport failures are swallowed per recipient:
// the connection's own close event is the authoritative cleanup signal.
func (d *Dispatcher) send(conn contract.Conn, env domain.Envelope) {
	if err := conn.Send(protocol.Encode(env)); err != nil {
		d.log.Debug("Dropped outbound frame", "conn", conn.ID(), "err", err)
	}
}

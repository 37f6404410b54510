// Package domain contains core concepts of the chat relay: the typed command
// union decoded from the wire and the outbound envelope. No runtime, network,
// or storage logic should be added here.
package domain

// MessageType is the TYPE field of a wire message.
type MessageType string

const (
	TypeLogin    MessageType = "LOGIN"
	TypeText     MessageType = "TEXT"
	TypeEmoji    MessageType = "EMOJI"
	TypeJoinRoom MessageType = "JOIN_ROOM"
	TypePrivate  MessageType = "PRIVATE"
	TypeInfo     MessageType = "INFO"
	TypeError    MessageType = "ERROR"
)

// Command is one decoded client intent. Each TYPE decodes to exactly one
// variant carrying its own typed payload; handlers switch on the variant,
// never on the raw TYPE string.
type Command interface {
	isCommand()
}

type LoginCommand struct {
	Username string
	Password string
}

type TextCommand struct {
	Body string
}

type EmojiCommand struct {
	Body string
}

type JoinRoomCommand struct {
	Room string
}

type PrivateCommand struct {
	To   string
	Body string
}

// ListMembersCommand is the /list sub-command carried inside a TEXT payload.
type ListMembersCommand struct{}

// WhisperCommand is the /w sub-command carried inside a TEXT payload.
// It resolves exactly like PrivateCommand.
type WhisperCommand struct {
	To   string
	Body string
}

// UnknownCommand preserves an unrecognized TYPE so the dispatcher can answer
// with the exact offending tag.
type UnknownCommand struct {
	Type string
}

func (LoginCommand) isCommand()       {}
func (TextCommand) isCommand()        {}
func (EmojiCommand) isCommand()       {}
func (JoinRoomCommand) isCommand()    {}
func (PrivateCommand) isCommand()     {}
func (ListMembersCommand) isCommand() {}
func (WhisperCommand) isCommand()     {}
func (UnknownCommand) isCommand()     {}

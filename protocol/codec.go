// Package protocol implements the pipe-delimited wire codec.
//
// Inbound frames are clientId|timestamp|TYPE|payload. The leading clientId and
// timestamp are accepted as sent but carry no authority: the dispatcher relies
// on the authenticated session and the server clock instead. The payload is
// the final bounded-split field and may itself contain pipes.
package protocol

import (
	"fmt"
	"strings"

	"chat-relay/domain"
	"chat-relay/errors"
)

// inboundFields is the bounded split width of one inbound frame.
const inboundFields = 4

const (
	listPrefix    = "/list"
	whisperPrefix = "/w "
)

// Decode parses one inbound frame into its typed command.
// Frames with fewer than three fields are malformed. TYPE tags are matched
// case-insensitively, matching the reference protocol.
func Decode(raw string) (domain.Command, error) {
	parts := strings.SplitN(raw, "|", inboundFields)
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: %d fields", errors.ErrMalformedMessage, len(parts))
	}

	typ := strings.ToUpper(parts[2])
	var content string
	if len(parts) > 3 {
		content = parts[3]
	}

	// Slash sub-commands ride inside TEXT payloads and are mutually
	// exclusive with a normal broadcast.
	if typ == string(domain.TypeText) && strings.HasPrefix(content, "/") {
		if cmd, ok, err := decodeSubCommand(content); ok || err != nil {
			return cmd, err
		}
	}

	switch domain.MessageType(typ) {
	case domain.TypeLogin:
		return decodeLogin(content)
	case domain.TypeText:
		return domain.TextCommand{Body: content}, nil
	case domain.TypeEmoji:
		return domain.EmojiCommand{Body: content}, nil
	case domain.TypeJoinRoom:
		return decodeJoinRoom(content)
	case domain.TypePrivate:
		return decodePrivate(content)
	default:
		return domain.UnknownCommand{Type: parts[2]}, nil
	}
}

// decodeSubCommand recognizes /list and /w. Any other slash-prefixed payload
// is not a sub-command and falls through to plain TEXT dispatch.
func decodeSubCommand(content string) (domain.Command, bool, error) {
	if strings.EqualFold(content, listPrefix) {
		return domain.ListMembersCommand{}, true, nil
	}
	if strings.HasPrefix(content, whisperPrefix) {
		fields := strings.SplitN(content, " ", 3)
		if len(fields) < 3 || fields[1] == "" {
			return nil, true, fmt.Errorf("%w: whisper needs a recipient and a body", errors.ErrMalformedMessage)
		}
		return domain.WhisperCommand{To: fields[1], Body: fields[2]}, true, nil
	}
	return nil, false, nil
}

// decodeLogin splits name|password. Field presence is not enforced here; the
// credential gate validates and answers with its own wording.
func decodeLogin(content string) (domain.Command, error) {
	creds := strings.SplitN(content, "|", 2)
	cmd := domain.LoginCommand{Username: creds[0]}
	if len(creds) > 1 {
		cmd.Password = creds[1]
	}
	return cmd, nil
}

func decodeJoinRoom(content string) (domain.Command, error) {
	room := strings.SplitN(content, "|", 2)[0]
	if room == "" {
		return nil, fmt.Errorf("%w: empty room name", errors.ErrMalformedMessage)
	}
	return domain.JoinRoomCommand{Room: room}, nil
}

func decodePrivate(content string) (domain.Command, error) {
	fields := strings.SplitN(content, "|", 2)
	if len(fields) < 2 || fields[0] == "" {
		return nil, fmt.Errorf("%w: private needs a recipient and a body", errors.ErrMalformedMessage)
	}
	return domain.PrivateCommand{To: fields[0], Body: fields[1]}, nil
}

// Encode serializes one outbound envelope to its wire form.
func Encode(e domain.Envelope) string {
	return strings.Join([]string{e.Sender, e.Color, e.Timestamp, string(e.Type), e.Payload}, "|")
}

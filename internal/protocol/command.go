// Package protocol defines the line-oriented chat protocol: parsing inbound
// lines into typed commands and formatting the lines the server sends back.
package protocol

import (
	"errors"
	"strings"
	"unicode"
)

// Command is one parsed inbound line. The concrete type identifies the
// command; callers dispatch on it with a type switch.
type Command interface {
	command()
}

// Join moves the connection into Room, optionally renaming it.
type Join struct {
	Room string
	Name string
}

// Quit ends the session.
type Quit struct{}

// Private delivers Text to the connection registered as Recipient.
type Private struct {
	Recipient string
	Text      string
}

// Help requests the command summary.
type Help struct{}

// ListRooms requests a listing of every room and its members.
type ListRooms struct{}

// Chat is any line that is not a recognized command.
type Chat struct {
	Text string
}

func (Join) command()      {}
func (Quit) command()      {}
func (Private) command()   {}
func (Help) command()      {}
func (ListRooms) command() {}
func (Chat) command()      {}

// Command keywords. Matching is case-insensitive.
const (
	KeywordJoin      = "/join"
	KeywordQuit      = "/quit"
	KeywordPrivate   = "/private"
	KeywordHelp      = "/help"
	KeywordListRooms = "/listrooms"
)

// ErrUsage is matched by every UsageError.
var ErrUsage = errors.New("invalid command usage")

// UsageError reports a recognized command with missing arguments.
type UsageError struct {
	Keyword string
	Usage   string
}

func (e *UsageError) Error() string {
	return "usage: " + e.Usage
}

func (e *UsageError) Unwrap() error {
	return ErrUsage
}

// TrimLine strips trailing whitespace, including the carriage return some
// clients send before the newline.
func TrimLine(line string) string {
	return strings.TrimRightFunc(line, unicode.IsSpace)
}

// Parse turns a trimmed, non-empty line into a Command. Unrecognized
// slash-prefixed tokens are returned as Chat.
func Parse(line string) (Command, error) {
	keyword, rest := splitKeyword(line)

	switch strings.ToLower(keyword) {
	case KeywordJoin:
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			return nil, &UsageError{Keyword: KeywordJoin, Usage: "/join <room> [name]"}
		}
		cmd := Join{Room: fields[0]}
		if len(fields) > 1 {
			cmd.Name = fields[1]
		}
		return cmd, nil

	case KeywordQuit:
		return Quit{}, nil

	case KeywordPrivate:
		recipient, text := splitKeyword(rest)
		if recipient == "" || text == "" {
			return nil, &UsageError{Keyword: KeywordPrivate, Usage: "/private <name> <message>"}
		}
		return Private{Recipient: recipient, Text: text}, nil

	case KeywordHelp:
		return Help{}, nil

	case KeywordListRooms:
		return ListRooms{}, nil

	default:
		return Chat{Text: line}, nil
	}
}

// splitKeyword splits s at the first run of spaces or tabs.
func splitKeyword(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	idx := strings.IndexAny(s, " \t")
	if idx < 0 {
		return s, ""
	}
	return s[:idx], strings.TrimLeft(s[idx:], " \t")
}

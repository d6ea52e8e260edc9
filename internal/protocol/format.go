package protocol

import (
	"fmt"
	"strings"
)

// Line prefixes used by the server.
const (
	InfoPrefix    = "[INFO] "
	ErrorPrefix   = "[ERROR] "
	PrivatePrefix = "[PRIVATE] "
	RoomsPrefix   = "/rooms "
)

// HelpText is the reply to /help.
const HelpText = `Welcome to the chat server! Here are the commands you can use:
/join <room> [name] - Join (or create) a room, optionally choosing a name
/private <name> <message> - Send a private message to a user
/listrooms - List all rooms and the users inside
/help - Show this help message
/quit - Exit the chat
Anything else is sent to everyone in your current room.`

// RoomInfo is one entry of a directory snapshot.
type RoomInfo struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Frame terminates msg with a newline, producing the bytes written to the wire.
func Frame(msg string) []byte {
	b := make([]byte, 0, len(msg)+1)
	b = append(b, msg...)
	return append(b, '\n')
}

// Info formats a system notice.
func Info(format string, args ...any) string {
	return InfoPrefix + fmt.Sprintf(format, args...)
}

// Error formats a rejection sent to a single client.
func Error(format string, args ...any) string {
	return ErrorPrefix + fmt.Sprintf(format, args...)
}

// PrivateMessage formats a direct message as seen by its recipient.
func PrivateMessage(sender, text string) string {
	return PrivatePrefix + sender + ": " + text
}

// ChatMessage formats a room chat relay.
func ChatMessage(sender, text string) string {
	return sender + ": " + text
}

// Welcome is sent once to every new connection.
func Welcome() string {
	return Info("Welcome to the chat server! Use /join <room> [name] to enter a room, /help for commands.")
}

// Joined announces a member entering a room.
func Joined(name, room string) string {
	return Info("%s has joined the room %s", name, room)
}

// Left announces a member leaving a room.
func Left(name string) string {
	return Info("%s has left the room", name)
}

// UserNotFound is the reply to /private for an unknown recipient.
func UserNotFound(recipient string) string {
	return Error("User '%s' not found or offline.", recipient)
}

// RoomsLine formats the periodic occupancy snapshot:
// "/rooms lobby(2 users),games(1 users)".
func RoomsLine(rooms []RoomInfo) string {
	parts := make([]string, 0, len(rooms))
	for _, r := range rooms {
		parts = append(parts, fmt.Sprintf("%s(%d users)", r.Name, len(r.Members)))
	}
	return RoomsPrefix + strings.Join(parts, ",")
}

// RoomListing formats the multi-line reply to /listrooms.
func RoomListing(rooms []RoomInfo) string {
	if len(rooms) == 0 {
		return "No rooms available."
	}
	var b strings.Builder
	b.WriteString("List of rooms:")
	for _, r := range rooms {
		fmt.Fprintf(&b, "\nRoom %s (%d users): %s", r.Name, len(r.Members), strings.Join(r.Members, ", "))
	}
	return b.String()
}

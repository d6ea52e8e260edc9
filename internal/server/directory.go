package server

import (
	"errors"
	"sort"
	"sync"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

var (
	// ErrNameTaken is returned when a join asks for a name held by another client.
	ErrNameTaken = errors.New("name already in use")
	// ErrNotRegistered is returned for clients that were never added or were already removed.
	ErrNotRegistered = errors.New("client is not registered")
	// ErrHubClosed is returned when registering after shutdown began.
	ErrHubClosed = errors.New("hub is shut down")
)

// Directory is the single owner of room membership and the connection
// registry. Every read or mutation goes through its lock.
//
// Invariants: a client is a member of at most one room, and every room in
// rooms has at least one member.
type Directory struct {
	mu      sync.RWMutex
	clients map[string]*Client
	names   map[string]*Client
	rooms   map[string]map[string]*Client
	closed  bool
}

func newDirectory() *Directory {
	return &Directory{
		clients: make(map[string]*Client),
		names:   make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

func (d *Directory) add(c *Client) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return 0, ErrHubClosed
	}
	d.clients[c.id] = c
	return len(d.clients), nil
}

type joinResult struct {
	name     string
	oldName  string
	previous string
}

// join moves c into room in one critical section: leave the old room, apply
// the new name, enter the new room. An empty name keeps the current one, or
// falls back to host:port. On ErrNameTaken the result carries the name that
// was refused.
func (d *Directory) join(c *Client, room, name string) (joinResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.clients[c.id]; !ok || c.closed {
		return joinResult{}, ErrNotRegistered
	}

	newName := name
	if newName == "" {
		newName = c.label()
	}
	if holder, ok := d.names[newName]; ok && holder != c {
		return joinResult{name: newName}, ErrNameTaken
	}

	res := joinResult{name: newName, oldName: c.label(), previous: c.room}
	d.removeMember(c)

	if c.name != "" && d.names[c.name] == c {
		delete(d.names, c.name)
	}
	c.name = newName
	d.names[newName] = c

	members, ok := d.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		d.rooms[room] = members
	}
	members[c.id] = c
	c.room = room

	return res, nil
}

// leave removes c from its current room and returns the room it left.
// join and remove perform the same step inside their own critical sections.
func (d *Directory) leave(c *Client) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	room := c.room
	if !d.removeMember(c) {
		return "", false
	}
	return room, true
}

// removeMember drops c from its room, deleting the room once empty. It
// reports false when c was not in a room. Callers hold the write lock.
func (d *Directory) removeMember(c *Client) bool {
	if c.room == "" {
		return false
	}
	room := c.room
	c.room = ""

	members, ok := d.rooms[room]
	if !ok {
		return false
	}
	if _, member := members[c.id]; !member {
		return false
	}
	delete(members, c.id)
	if len(members) == 0 {
		delete(d.rooms, room)
	}
	return true
}

// remove unregisters c from every structure and marks it closed. The second
// call for the same client reports ok == false.
func (d *Directory) remove(c *Client) (name, room string, remaining int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, registered := d.clients[c.id]; !registered || c.closed {
		return "", "", len(d.clients), false
	}

	name, room = c.label(), c.room
	d.removeMember(c)
	if d.names[c.name] == c {
		delete(d.names, c.name)
	}
	delete(d.clients, c.id)
	c.closed = true

	return name, room, len(d.clients), true
}

// drain closes the directory to new clients, queues notice for every client,
// and removes them all. The caller closes their send channels.
func (d *Directory) drain(notice []byte) []*Client {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	clients := make([]*Client, 0, len(d.clients))
	for _, c := range d.clients {
		c.trySend(notice)
		c.closed = true
		c.room = ""
		clients = append(clients, c)
	}
	d.clients = make(map[string]*Client)
	d.names = make(map[string]*Client)
	d.rooms = make(map[string]map[string]*Client)
	return clients
}

// identity returns the client's display label and current room.
func (d *Directory) identity(c *Client) (string, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return c.label(), c.room
}

// Count returns the number of registered clients.
func (d *Directory) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.clients)
}

// Snapshot returns every room with its member names, taken at one instant.
// Rooms are sorted by name and members alphabetically.
func (d *Directory) Snapshot() []protocol.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]protocol.RoomInfo, 0, len(d.rooms))
	for name, members := range d.rooms {
		info := protocol.RoomInfo{Name: name, Members: make([]string, 0, len(members))}
		for _, c := range members {
			info.Members = append(info.Members, c.label())
		}
		sort.Strings(info.Members)
		rooms = append(rooms, info)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}

// The deliver methods enqueue under the write lock so that two broadcasts to
// the same room reach every member in the same order. They return the
// clients whose queues refused the payload.

func (d *Directory) deliverRoom(room string, payload []byte, exclude *Client) (delivered int, failed []*Client) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range d.rooms[room] {
		if c == exclude {
			continue
		}
		if c.trySend(payload) {
			delivered++
		} else {
			failed = append(failed, c)
		}
	}
	return delivered, failed
}

func (d *Directory) deliverAll(payload []byte) (delivered int, failed []*Client) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, c := range d.clients {
		if c.trySend(payload) {
			delivered++
		} else {
			failed = append(failed, c)
		}
	}
	return delivered, failed
}

// deliverName sends to the client registered under name. target is nil when
// no such client exists.
func (d *Directory) deliverName(name string, payload []byte) (target *Client, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	target, exists := d.names[name]
	if !exists {
		return nil, false
	}
	return target, target.trySend(payload)
}

func (d *Directory) deliverTo(c *Client, payload []byte) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return c.trySend(payload)
}

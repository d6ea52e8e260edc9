package integration

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/Tyrowin/roomchat/test/testhelpers"
)

// TestConcurrentSendersKeepRoomOrder has several members talk at once and
// checks that every observer sees the same interleaving.
func TestConcurrentSendersKeepRoomOrder(t *testing.T) {
	const (
		numSenders   = 3
		numObservers = 3
		perSender    = 20
	)

	ts := testhelpers.StartServer(t, nil)

	var members []testhelpers.LineClient
	observers := make([]*testhelpers.TCPClient, numObservers)
	for i := range observers {
		observers[i] = dialAndGreet(t, ts)
		joinRoom(t, observers[i], "lobby", fmt.Sprintf("observer%d", i), members...)
		members = append(members, observers[i])
	}

	senders := make([]*testhelpers.TCPClient, numSenders)
	for i := range senders {
		senders[i] = dialAndGreet(t, ts)
		joinRoom(t, senders[i], "lobby", fmt.Sprintf("sender%d", i), members...)
		members = append(members, senders[i])
	}

	var wg sync.WaitGroup
	for i, s := range senders {
		wg.Add(1)
		go func(i int, s *testhelpers.TCPClient) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				if err := s.Send(fmt.Sprintf("msg %d", j)); err != nil {
					t.Errorf("sender%d: %v", i, err)
					return
				}
			}
		}(i, s)
	}
	wg.Wait()

	total := numSenders * perSender
	sequences := make([][]string, numObservers)
	for i, o := range observers {
		for len(sequences[i]) < total {
			line := testhelpers.NextMessage(t, o)
			if strings.HasPrefix(line, "sender") {
				sequences[i] = append(sequences[i], line)
			}
		}
	}

	for i := 1; i < numObservers; i++ {
		for j := range sequences[0] {
			if sequences[i][j] != sequences[0][j] {
				t.Fatalf("observer%d diverged at %d: %q vs %q", i, j, sequences[i][j], sequences[0][j])
			}
		}
	}

	// Each sender's own lines stay in the order it sent them.
	next := make(map[string]int)
	for _, line := range sequences[0] {
		sender, text, _ := strings.Cut(line, ": ")
		if want := fmt.Sprintf("msg %d", next[sender]); text != want {
			t.Fatalf("%s: got %q, want %q", sender, text, want)
		}
		next[sender]++
	}
}

func TestManyClientsJoinAndLeave(t *testing.T) {
	const numClients = 10

	ts := testhelpers.StartServer(t, nil)
	watcher := dialAndGreet(t, ts)
	joinRoom(t, watcher, "lobby", "watcher")

	clients := make([]*testhelpers.TCPClient, numClients)
	for i := range clients {
		clients[i] = dialAndGreet(t, ts)
		name := fmt.Sprintf("guest%d", i)
		joinRoom(t, clients[i], "lobby", name)
		testhelpers.Expect(t, watcher, "[INFO] "+name+" has joined the room lobby")
	}

	for i, c := range clients {
		if err := c.Send("/quit"); err != nil {
			t.Fatalf("Failed to send quit: %v", err)
		}
		testhelpers.Expect(t, watcher, fmt.Sprintf("[INFO] guest%d has left the room", i))
	}

	if err := watcher.Send("/listrooms"); err != nil {
		t.Fatalf("Failed to send: %v", err)
	}
	testhelpers.Expect(t, watcher, "List of rooms:")
	testhelpers.Expect(t, watcher, "Room lobby (1 users): watcher")
}

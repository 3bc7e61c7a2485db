package relay

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeConn struct {
	events []Event
	fail   bool
}

func (f *fakeConn) Send(evt Event) error {
	if f.fail {
		return errors.New("write failed")
	}
	f.events = append(f.events, evt)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestJoinIsIdempotent(t *testing.T) {
	reg := NewRegistry(discardLogger())
	c := &fakeConn{}

	reg.Join("s1", c)
	reg.Join("s1", c)
	if got := reg.Members("s1"); got != 1 {
		t.Fatalf("expected 1 member, got %d", got)
	}
}

func TestJoinSecondRoomRefused(t *testing.T) {
	reg := NewRegistry(discardLogger())
	c := &fakeConn{}

	reg.Join("s1", c)
	reg.Join("s2", c)
	if got := reg.Members("s2"); got != 0 {
		t.Fatalf("expected connection to stay out of s2, got %d members", got)
	}
	if room, _ := reg.Room(c); room != "s1" {
		t.Fatalf("expected membership in s1, got %q", room)
	}
}

func TestLeaveIsNoOpForNonMembers(t *testing.T) {
	reg := NewRegistry(discardLogger())
	c := &fakeConn{}

	reg.Leave("s1", c)
	reg.Join("s1", c)
	reg.Leave("s1", c)
	if got := reg.Members("s1"); got != 0 {
		t.Fatalf("expected empty room, got %d", got)
	}
	if _, ok := reg.Room(c); ok {
		t.Fatalf("expected membership cleared")
	}
}

func TestBroadcastScopedToRoom(t *testing.T) {
	reg := NewRegistry(discardLogger())
	a, b, other := &fakeConn{}, &fakeConn{}, &fakeConn{}
	reg.Join("s1", a)
	reg.Join("s1", b)
	reg.Join("s2", other)

	reg.Broadcast("s1", Event{Type: EventParticipantJoined}, nil)

	if len(a.events) != 1 || len(b.events) != 1 {
		t.Fatalf("expected both s1 members to receive, got a=%d b=%d", len(a.events), len(b.events))
	}
	if len(other.events) != 0 {
		t.Fatalf("expected s2 member untouched, got %d events", len(other.events))
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	reg := NewRegistry(discardLogger())
	host, p := &fakeConn{}, &fakeConn{}
	reg.Join("s1", host)
	reg.Join("s1", p)

	reg.Broadcast("s1", Event{Type: EventQuizStarted}, host)

	if len(host.events) != 0 {
		t.Fatalf("expected sender skipped, got %d events", len(host.events))
	}
	if len(p.events) != 1 {
		t.Fatalf("expected participant to receive, got %d", len(p.events))
	}
}

func TestBroadcastEmptyRoomIsFine(t *testing.T) {
	reg := NewRegistry(discardLogger())
	reg.Broadcast("nobody", Event{Type: EventQuizStarted}, nil)
}

func TestBroadcastEvictsFailedConnections(t *testing.T) {
	reg := NewRegistry(discardLogger())
	ok, broken := &fakeConn{}, &fakeConn{fail: true}
	reg.Join("s1", ok)
	reg.Join("s1", broken)

	reg.Broadcast("s1", Event{Type: EventQuizStarted}, nil)

	if got := reg.Members("s1"); got != 1 {
		t.Fatalf("expected broken connection evicted, members=%d", got)
	}
	if _, member := reg.Room(broken); member {
		t.Fatalf("expected broken connection dropped from membership")
	}
}

func TestDropClearsMembershipSilently(t *testing.T) {
	reg := NewRegistry(discardLogger())
	a, b := &fakeConn{}, &fakeConn{}
	reg.Join("s1", a)
	reg.Join("s1", b)

	reg.Drop(a)

	if got := reg.Members("s1"); got != 1 {
		t.Fatalf("expected 1 member after drop, got %d", got)
	}
	// No participant-left event is emitted on transport loss.
	if len(b.events) != 0 {
		t.Fatalf("expected no broadcast on drop, got %d events", len(b.events))
	}
	if reg.Connections() != 1 {
		t.Fatalf("expected 1 live connection, got %d", reg.Connections())
	}
}

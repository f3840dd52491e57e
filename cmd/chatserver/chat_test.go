package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/LLIEPJIOK/stnet/pkg/ws"
)

type recordingDisconnecter struct {
	disconnected []ws.Connection
}

func (r *recordingDisconnecter) Disconnect(c ws.Connection) {
	r.disconnected = append(r.disconnected, c)
}

func TestProcessMessages(t *testing.T) {
	a := ws.Connection{ID: 1}
	b := ws.Connection{ID: 2}

	d := &recordingDisconnecter{}

	log, shutdown := processMessages(d, []ws.Message{
		{Connection: a, Text: "hello"},
		{Connection: b, Text: "quit"},
		{Connection: b, Text: "hi"},
	})

	if shutdown {
		t.Error("unexpected shutdown")
	}

	if want := "1> hello\n2> hi\n"; log != want {
		t.Errorf("expected log %q, got %q", want, log)
	}

	if len(d.disconnected) != 1 || d.disconnected[0] != b {
		t.Errorf("expected %v to be disconnected, got %v", b, d.disconnected)
	}
}

func TestProcessMessages_Shutdown(t *testing.T) {
	_, shutdown := processMessages(&recordingDisconnecter{}, []ws.Message{{Connection: ws.Connection{ID: 3}, Text: "shutdown"}})
	if !shutdown {
		t.Error("expected shutdown request")
	}
}

func TestChatRoom_Broadcast(t *testing.T) {
	room := newChatRoom(slog.New(slog.NewTextHandler(io.Discard, nil)))

	a := ws.Connection{ID: 1}
	b := ws.Connection{ID: 2}

	room.HandleConnect(a)
	room.HandleConnect(b)
	room.HandleDisconnect(a)

	if got := room.buildOutgoing(""); len(got) != 0 {
		t.Errorf("expected nothing for an empty log, got %v", got)
	}

	got := room.buildOutgoing("2> hi\n")
	if len(got) != 1 || got[0].Connection != b || got[0].Text != "2> hi\n" {
		t.Errorf("unexpected outgoing messages: %v", got)
	}
}

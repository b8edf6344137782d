package console

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/irclean/irclean/internal/irc"
	"github.com/irclean/irclean/internal/storage"
)

type fakeChat struct {
	sent      []string
	refreshed int
	closed    bool
}

func (f *fakeChat) Channel() string  { return "#chan" }
func (f *fakeChat) Nickname() string { return "bob" }

func (f *fakeChat) SendMessage(target, text string) error {
	f.sent = append(f.sent, target+" "+text)
	return nil
}

func (f *fakeChat) RefreshUsers() error {
	f.refreshed++
	return nil
}

func (f *fakeChat) Close() error {
	if f.closed {
		return irc.ErrClosed
	}
	f.closed = true
	return nil
}

func TestHandleEvent(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)

	for _, e := range []irc.Event{
		irc.ServerMessage{Text: ":irc.example.com 001 bob :Welcome"},
		irc.Connected{},
		irc.UserList{Type: irc.ListStart, Names: []string{"@alice", "bob"}},
		irc.UserList{Type: irc.ListEnd, Names: []string{"@alice", "bob"}},
		irc.MessageReceived{From: "alice", Target: "#chan", Type: irc.MessageToChannel, Text: "hi all"},
		irc.MessageReceived{From: "alice", Target: "bob", Type: irc.MessageToMe, Text: "psst"},
		irc.UserJoined{Nick: "carol"},
		irc.NicknameChanged{Old: "carol", New: "caroline", Type: irc.NickChanged},
		irc.UserLeft{Nick: "caroline"},
		irc.Quit{},
	} {
		c.HandleEvent(nil, e)
	}

	want := []string{
		"-!- :irc.example.com 001 bob :Welcome",
		"*** Connection to chat room successful...",
		"*** Total Users: 2 [@alice bob]",
		"<alice> hi all",
		"*alice* psst",
		"*** The user <carol> has joined the channel.",
		"*** The user <carol> is now known as caroline.",
		"*** The user <caroline> has left the channel.",
		"*** Disconnected.",
	}
	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Unexpected output:\n%s", out.String())
	}
	if c.Roster().Len() != 0 {
		t.Errorf("Expected the roster to be cleared on Quit, got %v", c.Roster().Names())
	}
}

func TestHandleEventKeepsRoster(t *testing.T) {
	c := New(io.Discard, nil)
	c.HandleEvent(nil, irc.UserList{Type: irc.ListStart, Names: []string{"@alice"}})
	c.HandleEvent(nil, irc.UserList{Type: irc.ListEnd, Names: []string{"@alice"}})
	c.HandleEvent(nil, irc.UserJoined{Nick: "carol"})
	c.HandleEvent(nil, irc.NicknameChanged{Old: "alice", New: "alicia", Type: irc.NickChanged})

	want := []string{"@alicia", "carol"}
	if got := c.Roster().Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestExecute(t *testing.T) {
	var out bytes.Buffer
	c := New(&out, nil)
	chat := &fakeChat{}

	if err := c.Execute(chat, "hello there"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := c.Execute(chat, "/msg alice how are you"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := c.Execute(chat, "/names"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := c.Execute(chat, "   "); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	c.Execute(chat, "/msg alice")
	c.Execute(chat, "/bogus")

	wantSent := []string{"#chan hello there", "alice how are you"}
	if !reflect.DeepEqual(chat.sent, wantSent) {
		t.Errorf("Expected %q, got %q", wantSent, chat.sent)
	}
	if chat.refreshed != 1 {
		t.Errorf("Expected one refresh, got %d", chat.refreshed)
	}

	output := out.String()
	for _, want := range []string{
		"<bob> hello there",
		"-> *alice* how are you",
		"Usage: /msg <nick> <text>",
		"Unknown command /bogus",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q:\n%s", want, output)
		}
	}

	if err := c.Execute(chat, "/quit"); !errors.Is(err, ErrQuit) {
		t.Errorf("Expected ErrQuit, got %v", err)
	}
	if !chat.closed {
		t.Error("Expected /quit to close the session")
	}
	if err := c.Execute(chat, "/QUIT"); !errors.Is(err, ErrQuit) {
		t.Errorf("Expected ErrQuit on a closed session, got %v", err)
	}
}

func TestTranscript(t *testing.T) {
	tr, err := storage.LoadTranscript(t.TempDir(), "#chan")
	if err != nil {
		t.Fatal(err)
	}
	c := New(io.Discard, tr)
	c.now = func() time.Time { return time.Date(2025, 2, 20, 12, 0, 0, 0, time.UTC) }

	c.HandleEvent(nil, irc.MessageReceived{From: "alice", Type: irc.MessageToChannel, Text: "hi"})
	c.HandleEvent(nil, irc.UserList{Type: irc.ListStart, Names: []string{"alice"}})

	got := tr.Last(10)
	if len(got) != 1 || got[0] != "[Thu Feb 20, 2025 12:00:00 GMT] <alice> hi" {
		t.Errorf("Unexpected transcript %q", got)
	}
}

func TestScannerEditor(t *testing.T) {
	le := newScannerEditor(strings.NewReader("first\nsecond\n"))
	defer le.Close()

	if le.IsInteractive() {
		t.Error("Scanner editor should not be interactive")
	}
	for _, want := range []string{"first", "second"} {
		line, err := le.GetLine("")
		if err != nil || line != want {
			t.Errorf("Expected %q, got %q (%v)", want, line, err)
		}
	}
	if _, err := le.GetLine(""); err != io.EOF {
		t.Errorf("Expected io.EOF, got %v", err)
	}
}

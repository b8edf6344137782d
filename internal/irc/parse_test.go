package irc

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ergochat/irc-go/ircmsg"
)

func TestParsePrivMsg(t *testing.T) {
	cmd, ok := Parse(":nick!u@h PRIVMSG #chan :hello world")
	if !ok {
		t.Fatal("Parse failed")
	}
	if cmd.Prefix != "nick!u@h" {
		t.Errorf("Expected prefix nick!u@h, got %q", cmd.Prefix)
	}
	if cmd.Command != "PRIVMSG" {
		t.Errorf("Expected command PRIVMSG, got %q", cmd.Command)
	}
	want := []string{"#chan", "hello world"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("Expected args %q, got %q", want, cmd.Args)
	}
	if cmd.Nick() != "nick" {
		t.Errorf("Expected nick, got %q", cmd.Nick())
	}
}

func TestParseNames(t *testing.T) {
	cmd, ok := Parse(":server 353 me = #chan :alice bob carol")
	if !ok {
		t.Fatal("Parse failed")
	}
	if len(cmd.Args) != 4 {
		t.Fatalf("Expected 4 args, got %d: %q", len(cmd.Args), cmd.Args)
	}
	if cmd.Args[2] != "#chan" {
		t.Errorf("Expected channel #chan, got %q", cmd.Args[2])
	}
	names := strings.Split(cmd.Args[3], " ")
	want := []string{"alice", "bob", "carol"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Expected names %q, got %q", want, names)
	}
}

func TestParseWithoutTrailing(t *testing.T) {
	cmd, ok := Parse(":alice!a@host JOIN #chan")
	if !ok {
		t.Fatal("Parse failed")
	}
	if cmd.Command != "JOIN" || !reflect.DeepEqual(cmd.Args, []string{"#chan"}) {
		t.Errorf("Unexpected parse: %q %q", cmd.Command, cmd.Args)
	}

	cmd, ok = Parse(":alice!a@host QUIT")
	if !ok {
		t.Fatal("Parse failed for bare QUIT")
	}
	if cmd.Command != "QUIT" || len(cmd.Args) != 0 {
		t.Errorf("Unexpected parse: %q %q", cmd.Command, cmd.Args)
	}
}

func TestParseTrailingKeepsColons(t *testing.T) {
	cmd, ok := Parse(":irc.example.com 332 me #chan :topic: with :colons")
	if !ok {
		t.Fatal("Parse failed")
	}
	if got := cmd.Last(); got != "topic: with :colons" {
		t.Errorf("Expected trailing to be kept whole, got %q", got)
	}
}

func TestParseEmptyTrailing(t *testing.T) {
	cmd, ok := Parse(":nick!u@h PRIVMSG #chan :")
	if !ok {
		t.Fatal("Parse failed")
	}
	if !reflect.DeepEqual(cmd.Args, []string{"#chan", ""}) {
		t.Errorf("Expected empty trailing argument, got %q", cmd.Args)
	}
}

func TestParseKeepsCommandCase(t *testing.T) {
	cmd, ok := Parse(":nick!u@h privmsg #chan :hi")
	if !ok {
		t.Fatal("Parse failed")
	}
	if cmd.Command != "privmsg" {
		t.Errorf("Command should not be normalized, got %q", cmd.Command)
	}
}

func TestParsePing(t *testing.T) {
	cmd, ok := Parse("PING :abc123")
	if !ok {
		t.Fatal("Parse failed")
	}
	if cmd.Command != "PING" || cmd.HasPrefix {
		t.Errorf("Unexpected command %q (prefixed=%v)", cmd.Command, cmd.HasPrefix)
	}
	if !reflect.DeepEqual(cmd.Args, []string{":abc123"}) {
		t.Errorf("Expected [:abc123], got %q", cmd.Args)
	}

	// Fixed five byte header, spacing is kept verbatim
	cmd, ok = Parse("ping  x")
	if !ok {
		t.Fatal("Parse failed for lower case ping")
	}
	if cmd.Args[0] != " x" {
		t.Errorf("Expected %q, got %q", " x", cmd.Args[0])
	}
}

func TestParseError(t *testing.T) {
	cmd, ok := Parse("ERROR :Closing Link: bob (Quit: bye)")
	if !ok {
		t.Fatal("Parse failed")
	}
	if cmd.Command != "ERROR" {
		t.Errorf("Expected ERROR, got %q", cmd.Command)
	}
	want := []string{"Closing Link", " bob (Quit", " bye)"}
	if !reflect.DeepEqual(cmd.Args, want) {
		t.Errorf("Expected %q, got %q", want, cmd.Args)
	}

	cmd, ok = Parse("ERROR :reason")
	if !ok || !reflect.DeepEqual(cmd.Args, []string{"reason"}) {
		t.Errorf("Expected [reason], got %v", cmd)
	}
}

func TestParseRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"NOTICE AUTH :*** Looking up your hostname",
		":nospace",
		":prefix :trailing",
		":prefix  :x",
		"PING",
	} {
		if cmd, ok := Parse(line); ok {
			t.Errorf("Parse(%q) should fail, got %+v", line, cmd)
		}
	}
}

func TestParseMatchesIrcmsg(t *testing.T) {
	cases := []struct {
		source  string
		command string
		params  []string
	}{
		{"nick!u@h", "PRIVMSG", []string{"#chan", "hello world"}},
		{"irc.example.com", "001", []string{"bob", "Welcome to the network bob"}},
		{"irc.example.com", "353", []string{"bob", "=", "#chan", "@alice +bob carol"}},
		{"irc.example.com", "366", []string{"bob", "#chan", "End of /NAMES list."}},
		{"alice!a@host", "JOIN", []string{"#chan"}},
		{"alice!a@host", "NICK", []string{"alicia"}},
		{"alice!a@host", "PART", []string{"#chan", "see you :)"}},
	}

	for _, tc := range cases {
		msg := ircmsg.MakeMessage(nil, tc.source, tc.command, tc.params...)
		line, err := msg.Line()
		if err != nil {
			t.Fatalf("ircmsg could not build %s: %v", tc.command, err)
		}
		line = strings.TrimSuffix(line, "\r\n")

		want, err := ircmsg.ParseLine(line)
		if err != nil {
			t.Fatalf("ircmsg could not parse %q: %v", line, err)
		}

		cmd, ok := Parse(line)
		if !ok {
			t.Errorf("Parse(%q) failed", line)
			continue
		}
		if cmd.Prefix != want.Source {
			t.Errorf("%q: prefix %q, ircmsg says %q", line, cmd.Prefix, want.Source)
		}
		if cmd.Command != want.Command {
			t.Errorf("%q: command %q, ircmsg says %q", line, cmd.Command, want.Command)
		}
		if !reflect.DeepEqual(cmd.Args, want.Params) {
			t.Errorf("%q: args %q, ircmsg says %q", line, cmd.Args, want.Params)
		}
	}
}

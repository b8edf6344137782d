package console

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/irclean/irclean/internal/irc"
	"github.com/irclean/irclean/internal/roster"
	"github.com/irclean/irclean/internal/storage"
)

// Chat is the part of an irc.Session the console drives.
type Chat interface {
	Channel() string
	Nickname() string
	SendMessage(target, text string) error
	RefreshUsers() error
	Close() error
}

// ErrQuit is returned by Execute for /quit.
var ErrQuit = errors.New("quit requested")

// Console renders session events as text and turns typed input into
// session commands. It keeps the channel roster current.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	roster     *roster.Roster
	transcript *storage.Transcript
	now        func() time.Time
}

// New creates a console writing to out. transcript may be nil.
func New(out io.Writer, transcript *storage.Transcript) *Console {
	return &Console{
		out:        out,
		roster:     roster.New(),
		transcript: transcript,
		now:        time.Now,
	}
}

// Roster returns the member list the console maintains
func (c *Console) Roster() *roster.Roster {
	return c.roster
}

// HandleEvent implements irc.Handler.
func (c *Console) HandleEvent(s *irc.Session, e irc.Event) {
	c.roster.Apply(e)
	if line, ok := c.Format(e); ok {
		c.Println(line)
	}
}

// Format renders an event, or reports false for events with no text.
func (c *Console) Format(e irc.Event) (string, bool) {
	switch e := e.(type) {
	case irc.Connected:
		return "*** Connection to chat room successful...", true
	case irc.MessageReceived:
		if e.Type == irc.MessageToMe {
			return fmt.Sprintf("*%s* %s", e.From, e.Text), true
		}
		return fmt.Sprintf("<%s> %s", e.From, e.Text), true
	case irc.UserJoined:
		return fmt.Sprintf("*** The user <%s> has joined the channel.", e.Nick), true
	case irc.UserLeft:
		return fmt.Sprintf("*** The user <%s> has left the channel.", e.Nick), true
	case irc.NicknameChanged:
		return fmt.Sprintf("*** The user <%s> is now known as %s.", e.Old, e.New), true
	case irc.UserList:
		if e.Type != irc.ListEnd {
			return "", false
		}
		return c.usersLine(), true
	case irc.ServerMessage:
		return "-!- " + e.Text, true
	case irc.Quit:
		return "*** Disconnected.", true
	}
	return "", false
}

func (c *Console) usersLine() string {
	names := c.roster.Names()
	return fmt.Sprintf("*** Total Users: %d [%s]", len(names), strings.Join(names, " "))
}

// Println writes one line to the output and the transcript
func (c *Console) Println(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, line)
	if c.transcript != nil {
		if err := c.transcript.Append(c.now(), line); err != nil {
			log.Printf("Error saving transcript: %v", err)
		}
	}
}

// Execute runs one line of user input against chat.
//
// Plain text goes to the channel. Commands:
//
//	/msg <nick> <text>  private message
//	/names              ask the server for the member list
//	/users              print the member list
//	/quit               leave; returns ErrQuit
func (c *Console) Execute(chat Chat, input string) error {
	input = strings.TrimRight(input, "\r\n")
	if strings.TrimSpace(input) == "" {
		return nil
	}
	if !strings.HasPrefix(input, "/") {
		return c.say(chat, chat.Channel(), input)
	}

	fields := strings.Fields(input)
	switch strings.ToLower(fields[0]) {
	case "/msg":
		parts := strings.SplitN(input, " ", 3)
		if len(parts) < 3 || parts[1] == "" || strings.TrimSpace(parts[2]) == "" {
			c.Println("Usage: /msg <nick> <text>")
			return nil
		}
		return c.say(chat, parts[1], parts[2])
	case "/names":
		return chat.RefreshUsers()
	case "/users":
		c.Println(c.usersLine())
		return nil
	case "/quit":
		if err := chat.Close(); err != nil && !errors.Is(err, irc.ErrClosed) {
			return err
		}
		return ErrQuit
	}
	c.Println(fmt.Sprintf("Unknown command %s", fields[0]))
	return nil
}

func (c *Console) say(chat Chat, target, text string) error {
	if err := chat.SendMessage(target, text); err != nil {
		return err
	}
	if target == chat.Channel() {
		c.Println(fmt.Sprintf("<%s> %s", chat.Nickname(), text))
	} else {
		c.Println(fmt.Sprintf("-> *%s* %s", target, text))
	}
	return nil
}

package irc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"sync"

	"github.com/ergochat/irc-go/ircreader"
	"golang.org/x/text/encoding/charmap"
)

var (
	ErrAlreadyStarted = errors.New("irc: session already started")
	ErrNotConnected   = errors.New("irc: not connected")
	ErrClosed         = errors.New("irc: session closed")
)

const (
	realName = "a clean IRC Client."

	initialReadBuffer = 512
	maxLineLength     = 64 * 1024
)

// Phase is the connection phase of a Session.
type Phase int

const (
	Disconnected Phase = iota
	Connecting
	Registering
	Joining
	Joined
	Quitting
	Closed
)

func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Registering:
		return "registering"
	case Joining:
		return "joining"
	case Joined:
		return "joined"
	case Quitting:
		return "quitting"
	case Closed:
		return "closed"
	}
	return "phase(" + strconv.Itoa(int(p)) + ")"
}

// Session is one connection to one server, joined to one channel.
// A Session is used once: after it terminates a new one must be created.
type Session struct {
	server   string
	port     int
	channel  string
	baseNick string

	// Dial opens the TCP connection. Nil means a plain net.Dialer.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
	// Decoder decodes inbound lines. Nil means UTF-8 with ISO-8859-1 fallback.
	Decoder *Decoder
	// Logger receives connection and debug logs. Nil means log.Default().
	Logger *log.Logger
	// Debug logs every line read and written.
	Debug bool

	mu        sync.RWMutex
	nick      string
	phase     Phase
	connected bool
	err       error

	hmu           sync.RWMutex
	eventHandlers []Handler

	// Writer state
	wmu      sync.Mutex
	w        io.Writer
	conn     io.Closer
	writeErr error
	noWrites bool // set by Close and by termination
	closing  bool // Close was called

	// Owned by the read loop
	prevCommand  string
	pendingNames []string
	handlers     map[string]func(*Command, string)

	done chan struct{}
}

// NewSession creates a session that has not connected yet.
func NewSession(server string, port int, nick, channel string) *Session {
	s := &Session{
		server:   server,
		port:     port,
		channel:  channel,
		baseNick: nick,
		nick:     nick,
		done:     make(chan struct{}),
	}
	s.registerHandlers()
	return s
}

// AddHandler subscribes h to all events of the session.
func (s *Session) AddHandler(h Handler) {
	s.hmu.Lock()
	s.eventHandlers = append(s.eventHandlers[:len(s.eventHandlers):len(s.eventHandlers)], h)
	s.hmu.Unlock()
}

func (s *Session) Server() string  { return s.server }
func (s *Session) Port() int       { return s.port }
func (s *Session) Channel() string { return s.channel }

// Addr returns the host:port the session dials.
func (s *Session) Addr() string {
	return net.JoinHostPort(s.server, strconv.Itoa(s.port))
}

// Nickname returns the nickname currently in use.
func (s *Session) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nick
}

// IsConnected reports whether we are in the channel.
func (s *Session) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Done is closed once the read loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the transport fault that ended the session, or nil if it has
// not ended or ended gracefully.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Connect dials the server and runs the session on its own goroutine. It
// returns at once; a failed dial is reported as a ServerMessage event.
// Cancelling ctx closes the connection.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != Disconnected {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.phase = Connecting
	s.mu.Unlock()

	go s.run(ctx)
	return nil
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)

	dial := s.Dial
	if dial == nil {
		var d net.Dialer
		dial = d.DialContext
	}
	conn, err := dial(ctx, "tcp", s.Addr())
	if err != nil {
		s.fail(fmt.Errorf("connect to %s: %w", s.Addr(), err))
		return
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	s.wmu.Lock()
	if s.closing {
		// Close was called while dialing: hang up without registering.
		s.wmu.Unlock()
		conn.Close()
		s.terminate()
		return
	}
	s.w = conn
	s.conn = conn
	s.wmu.Unlock()

	s.logf("Connected to %s", s.Addr())
	s.setPhase(Registering)

	s.send("NICK " + s.Nickname())
	s.send("USER " + s.Nickname() + " 8 * :" + realName)

	decoder := s.Decoder
	if decoder == nil {
		decoder = &Decoder{fallback: charmap.ISO8859_1}
	}

	var reader ircreader.Reader
	reader.Initialize(conn, initialReadBuffer, maxLineLength)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			s.fail(fmt.Errorf("read from %s: %w", s.Addr(), err))
			return
		}
		if s.handleLine(decoder.Decode(line)) {
			return
		}
	}
}

// handleLine dispatches one inbound line and reports whether the session
// has terminated.
func (s *Session) handleLine(line string) bool {
	if s.Debug {
		s.logf("<- %s", line)
	}

	cmd, ok := Parse(line)
	if !ok {
		return false
	}
	if h, ok := s.handlers[cmd.Command]; ok {
		h(cmd, line)
	}
	s.prevCommand = cmd.Command

	return s.Phase() == Closed
}

// SendMessage sends text to a channel or nickname.
func (s *Session) SendMessage(target, text string) error {
	return s.send("PRIVMSG " + target + " :" + text)
}

// RefreshUsers asks the server for a fresh NAMES burst for the channel.
func (s *Session) RefreshUsers() error {
	return s.send("NAMES " + s.channel)
}

// Close sends QUIT. Termination follows when the server answers; no line
// is written by this session after Close. Before the connection is up,
// Close only marks the session so it hangs up as soon as the dial returns.
func (s *Session) Close() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.noWrites {
		return ErrClosed
	}
	if s.w != nil {
		if err := s.writeLocked("QUIT"); err != nil {
			return err
		}
	}
	s.noWrites = true
	s.closing = true
	return nil
}

func (s *Session) send(line string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.writeLocked(line)
}

func (s *Session) writeLocked(line string) error {
	if s.noWrites {
		return ErrClosed
	}
	if s.w == nil {
		return ErrNotConnected
	}
	if s.Debug {
		s.logf("-> %s", line)
	}
	if _, err := io.WriteString(s.w, line+"\r\n"); err != nil {
		// The reader reports this fault once the closed connection wakes it up.
		s.writeErr = fmt.Errorf("write to %s: %w", s.Addr(), err)
		s.noWrites = true
		if s.conn != nil {
			s.conn.Close()
		}
		return s.writeErr
	}
	return nil
}

func (s *Session) stopWrites() {
	s.wmu.Lock()
	s.noWrites = true
	s.wmu.Unlock()
}

// terminate ends the session gracefully and emits Quit.
func (s *Session) terminate() {
	s.stopWrites()

	s.mu.Lock()
	s.phase = Closed
	s.connected = false
	s.mu.Unlock()

	s.logf("Left %s on %s", s.channel, s.Addr())
	s.emit(Quit{})
}

// fail ends the session on a transport fault.
func (s *Session) fail(err error) {
	s.wmu.Lock()
	writeFault := s.writeErr != nil
	if writeFault {
		err = s.writeErr
	}
	s.noWrites = true
	closing := s.closing
	s.wmu.Unlock()

	// The server may drop the link after our QUIT without an ERROR line.
	if closing && !writeFault && (errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)) {
		s.terminate()
		return
	}

	s.mu.Lock()
	s.phase = Closed
	s.connected = false
	s.err = err
	s.mu.Unlock()

	s.logf("Session ended: %v", err)
	s.emit(ServerMessage{Text: err.Error()})
}

func (s *Session) setPhase(p Phase) {
	s.mu.Lock()
	if s.phase != Closed {
		s.phase = p
	}
	s.mu.Unlock()
}

func (s *Session) setNick(nick string) {
	s.mu.Lock()
	s.nick = nick
	s.mu.Unlock()
}

// IsMe reports whether nick is our current nickname.
func (s *Session) IsMe(nick string) bool {
	return nick == s.Nickname()
}

func (s *Session) emit(e Event) {
	s.hmu.RLock()
	handlers := s.eventHandlers
	s.hmu.RUnlock()

	for _, h := range handlers {
		h.HandleEvent(s, e)
	}
}

func (s *Session) logf(format string, args ...any) {
	if s.Logger != nil {
		s.Logger.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}

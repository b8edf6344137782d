package irc

// Event is implemented by every value a Session emits.
type Event interface {
	event()
}

// Handler receives session events. HandleEvent runs on the session's
// reader goroutine, synchronously and in wire order; implementations that
// touch UI state must hand the event off themselves.
type Handler interface {
	HandleEvent(s *Session, e Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(s *Session, e Event)

func (f HandlerFunc) HandleEvent(s *Session, e Event) { f(s, e) }

// MessageType classifies a received PRIVMSG.
type MessageType int

const (
	MessageFromServer MessageType = iota + 1
	MessageToChannel
	MessageToMe
)

func (t MessageType) String() string {
	switch t {
	case MessageFromServer:
		return "from-server"
	case MessageToChannel:
		return "to-channel"
	case MessageToMe:
		return "to-me"
	}
	return "unknown"
}

// UserListType classifies one step of a NAMES burst.
type UserListType int

const (
	ListStart UserListType = iota + 1
	ListContinue
	ListEnd
)

func (t UserListType) String() string {
	switch t {
	case ListStart:
		return "start"
	case ListContinue:
		return "continue"
	case ListEnd:
		return "end"
	}
	return "unknown"
}

// NickChangeType tells whether a nick was changed by a user or assigned by
// the server. NickAssigned is never emitted yet.
type NickChangeType int

const (
	NickChanged NickChangeType = iota + 1
	NickAssigned
)

// Connected fires when our own JOIN for the channel arrives.
type Connected struct{}

// MessageReceived is a PRIVMSG addressed to the channel or to us.
type MessageReceived struct {
	From   string
	Target string
	Type   MessageType
	Text   string
}

type UserJoined struct {
	Nick string
}

// UserLeft covers both PART and QUIT of another user.
type UserLeft struct {
	Nick string
}

type NicknameChanged struct {
	Old  string
	New  string
	Type NickChangeType
}

// UserList carries one step of a NAMES burst. For ListStart and
// ListContinue Names holds only the names from that reply; for ListEnd it
// holds the whole burst. Channel membership sigils (@, +) are left in place.
type UserList struct {
	Type  UserListType
	Names []string
}

// ServerMessage is displayable text: a raw welcome, notice or topic line,
// or the description of a transport fault.
type ServerMessage struct {
	Text string
}

// Quit is terminal: the session will emit nothing after it.
type Quit struct{}

func (Connected) event()       {}
func (MessageReceived) event() {}
func (UserJoined) event()      {}
func (UserLeft) event()        {}
func (NicknameChanged) event() {}
func (UserList) event()        {}
func (ServerMessage) event()   {}
func (Quit) event()            {}

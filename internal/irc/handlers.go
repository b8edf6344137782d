package irc

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	RPL_WELCOME       = "001"
	RPL_YOURHOST      = "002"
	RPL_CREATED       = "003"
	RPL_MYINFO        = "004"
	RPL_TOPIC         = "332"
	RPL_NAMREPLY      = "353"
	RPL_ENDOFNAMES    = "366"
	ERR_NICKNAMEINUSE = "433"
)

func (s *Session) registerHandlers() {
	s.handlers = make(map[string]func(*Command, string))

	// Registration accepted; every one of these (re)sends JOIN
	s.handlers[RPL_WELCOME] = s.onWelcome
	s.handlers[RPL_YOURHOST] = s.onWelcome
	s.handlers[RPL_CREATED] = s.onWelcome
	s.handlers[RPL_MYINFO] = s.onWelcome
	s.handlers["NOTICE"] = s.onWelcome

	s.handlers[RPL_TOPIC] = s.onTopic

	// NAMES burst
	s.handlers[RPL_NAMREPLY] = s.onNames
	s.handlers[RPL_ENDOFNAMES] = s.onNamesEnd

	s.handlers[ERR_NICKNAMEINUSE] = s.onNickInUse

	s.handlers["PRIVMSG"] = s.onPrivMsg
	s.handlers["PING"] = s.onPing
	s.handlers["JOIN"] = s.onJoin
	s.handlers["PART"] = s.onLeave
	s.handlers["QUIT"] = s.onLeave
	s.handlers["NICK"] = s.onNick
	s.handlers["ERROR"] = s.onError
}

func (s *Session) onWelcome(cmd *Command, raw string) {
	s.emit(ServerMessage{Text: raw})

	s.mu.Lock()
	if s.phase == Registering {
		s.phase = Joining
	}
	s.mu.Unlock()

	s.send("JOIN " + s.channel)
}

func (s *Session) onTopic(cmd *Command, raw string) {
	s.emit(ServerMessage{Text: raw})
}

func (s *Session) onNames(cmd *Command, raw string) {
	// 353 <me> <type> <channel> :<names>
	if len(cmd.Args) < 4 || cmd.Args[2] != s.channel {
		return
	}
	names := strings.Split(cmd.Args[3], " ")

	kind := ListContinue
	if s.prevCommand != RPL_NAMREPLY {
		kind = ListStart
		s.pendingNames = s.pendingNames[:0]
	}
	s.pendingNames = append(s.pendingNames, names...)

	s.emit(UserList{Type: kind, Names: names})
}

func (s *Session) onNamesEnd(cmd *Command, raw string) {
	// 366 <me> <channel> :End of /NAMES list
	names := make([]string, len(s.pendingNames))
	copy(names, s.pendingNames)
	s.emit(UserList{Type: ListEnd, Names: names})
}

func (s *Session) onNickInUse(cmd *Command, raw string) {
	nick := fmt.Sprintf("%s_%d", s.baseNick, rand.IntN(100))
	s.logf("Nick in use, switching to %s", nick)
	s.setNick(nick)
	s.send("NICK " + nick)
}

func (s *Session) onPrivMsg(cmd *Command, raw string) {
	// PRIVMSG <target> :<text>
	if len(cmd.Args) < 2 {
		return
	}
	msg := MessageReceived{
		From:   cmd.Nick(),
		Target: cmd.Args[0],
		Type:   MessageToChannel,
		Text:   cmd.Last(),
	}
	// Any target that is not us counts as channel traffic.
	if s.IsMe(cmd.Args[0]) {
		msg.Type = MessageToMe
	}
	s.emit(msg)
}

func (s *Session) onPing(cmd *Command, raw string) {
	if len(raw) < 5 {
		return
	}
	s.send("PONG " + raw[5:])
}

func (s *Session) onJoin(cmd *Command, raw string) {
	nick := cmd.Nick()
	if !s.IsMe(nick) {
		s.emit(UserJoined{Nick: nick})
		return
	}

	s.mu.Lock()
	if s.phase != Closed {
		s.phase = Joined
	}
	s.connected = true
	s.mu.Unlock()

	s.logf("Joined %s as %s", s.channel, nick)
	s.emit(Connected{})
}

func (s *Session) onLeave(cmd *Command, raw string) {
	nick := cmd.Nick()
	if !s.IsMe(nick) {
		s.emit(UserLeft{Nick: nick})
		return
	}
	s.setPhase(Quitting)
	s.terminate()
}

func (s *Session) onNick(cmd *Command, raw string) {
	// :old!user@host NICK <new>
	if len(cmd.Args) == 0 {
		return
	}
	oldNick := cmd.Nick()
	newNick := cmd.Args[0]

	s.mu.Lock()
	if s.nick == oldNick {
		s.nick = newNick
	}
	s.mu.Unlock()

	s.emit(NicknameChanged{Old: oldNick, New: newNick, Type: NickChanged})
}

func (s *Session) onError(cmd *Command, raw string) {
	// ERROR :<reason>
	s.logf("Server closed the link: %s", strings.Join(cmd.Args, ":"))
	s.terminate()
}

package roster

import (
	"sync"

	"github.com/irclean/irclean/internal/irc"
)

// Roster is the channel member list as seen by the client. It is built from
// NAMES bursts and kept current with join, leave and nick events. Names keep
// their sigils and their server order; duplicates are not collapsed.
type Roster struct {
	mu      sync.RWMutex
	names   []string
	pending []string // open NAMES burst
	loading bool
}

// New creates an empty roster
func New() *Roster {
	return &Roster{}
}

// HandleEvent implements irc.Handler.
func (r *Roster) HandleEvent(_ *irc.Session, e irc.Event) {
	r.Apply(e)
}

// Apply updates the roster from one session event and reports whether the
// committed list changed.
func (r *Roster) Apply(e irc.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e := e.(type) {
	case irc.UserList:
		switch e.Type {
		case irc.ListStart:
			r.pending = append(r.pending[:0], e.Names...)
			r.loading = true
		case irc.ListContinue:
			r.pending = append(r.pending, e.Names...)
		case irc.ListEnd:
			if !r.loading {
				// No start seen; take the burst the session accumulated
				r.pending = append(r.pending[:0], e.Names...)
			}
			r.names = append([]string(nil), r.pending...)
			r.pending = r.pending[:0]
			r.loading = false
			return true
		}
	case irc.UserJoined:
		r.names = append(r.names, e.Nick)
		return true
	case irc.UserLeft:
		return r.remove(e.Nick)
	case irc.NicknameChanged:
		return r.rename(e.Old, e.New)
	case irc.Quit:
		r.names = nil
		return true
	}
	return false
}

// Names returns a copy of the committed member list
func (r *Roster) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Len returns the number of committed members
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Loading reports whether a NAMES burst is in progress
func (r *Roster) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

func (r *Roster) remove(nick string) bool {
	i := r.index(nick)
	if i < 0 {
		return false
	}
	r.names = append(r.names[:i], r.names[i+1:]...)
	return true
}

func (r *Roster) rename(oldNick, newNick string) bool {
	i := r.index(oldNick)
	if i < 0 {
		return false
	}
	r.names[i] = sigil(r.names[i]) + newNick
	return true
}

// index finds the first entry for nick, ignoring a membership sigil.
func (r *Roster) index(nick string) int {
	for i, name := range r.names {
		if name == nick || name[len(sigil(name)):] == nick {
			return i
		}
	}
	return -1
}

func sigil(name string) string {
	if name != "" {
		switch name[0] {
		case '@', '+', '%', '~', '&':
			return name[:1]
		}
	}
	return ""
}

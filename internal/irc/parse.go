package irc

import "strings"

// Command is a single parsed protocol line.
type Command struct {
	// Prefix is the nick!user@host or server name the line came from.
	// It is empty for unprefixed lines (PING, ERROR).
	Prefix    string
	HasPrefix bool
	// Command is a three digit numeric or a verb, exactly as received.
	Command string
	Args    []string
}

// Nick returns the prefix up to its first '!'.
// A prefix without '!' (a server name) is returned whole.
func (c *Command) Nick() string {
	return nickFromPrefix(c.Prefix)
}

// Last returns the final argument, or "" when there are none.
func (c *Command) Last() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[len(c.Args)-1]
}

// Parse turns a raw line (without its line terminator) into a Command.
// It reports false for empty, malformed or unrecognized lines and never panics.
func Parse(raw string) (*Command, bool) {
	if raw == "" {
		return nil, false
	}

	if raw[0] == ':' {
		return parsePrefixed(raw)
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "ping"):
		// "PING " is taken as a fixed five byte header; whatever follows is kept verbatim.
		if len(raw) < 5 {
			return nil, false
		}
		return &Command{Command: "PING", Args: []string{raw[5:]}}, true
	case strings.HasPrefix(lower, "error"):
		return &Command{Command: "ERROR", Args: strings.Split(raw, ":")[1:]}, true
	}
	return nil, false
}

func parsePrefixed(raw string) (*Command, bool) {
	prefixEnd := strings.IndexByte(raw, ' ')
	if prefixEnd < 0 {
		return nil, false
	}
	cmd := &Command{Prefix: raw[1:prefixEnd], HasPrefix: true}

	var trailing string
	hasTrailing := false
	end := strings.Index(raw, " :")
	if end >= 0 {
		trailing = raw[end+2:]
		hasTrailing = true
	} else {
		end = len(raw)
	}
	if end < prefixEnd+1 {
		return nil, false
	}

	fields := strings.Split(raw[prefixEnd+1:end], " ")
	if fields[0] == "" {
		return nil, false
	}
	cmd.Command = fields[0]
	if len(fields) > 1 {
		cmd.Args = fields[1:]
	}
	if hasTrailing {
		cmd.Args = append(cmd.Args, trailing)
	}
	return cmd, true
}

func nickFromPrefix(prefix string) string {
	if i := strings.IndexByte(prefix, '!'); i >= 0 {
		return prefix[:i]
	}
	return prefix
}

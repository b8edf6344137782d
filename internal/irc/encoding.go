package irc

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Decoder turns raw inbound line bytes into a string. Valid UTF-8 passes
// through unchanged; anything else is read with a single byte charmap.
type Decoder struct {
	fallback *charmap.Charmap
}

var charmaps = map[string]*charmap.Charmap{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"latin9":       charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"koi8-r":       charmap.KOI8R,
	"windows-1251": charmap.Windows1251,
}

// NewDecoder returns a Decoder using the named charmap for lines that are
// not valid UTF-8. An empty name or "utf-8" selects ISO-8859-1.
func NewDecoder(name string) (*Decoder, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" {
		return &Decoder{fallback: charmap.ISO8859_1}, nil
	}
	cm, ok := charmaps[name]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return &Decoder{fallback: cm}, nil
}

// Decode never fails: a decoding error falls back to the raw bytes.
func (d *Decoder) Decode(line []byte) string {
	if utf8.Valid(line) {
		return string(line)
	}
	out, err := d.fallback.NewDecoder().Bytes(line)
	if err != nil {
		return string(line)
	}
	return string(out)
}

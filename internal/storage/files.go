package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const maxEntries = 500

// Transcript is the chat log of one channel, oldest entry first. At most
// 500 entries are kept.
type Transcript struct {
	mu      sync.Mutex
	path    string
	entries []string
}

// TranscriptPath returns the file a channel's transcript is stored in
func TranscriptPath(dataDir, channel string) string {
	name := strings.TrimLeft(channel, "#&+!")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "channel"
	}
	return filepath.Join(dataDir, name+".log")
}

// LoadTranscript reads a channel's transcript. A missing file is an empty
// transcript.
func LoadTranscript(dataDir, channel string) (*Transcript, error) {
	t := &Transcript{path: TranscriptPath(dataDir, channel)}
	lines, err := readLines(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, err
	}
	t.entries = trim(lines)
	return t, nil
}

// Append adds a timestamped entry and writes the transcript to disk
func (t *Transcript) Append(at time.Time, entry string) error {
	line := fmt.Sprintf("[%s] %s", at.UTC().Format("Mon Jan 02, 2006 15:04:05 GMT"), entry)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = AddEntry(t.entries, line)
	return t.saveLocked()
}

// Last returns up to n of the newest entries, oldest first
func (t *Transcript) Last(n int) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n > len(t.entries) {
		n = len(t.entries)
	}
	return append([]string(nil), t.entries[len(t.entries)-n:]...)
}

// Len returns the number of retained entries
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Transcript) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0755); err != nil {
		return err
	}
	return writeLines(t.path, t.entries)
}

// AddEntry appends a new entry, dropping the oldest beyond the limit
func AddEntry(entries []string, entry string) []string {
	entries = append(entries, entry)
	return trim(entries)
}

func trim(entries []string) []string {
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}
	return entries
}

func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

func writeLines(path string, lines []string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return w.Flush()
}

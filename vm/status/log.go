package status

import (
	"github.com/joshuapare/vmkit/internal/logger"
)

// Capacity is the number of entries the log retains.
const Capacity = 32

// Entry is one reported fault.
type Entry struct {
	Code   Code
	Origin string
}

// Log is a fixed-capacity ring of entries. Pushing past capacity evicts the
// oldest entry. The zero value is not usable; call NewLog.
type Log struct {
	ring  []Entry
	head  int // index of the oldest entry
	count int
}

// NewLog returns an empty log holding at most capacity entries.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Log{ring: make([]Entry, capacity)}
}

// Report appends (code, origin) and returns code so call sites can write
// `return l.Report(NullMemory, "chunk.resize")`.
func (l *Log) Report(code Code, origin string) Code {
	if l.count == len(l.ring) {
		l.ring[l.head] = Entry{Code: code, Origin: origin}
		l.head = (l.head + 1) % len(l.ring)
	} else {
		l.ring[(l.head+l.count)%len(l.ring)] = Entry{Code: code, Origin: origin}
		l.count++
	}
	logger.Debug("vm fault", "code", code.String(), "origin", origin, "category", code.Category().String())
	return code
}

// Empty reports whether no entries are held.
func (l *Log) Empty() bool { return l.count == 0 }

// Len returns the number of entries held.
func (l *Log) Len() int { return l.count }

// Last returns the most recent entry. ok is false when the log is empty.
func (l *Log) Last() (e Entry, ok bool) {
	if l.count == 0 {
		return Entry{}, false
	}
	return l.ring[(l.head+l.count-1)%len(l.ring)], true
}

// LastCode returns the most recent code, or OK when the log is empty.
func (l *Log) LastCode() Code {
	e, _ := l.Last()
	return e.Code
}

// Entries returns the held entries, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, l.count)
	for i := range out {
		out[i] = l.ring[(l.head+i)%len(l.ring)]
	}
	return out
}

// Contains reports whether any held entry has the given code.
func (l *Log) Contains(code Code) bool {
	for i := 0; i < l.count; i++ {
		if l.ring[(l.head+i)%len(l.ring)].Code == code {
			return true
		}
	}
	return false
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.head = 0
	l.count = 0
}

var std = NewLog(Capacity)

// Default returns the process-wide log.
func Default() *Log { return std }

// Report appends to the process-wide log.
func Report(code Code, origin string) Code { return std.Report(code, origin) }

// Empty reports whether the process-wide log is empty.
func Empty() bool { return std.Empty() }

// Last returns the most recent entry of the process-wide log.
func Last() (Entry, bool) { return std.Last() }

// LastCode returns the most recent code of the process-wide log.
func LastCode() Code { return std.LastCode() }

// Entries returns the process-wide log's entries, oldest first.
func Entries() []Entry { return std.Entries() }

// Contains reports whether the process-wide log holds code.
func Contains(code Code) bool { return std.Contains(code) }

// Clear empties the process-wide log.
func Clear() { std.Clear() }

// Package status implements the runtime's fault reporting channel.
//
// Core operations never return Go errors for expected conditions. They push a
// Code and the name of the reporting site onto a bounded log and hand the
// caller a sentinel (nil memory, the receiver, or the Code itself). Callers
// inspect the log afterwards with Empty, Last and Entries, and Clear it
// between independent operations.
package status

// Code is the outcome of a runtime operation.
type Code uint8

const (
	OK Code = iota

	// API misuse.
	UnknownRelationship
	InvalidTarget
	NotMember
	CardinalityViolation
	NullMemory
	UnknownAddress
	ZeroSize
	OutOfRange
	NoOwningChunk
	SizeTooLarge

	// Resource exhaustion.
	ZeroCapacity
	NoMemory
	FragmentedMemory
	AllocFailed

	// UnknownFault marks a condition that should never happen.
	UnknownFault
)

var codeNames = [...]string{
	OK:                   "OK",
	UnknownRelationship:  "UNKNOWN_RELATIONSHIP",
	InvalidTarget:        "INVALID_TARGET",
	NotMember:            "NOT_MEMBER",
	CardinalityViolation: "CARDINALITY_VIOLATION",
	NullMemory:           "NULL_MEMORY",
	UnknownAddress:       "UNKNOWN_ADDRESS",
	ZeroSize:             "ZERO_SIZE",
	OutOfRange:           "OUT_OF_RANGE",
	NoOwningChunk:        "NO_OWNING_CHUNK",
	SizeTooLarge:         "SIZE_TOO_LARGE",
	ZeroCapacity:         "ZERO_CAPACITY",
	NoMemory:             "NO_MEMORY",
	FragmentedMemory:     "FRAGMENTED_MEMORY",
	AllocFailed:          "ALLOC_FAILED",
	UnknownFault:         "UNKNOWN_FAULT",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return "UNKNOWN_FAULT"
}

// Error implements error so codes can be wrapped and matched with errors.Is.
func (c Code) Error() string { return "vm: " + c.String() }

// Category groups codes by how a caller should react.
type Category uint8

const (
	CategoryNone       Category = iota
	CategoryMisuse              // programmer error, operation was a no-op
	CategoryExhaustion          // out of space, retry or degrade
	CategoryFault               // invariant broken, indicates a bug
)

func (c Category) String() string {
	switch c {
	case CategoryMisuse:
		return "misuse"
	case CategoryExhaustion:
		return "exhaustion"
	case CategoryFault:
		return "fault"
	default:
		return "none"
	}
}

// Category returns the category of c.
func (c Code) Category() Category {
	switch {
	case c == OK:
		return CategoryNone
	case c >= UnknownRelationship && c <= SizeTooLarge:
		return CategoryMisuse
	case c >= ZeroCapacity && c <= AllocFailed:
		return CategoryExhaustion
	default:
		return CategoryFault
	}
}

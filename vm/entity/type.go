package entity

import (
	"strconv"

	"github.com/google/uuid"
)

// Type is the closed set of entity kinds the runtime knows about.
type Type uint8

const (
	TypeNone Type = iota // the canonical "no value" entity
	TypeMemory
	TypeChunk
	TypeAllocator
	TypeValue
	TypeVariable
	TypeCollection
	TypeFile
	TypeMethod
	TypeThread
)

var typeNames = [...]string{
	TypeNone:       "none",
	TypeMemory:     "memory",
	TypeChunk:      "chunk",
	TypeAllocator:  "allocator",
	TypeValue:      "value",
	TypeVariable:   "variable",
	TypeCollection: "collection",
	TypeFile:       "file",
	TypeMethod:     "method",
	TypeThread:     "thread",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "type(" + strconv.Itoa(int(t)) + ")"
}

// Kind is the cardinality of a relationship.
type Kind uint8

const (
	OneToOne Kind = iota
	OneToMany
	ManyToOne
)

func (k Kind) String() string {
	switch k {
	case OneToOne:
		return "ONE_TO_ONE"
	case OneToMany:
		return "ONE_TO_MANY"
	case ManyToOne:
		return "MANY_TO_ONE"
	default:
		return "KIND(" + strconv.Itoa(int(k)) + ")"
	}
}

// single reports whether the kind allows at most one member.
func (k Kind) single() bool { return k == OneToOne || k == ManyToOne }

// CardinalityPolicy decides what Add does when a single-member relationship
// (OneToOne, ManyToOne) already holds a member.
type CardinalityPolicy uint8

const (
	// LogAndAllow reports CardinalityViolation and appends anyway.
	LogAndAllow CardinalityPolicy = iota
	// Reject reports CardinalityViolation and leaves the relationship unchanged.
	Reject
)

// Cardinality is the policy applied by every Add. It defaults to LogAndAllow
// for compatibility with existing interpreter code that relies on the append.
var Cardinality = LogAndAllow

// NewID returns a fresh random identifier for entities without a natural key.
func NewID() string { return uuid.NewString() }

package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event.
type Scope uint8

const (
	ScopeCycle Scope = iota + 1 // one engine run
	ScopePair                   // one document pair
	ScopePhase                  // load, flatten, diff, locate
	ScopeKey                    // one missing key
	ScopeError                  // cycle failures
)

func (s Scope) String() string {
	switch s {
	case ScopeCycle:
		return "cycle"
	case ScopePair:
		return "pair"
	case ScopePhase:
		return "phase"
	case ScopeKey:
		return "key"
	case ScopeError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Extra    map[string]string
}

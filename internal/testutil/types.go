package testutil

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Common test errors
var (
	ErrTest        = errors.New("test error")
	ErrIntentional = errors.New("intentional error")
	ErrConstructor = errors.New("constructor error")
)

// C is the leaf of the A -> B -> C chain.
type C struct {
	ID string
}

// NewC creates a C with a fresh ID.
func NewC() *C {
	return &C{ID: uuid.NewString()}
}

// B depends on C.
type B struct {
	C *C
}

func NewB(c *C) *B {
	return &B{C: c}
}

// A depends on B.
type A struct {
	B *B
}

func NewA(b *B) *A {
	return &A{B: b}
}

// X and Y require each other.
type X struct {
	Y *Y
}

func NewX(y *Y) *X {
	return &X{Y: y}
}

type Y struct {
	X *X
}

func NewY(x *X) *Y {
	return &Y{X: x}
}

// Z has no dependencies.
type Z struct{}

// Greeter is a class-like interface.
type Greeter interface {
	Greet(name string) string
}

// EnglishGreeter implements Greeter.
type EnglishGreeter struct{}

func (EnglishGreeter) Greet(name string) string {
	return "hello " + name
}

// Config is a value-typed dependency.
type Config struct {
	DSN     string
	Retries int
}

// Store is constructed from a DSN and an optional config.
type Store struct {
	DSN    string
	Config *Config
}

func NewStore(dsn string, cfg *Config) *Store {
	return &Store{DSN: dsn, Config: cfg}
}

// Recorder records hook invocations. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// Entry is one recorded hook invocation.
type Entry struct {
	Kind     string
	Target   string
	Original string
	Instance any
}

func (r *Recorder) Record(kind, target, original string, instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Kind: kind, Target: target, Original: original, Instance: instance})
}

// Entries returns a copy of the recorded entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Entry, len(r.entries))
	copy(result, r.entries)
	return result
}

// Count returns the number of entries of the given kind.
func (r *Recorder) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

package reflective

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/junioryono/reflective/internal/reflection"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Typed errors below match these through errors.Is.

var (
	// Resolution errors.
	ErrNotFound          = errors.New("target not found")
	ErrCircularReference = errors.New("circular reference detected")
	ErrUnresolvable      = errors.New("parameter cannot be resolved")
	ErrTypeMismatch      = errors.New("resolved value does not match parameter type")
	ErrPendingSource     = errors.New("propagation source is not resolved yet")

	// Registration errors.
	ErrAlreadyRegistered  = errors.New("target already registered")
	ErrInvalidConstructor = errors.New("constructor must be a function returning a value and an optional error")
	ErrInvalidTarget      = errors.New("target type must be a struct or a pointer to a struct")
	ErrInvalidParams      = errors.New("more parameter specs than parameters")
	ErrNilFunction        = errors.New("function cannot be nil")
	ErrEmptyName          = errors.New("name cannot be empty")

	// Hook errors.
	ErrInvalidHook = errors.New("hook function does not match its kind")

	// Context errors.
	ErrNilContainer          = errors.New("container cannot be nil")
	ErrContainerNotInContext = errors.New("no container found in context")
)

var (
	_ error = NotFoundError{}
	_ error = CircularReferenceError{}
	_ error = UnresolvableParameterError{}
	_ error = TypeMismatchError{}
	_ error = ConstructorError{}
	_ error = HookError{}
	_ error = RegistrationError{}
	_ error = ModuleError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// NotFoundError indicates a target, method or function name that does not resolve
// to anything known, or an explicit identifier the delegate cannot provide.
type NotFoundError struct {
	ID       string
	Original string // Name before proxy substitution, empty when equal to ID
	Kind     string // "target", "method" or "function"
}

func (e NotFoundError) Error() string {
	kind := e.Kind
	if kind == "" {
		kind = "target"
	}
	if e.Original != "" && e.Original != e.ID {
		return fmt.Sprintf("%s not found: %s (requested as %s)", kind, e.ID, e.Original)
	}
	return fmt.Sprintf("%s not found: %s", kind, e.ID)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// CircularReferenceError indicates a target that is requested again while it is
// still being constructed. Chain lists every name in progress, outermost first.
type CircularReferenceError struct {
	Name  string
	Chain []string
}

func (e CircularReferenceError) Error() string {
	var b strings.Builder
	b.WriteString("circular reference detected:\n\n")

	for _, name := range e.Chain {
		b.WriteString(fmt.Sprintf("    %s\n", name))
		b.WriteString("      ↓\n")
	}
	b.WriteString(fmt.Sprintf("    %s (cycle)\n", e.Name))

	b.WriteString("\nTo resolve this:\n")
	b.WriteString("  • Pass one of the instances in the caller values\n")
	b.WriteString("  • Give the parameter a default and stop preferring resolution\n")
	b.WriteString("  • Restructure to remove the circular relationship\n")

	return b.String()
}

func (e CircularReferenceError) Is(target error) bool {
	return target == ErrCircularReference
}

// UnresolvableParameterError is returned once every resolution rule for a
// parameter or property has been exhausted.
type UnresolvableParameterError struct {
	Target    string // Declaring target
	Function  string // Constructor, function or method name
	Parameter string
	Attempted []string // Class-like type names that were tried
	Cause     error
}

func (e UnresolvableParameterError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("cannot resolve %s", e.Target))
	if e.Function != "" {
		b.WriteString(fmt.Sprintf("::%s", e.Function))
	}
	b.WriteString(fmt.Sprintf("(%s)", e.Parameter))

	if len(e.Attempted) > 0 {
		b.WriteString(fmt.Sprintf(": no registered target among %s", strings.Join(e.Attempted, ", ")))
	}
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	return b.String()
}

func (e UnresolvableParameterError) Is(target error) bool {
	return target == ErrUnresolvable
}

func (e UnresolvableParameterError) Unwrap() error {
	return e.Cause
}

// TypeMismatchError indicates a resolved value whose type does not satisfy the
// parameter's declared Go type. It is a configuration error and is never retried.
type TypeMismatchError struct {
	Target    string
	Function  string
	Parameter string
	Expected  reflect.Type
	Actual    reflect.Type // nil when the value was nil
}

func (e TypeMismatchError) Error() string {
	actual := "nil"
	if e.Actual != nil {
		actual = reflection.TypeName(e.Actual)
	}
	location := e.Target
	if e.Function != "" {
		location += "::" + e.Function
	}
	return fmt.Sprintf("type mismatch for %s(%s): expected %s, got %s",
		location, e.Parameter, reflection.TypeName(e.Expected), actual)
}

func (e TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// ConstructorError wraps an error returned by a constructor or function, or a
// value recovered from a panic inside it.
type ConstructorError struct {
	Target   string
	Function string
	Panic    any
	Cause    error
}

func (e ConstructorError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("%s panicked while constructing %s: %v", e.Function, e.Target, e.Panic)
	}
	return fmt.Sprintf("%s failed to construct %s: %v", e.Function, e.Target, e.Cause)
}

func (e ConstructorError) Unwrap() error {
	return e.Cause
}

// HookError wraps an error returned by a lifecycle hook.
type HookError struct {
	Hook   string
	Kind   HookKind
	Target string
	Cause  error
}

func (e HookError) Error() string {
	return fmt.Sprintf("%s hook %q failed for %s: %v", e.Kind, e.Hook, e.Target, e.Cause)
}

func (e HookError) Unwrap() error {
	return e.Cause
}

// RegistrationError indicates an invalid target, function or hook registration.
type RegistrationError struct {
	Name  string
	Cause error
}

func (e RegistrationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("registration failed: %v", e.Cause)
	}
	return fmt.Sprintf("registration of %s failed: %v", e.Name, e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ModuleError wraps errors from module registration.
type ModuleError struct {
	Module string
	Cause  error
}

func (e ModuleError) Error() string {
	return fmt.Sprintf("module %s: %v", e.Module, e.Cause)
}

func (e ModuleError) Unwrap() error {
	return e.Cause
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCircularReference checks if an error is a circular reference error.
func IsCircularReference(err error) bool {
	return errors.Is(err, ErrCircularReference)
}

// IsUnresolvable checks if an error is an exhausted-resolution error.
func IsUnresolvable(err error) bool {
	return errors.Is(err, ErrUnresolvable)
}

// IsTypeMismatch checks if an error is a type mismatch error.
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// isMissing reports whether err signals that exactly id is not registered.
// Not-found errors raised deeper in the graph are not treated as missing.
func isMissing(err error, id string) bool {
	var nf NotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	return nf.ID == id || nf.Original == id
}

// isRetryable reports whether a failed union alternative gives way to the next
// one. Missing and unresolvable targets anywhere below the alternative are
// retried; cycles, mismatches, constructor and hook failures are not.
func isRetryable(err error) bool {
	var (
		ctorErr ConstructorError
		hookErr HookError
	)
	if errors.As(err, &ctorErr) || errors.As(err, &hookErr) {
		return false
	}
	if IsCircularReference(err) || IsTypeMismatch(err) {
		return false
	}
	return IsNotFound(err) || IsUnresolvable(err)
}

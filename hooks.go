package reflective

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// HookKind identifies the point in the construction lifecycle a hook runs at.
type HookKind int

const (
	// HookProxy hooks may substitute the requested target name.
	HookProxy HookKind = iota
	// HookPrepare hooks run before the target is constructed.
	HookPrepare
	// HookAlter hooks run after every construction, successful or not.
	HookAlter
)

func (k HookKind) String() string {
	switch k {
	case HookProxy:
		return "proxy"
	case HookPrepare:
		return "prepare"
	case HookAlter:
		return "alter"
	default:
		return fmt.Sprintf("HookKind(%d)", int(k))
	}
}

// ProxyHook returns a substitute for the current target name, or false to keep it.
// It runs at most once per distinct requested name; the result is cached.
type ProxyHook func(target string) (substitute string, ok bool)

// PrepareHook runs before construction with the (possibly substituted) target name
// and the originally requested name. An error aborts the construction.
type PrepareHook func(target, original string) error

// AlterHook runs after construction with the instance, or nil when construction failed.
type AlterHook func(target, original string, instance any) error

// Hook is a lifecycle hook with its priority. Higher priorities run first;
// hooks with equal priority run in registration order.
type Hook struct {
	Name     string
	Kind     HookKind
	Priority int
	Proxy    ProxyHook
	Prepare  PrepareHook
	Alter    AlterHook
}

// HookSet supplies a group of hooks, typically from a type embedding shared behavior.
type HookSet interface {
	Hooks() []Hook
}

// ProxyHookFunc creates a proxy hook.
func ProxyHookFunc(name string, priority int, fn ProxyHook) Hook {
	return Hook{Name: name, Kind: HookProxy, Priority: priority, Proxy: fn}
}

// PrepareHookFunc creates a prepare hook.
func PrepareHookFunc(name string, priority int, fn PrepareHook) Hook {
	return Hook{Name: name, Kind: HookPrepare, Priority: priority, Prepare: fn}
}

// AlterHookFunc creates an alter hook.
func AlterHookFunc(name string, priority int, fn AlterHook) Hook {
	return Hook{Name: name, Kind: HookAlter, Priority: priority, Alter: fn}
}

// hookRegistry holds the sorted hooks of each kind. It is immutable after New.
type hookRegistry struct {
	proxy   []Hook
	prepare []Hook
	alter   []Hook
}

func newHookRegistry(hooks []Hook) (*hookRegistry, error) {
	r := &hookRegistry{}
	for _, h := range hooks {
		var valid bool
		switch h.Kind {
		case HookProxy:
			valid = h.Proxy != nil
			r.proxy = append(r.proxy, h)
		case HookPrepare:
			valid = h.Prepare != nil
			r.prepare = append(r.prepare, h)
		case HookAlter:
			valid = h.Alter != nil
			r.alter = append(r.alter, h)
		}
		if !valid {
			return nil, RegistrationError{Name: h.Name, Cause: fmt.Errorf("%w: %s", ErrInvalidHook, h.Kind)}
		}
	}

	for _, list := range [][]Hook{r.proxy, r.prepare, r.alter} {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority > list[j].Priority
		})
	}

	return r, nil
}

// substitute runs the proxy hooks in order; each sees the current substitute.
func (r *hookRegistry) substitute(name string) string {
	for _, h := range r.proxy {
		if s, ok := h.Proxy(name); ok && s != "" {
			name = s
		}
	}
	return name
}

func (r *hookRegistry) runPrepare(target, original string) error {
	for _, h := range r.prepare {
		if err := h.Prepare(target, original); err != nil {
			return HookError{Hook: h.Name, Kind: HookPrepare, Target: target, Cause: err}
		}
	}
	return nil
}

// runAlter runs every alter hook, even when one fails, and combines their errors.
func (r *hookRegistry) runAlter(target, original string, instance any) error {
	var errs error
	for _, h := range r.alter {
		if err := h.Alter(target, original, instance); err != nil {
			errs = multierr.Append(errs, HookError{Hook: h.Name, Kind: HookAlter, Target: target, Cause: err})
		}
	}
	return errs
}

// loggingHooks logs every construction at debug level.
type loggingHooks struct {
	logger  *zap.Logger
	started map[string][]time.Time
}

// LoggingHooks returns a hook set that logs construction start and outcome.
// Its hooks run before (prepare) and after (alter) all default-priority hooks.
func LoggingHooks(logger *zap.Logger) HookSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loggingHooks{logger: logger, started: make(map[string][]time.Time)}
}

func (l *loggingHooks) Hooks() []Hook {
	return []Hook{
		PrepareHookFunc("log-prepare", 1<<20, l.prepare),
		AlterHookFunc("log-alter", -1<<20, l.alter),
	}
}

func (l *loggingHooks) prepare(target, original string) error {
	l.started[target] = append(l.started[target], time.Now())
	l.logger.Debug("constructing target",
		zap.String("target", target),
		zap.String("original", original),
	)
	return nil
}

func (l *loggingHooks) alter(target, original string, instance any) error {
	fields := []zap.Field{
		zap.String("target", target),
		zap.String("original", original),
	}
	// Alter hooks also run when a prepare hook failed before ours was reached.
	if starts := l.started[target]; len(starts) > 0 {
		fields = append(fields, zap.Duration("duration", time.Since(starts[len(starts)-1])))
		l.started[target] = starts[:len(starts)-1]
	}

	if instance == nil {
		l.logger.Debug("target construction failed", fields...)
		return nil
	}
	l.logger.Debug("target constructed", append(fields, zap.String("type", fmt.Sprintf("%T", instance)))...)
	return nil
}

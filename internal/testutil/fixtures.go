package testutil

import (
	"github.com/junioryono/reflective"
)

// Hook kinds recorded by RecordingHooks.
const (
	KindPrepare = "prepare"
	KindAlter   = "alter"
)

// RecordingHooks returns prepare and alter hooks that record into r.
func RecordingHooks(r *Recorder) []reflective.Hook {
	return []reflective.Hook{
		reflective.PrepareHookFunc("record-prepare", 0, func(target, original string) error {
			r.Record(KindPrepare, target, original, nil)
			return nil
		}),
		reflective.AlterHookFunc("record-alter", 0, func(target, original string, instance any) error {
			r.Record(KindAlter, target, original, instance)
			return nil
		}),
	}
}

// ProxyTo returns a proxy hook replacing from with to and counting its calls.
func ProxyTo(from, to string, calls *int) reflective.Hook {
	return reflective.ProxyHookFunc("proxy-"+from, 0, func(target string) (string, bool) {
		*calls++
		if target == from {
			return to, true
		}
		return "", false
	})
}

// StoreParams declares the parameters of NewStore.
func StoreParams(opts ...reflective.ParamOption) reflective.ProvideOption {
	return reflective.Params(
		reflective.Param("dsn", reflective.Default("memory://")),
		reflective.Param("config", opts...),
	)
}

package chi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/junioryono/reflective"
	"github.com/junioryono/reflective/declare"
)

// DebugRoutes returns a router describing the registered targets of c:
//
//	GET /targets                  registered target names, one per line
//	GET /targets/describe?name=N  the declaration of target N
//	GET /graph                    the static dependency graph in DOT format
//	GET /graph?format=text        the same graph grouped by depth
func DebugRoutes(c *reflective.Container) http.Handler {
	r := gochi.NewRouter()

	r.Get("/targets", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, strings.Join(c.Targets(), "\n"))
	})

	r.Get("/targets/describe", func(w http.ResponseWriter, req *http.Request) {
		name := req.URL.Query().Get("name")
		if name == "" {
			http.Error(w, "missing name", http.StatusBadRequest)
			return
		}

		desc, err := c.Inspect(name)
		if err != nil {
			if errors.Is(err, reflective.ErrNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			c.Logger().Error("failed to inspect target", zap.String("target", name), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, declare.Target(desc))
	})

	r.Get("/graph", func(w http.ResponseWriter, req *http.Request) {
		write := c.WriteGraph
		contentType := "text/vnd.graphviz; charset=utf-8"
		if req.URL.Query().Get("format") == "text" {
			write = c.WriteGraphText
			contentType = "text/plain; charset=utf-8"
		}

		w.Header().Set("Content-Type", contentType)
		if err := write(w); err != nil {
			c.Logger().Error("failed to write dependency graph", zap.Error(err))
		}
	})

	return r
}

package window

import (
	"strings"

	"github.com/frudas24/pdb/internal/failure"
)

// Enumerator lists the top-level windows currently visible to the user, minimized ones included.
type Enumerator interface {
	Windows() ([]Info, error)
}

// Registry resolves handles and title queries against a fresh enumeration on every call.
type Registry struct {
	src Enumerator
}

// NewRegistry creates a registry over a window enumerator.
func NewRegistry(src Enumerator) *Registry {
	return &Registry{src: src}
}

// List returns the current windows in platform enumeration order.
func (r *Registry) List() ([]Info, error) {
	list, err := r.src.Windows()
	if err != nil {
		return nil, failure.Classify(err, failure.PlatformError)
	}
	return list, nil
}

// Lookup resolves an exact handle.
func (r *Registry) Lookup(h Handle) (Info, error) {
	list, err := r.List()
	if err != nil {
		return Info{}, err
	}
	for _, w := range list {
		if w.Handle == h {
			return w, nil
		}
	}
	return Info{}, failure.New(failure.NotFound, "no window with handle %s", h)
}

// Find resolves a handle token or, when the query is not a handle, the first
// window whose title contains the query case-insensitively.
func (r *Registry) Find(query string) (Info, error) {
	list, err := r.List()
	if err != nil {
		return Info{}, err
	}
	return Match(list, query)
}

// Match applies the Find rules to an already enumerated list.
func Match(list []Info, query string) (Info, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Info{}, failure.New(failure.InvalidHandle, "empty window query")
	}
	if h, err := ParseHandle(query); err == nil {
		for _, w := range list {
			if w.Handle == h {
				return w, nil
			}
		}
		return Info{}, failure.New(failure.NotFound, "no window with handle %s", h)
	}
	needle := strings.ToLower(query)
	for _, w := range list {
		if strings.Contains(strings.ToLower(w.Title), needle) {
			return w, nil
		}
	}
	return Info{}, failure.New(failure.NotFound, "no window title contains %q", query)
}

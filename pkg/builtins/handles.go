package builtins

import (
	"ebscript/pkg/object"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// handles maps opaque "prefix#N" tokens to host resources.
type handles[T any] struct {
	mu     sync.Mutex
	prefix string
	next   int
	items  map[string]T
}

func newHandles[T any](prefix string) *handles[T] {
	return &handles[T]{prefix: prefix, items: make(map[string]T)}
}

func (h *handles[T]) add(v T) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.prefix + "#" + strconv.Itoa(h.next)
	h.items[id] = v
	return id
}

func (h *handles[T]) get(id string) (T, *object.Error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.items[id]
	if !ok {
		var zero T
		if !strings.HasPrefix(id, h.prefix+"#") {
			return zero, object.Raise(object.ValidationError, "%q is not a %s handle", id, h.prefix)
		}
		return zero, object.Raise(object.NotFoundError, "%s handle %s is not open", h.prefix, id)
	}
	return v, nil
}

func (h *handles[T]) remove(id string) (T, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.items[id]
	delete(h.items, id)
	return v, ok
}

func (h *handles[T]) ids() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.items))
	for id := range h.items {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return handleOrder(out[i]) < handleOrder(out[j])
	})
	return out
}

func (h *handles[T]) drain() []T {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]T, 0, len(h.items))
	for id, v := range h.items {
		out = append(out, v)
		delete(h.items, id)
	}
	return out
}

func handleOrder(id string) int {
	_, n, _ := strings.Cut(id, "#")
	i, _ := strconv.Atoi(n)
	return i
}

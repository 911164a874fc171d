package servlin

import "strings"

// header is a single name/value pair, preserving the case the peer sent the
// name in while comparing case-insensitively.
type header struct {
	name  string
	value string
}

// HeaderList is an ordered multimap of header fields. Order and duplicates
// are preserved on read; the accessor methods below give the embedder the
// same get-one/get-all/remove-one/remove-all vocabulary as the original
// Rust HeaderList, adapted to an ordered Go slice instead of a Vec.
type HeaderList struct {
	items []header
}

// Add appends a header, keeping any existing entries with the same name.
func (h *HeaderList) Add(name, value string) {
	h.items = append(h.items, header{name: name, value: value})
}

// GetOnly returns the header's value and true only when exactly one header
// with that name (case-insensitive) is present. Zero or multiple matches
// both report false, mirroring the original's refusal to silently pick one
// of several conflicting values.
func (h *HeaderList) GetOnly(name string) (string, bool) {
	var found string
	count := 0
	for _, it := range h.items {
		if strings.EqualFold(it.name, name) {
			found = it.value
			count++
		}
	}
	if count == 1 {
		return found, true
	}
	return "", false
}

// GetAll returns every value for the given header name, in the order they
// were added.
func (h *HeaderList) GetAll(name string) []string {
	var out []string
	for _, it := range h.items {
		if strings.EqualFold(it.name, name) {
			out = append(out, it.value)
		}
	}
	return out
}

// RemoveOnly removes and returns the header's value, but only when exactly
// one entry with that name exists. It leaves the list untouched and reports
// false when there are zero or several.
func (h *HeaderList) RemoveOnly(name string) (string, bool) {
	idx := -1
	var val string
	count := 0
	for i, it := range h.items {
		if strings.EqualFold(it.name, name) {
			idx = i
			val = it.value
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	h.items = append(h.items[:idx], h.items[idx+1:]...)
	return val, true
}

// RemoveAll removes every header with the given name.
func (h *HeaderList) RemoveAll(name string) {
	out := h.items[:0]
	for _, it := range h.items {
		if !strings.EqualFold(it.name, name) {
			out = append(out, it)
		}
	}
	h.items = out
}

// Len returns the number of header entries, including duplicates.
func (h *HeaderList) Len() int {
	return len(h.items)
}

// Each calls fn once per header entry, in insertion order.
func (h *HeaderList) Each(fn func(name, value string)) {
	for _, it := range h.items {
		fn(it.name, it.value)
	}
}

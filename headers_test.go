package servlin

import "testing"

func TestHeaderListGetOnly(t *testing.T) {
	var h HeaderList
	h.Add("X-Foo", "1")
	if v, ok := h.GetOnly("x-foo"); !ok || v != "1" {
		t.Fatalf("GetOnly = %q, %v", v, ok)
	}
	h.Add("X-Foo", "2")
	if _, ok := h.GetOnly("X-Foo"); ok {
		t.Fatalf("GetOnly should report false for duplicate headers")
	}
	if _, ok := h.GetOnly("X-Missing"); ok {
		t.Fatalf("GetOnly should report false for a missing header")
	}
}

func TestHeaderListGetAllPreservesOrder(t *testing.T) {
	var h HeaderList
	h.Add("Set-Cookie", "a=1")
	h.Add("Set-Cookie", "b=2")
	got := h.GetAll("set-cookie")
	if len(got) != 2 || got[0] != "a=1" || got[1] != "b=2" {
		t.Fatalf("GetAll = %v", got)
	}
}

func TestHeaderListRemoveOnly(t *testing.T) {
	var h HeaderList
	h.Add("X-Foo", "1")
	h.Add("X-Bar", "2")
	v, ok := h.RemoveOnly("x-foo")
	if !ok || v != "1" {
		t.Fatalf("RemoveOnly = %q, %v", v, ok)
	}
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
}

func TestHeaderListRemoveAll(t *testing.T) {
	var h HeaderList
	h.Add("X-Foo", "1")
	h.Add("X-Foo", "2")
	h.Add("X-Bar", "3")
	h.RemoveAll("x-foo")
	if h.Len() != 1 {
		t.Fatalf("Len = %d, want 1", h.Len())
	}
	if v, ok := h.GetOnly("X-Bar"); !ok || v != "3" {
		t.Fatalf("X-Bar = %q, %v", v, ok)
	}
}

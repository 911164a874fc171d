package servlin

import "testing"

func TestParseContentTypeKnownKinds(t *testing.T) {
	cases := map[string]contentTypeKind{
		"text/plain":                        ContentTypeTextPlain,
		"text/html; charset=utf-8":          ContentTypeTextHTML,
		"application/json":                  ContentTypeJSON,
		"application/x-www-form-urlencoded": ContentTypeFormURLEncoded,
		"application/octet-stream":          ContentTypeOctetStream,
	}
	for raw, want := range cases {
		got := ParseContentType(raw).Kind()
		if got != want {
			t.Errorf("ParseContentType(%q).Kind() = %v, want %v", raw, got, want)
		}
	}
}

func TestParseContentTypeOtherPreservesRaw(t *testing.T) {
	ct := ParseContentType("application/vnd.custom+json")
	if ct.Kind() != ContentTypeOther {
		t.Fatalf("Kind() = %v, want ContentTypeOther", ct.Kind())
	}
	if ct.String() != "application/vnd.custom+json" {
		t.Fatalf("String() = %q", ct.String())
	}
}

func TestParseContentTypeEmpty(t *testing.T) {
	if ParseContentType("").Kind() != ContentTypeUnspecified {
		t.Fatalf("empty content-type should be Unspecified")
	}
}

package servlin

import "fmt"

// Tag is a single structured key/value pair an embedder can attach to a log
// line, e.g. when logging a finished request. The core engine never
// produces these itself (application-level logging is an external
// collaborator), but it's part of the package's public surface the same
// way it was part of the original's public surface, not confined to an
// example program.
type Tag struct {
	Name  string
	Value any
}

// TagList is an ordered collection of Tags, rendered by String into a
// compact "name=value name=value" line suitable for appending to a log
// message.
type TagList []Tag

func (t TagList) String() string {
	out := make([]byte, 0, 16*len(t))
	for i, tag := range t {
		if i > 0 {
			out = append(out, ' ')
		}
		out = fmt.Appendf(out, "%s=%v", tag.Name, tag.Value)
	}
	return string(out)
}

// RequestTags builds the common set of tags an embedder logs for a
// finished request/response cycle: method, path, and the response status.
func RequestTags(req *Request, resp Response) TagList {
	tags := TagList{
		{Name: "method", Value: req.Method},
	}
	if req.URL != nil {
		tags = append(tags, Tag{Name: "path", Value: req.URL.Path})
	}
	if resp.IsNormal() {
		tags = append(tags, Tag{Name: "status", Value: resp.Code()})
	}
	return tags
}

package objectpath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/exprengine/internal/document"
)

// segmentRegex parses a single path segment, e.g. `Size` or `Points[2]`.
var segmentRegex = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)(?:\[(\d+)\])?$`)

// Segment is one component of a path: a name with an optional index.
type Segment struct {
	Name  string
	Index int // -1 when no index is present.
}

// HasIndex reports whether the segment carries an explicit index.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

func (s Segment) String() string {
	if s.HasIndex() {
		return fmt.Sprintf("%s[%d]", s.Name, s.Index)
	}
	return s.Name
}

// Kind classifies what a resolved path points at.
type Kind int

const (
	// KindProperty is a direct reference to a whole property.
	KindProperty Kind = iota
	// KindSub is a reference into the interior of a property value.
	KindSub
)

// Path is a resolved reference to a property (or sub-element) of a document
// object. The target object is held by identity, so renames do not
// invalidate a path; the rendered string always reflects current names.
type Path struct {
	obj      *document.Object
	segments []Segment
	relative bool
}

// Parse resolves a user-written path in the context of owner. A leading dot
// or a bare first segment binds the path to owner itself; otherwise a first
// segment naming an object in owner's document selects that object.
func Parse(owner *document.Object, raw string) (Path, error) {
	if owner == nil || owner.Document() == nil {
		return Path{}, fmt.Errorf("path %q: no owner object to resolve against", raw)
	}
	if raw == "" {
		return Path{}, fmt.Errorf("path cannot be empty")
	}

	forceRelative := false
	if strings.HasPrefix(raw, ".") {
		forceRelative = true
		raw = raw[1:]
	}

	parts := strings.Split(raw, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("path %q contains an empty segment", raw)
		}
		m := segmentRegex.FindStringSubmatch(part)
		if m == nil {
			return Path{}, fmt.Errorf("invalid path segment %q", part)
		}
		seg := Segment{Name: m[1], Index: -1}
		if m[2] != "" {
			idx, err := strconv.Atoi(m[2])
			if err != nil {
				return Path{}, fmt.Errorf("invalid index in segment %q: %w", part, err)
			}
			seg.Index = idx
		}
		segments = append(segments, seg)
	}

	// A first segment naming a sibling object selects it, but only when a
	// property segment follows; a one-segment path is always a property of
	// the owner.
	if !forceRelative && len(segments) >= 2 && !segments[0].HasIndex() {
		if obj, ok := owner.Document().Object(segments[0].Name); ok {
			return Path{obj: obj, segments: segments[1:]}, nil
		}
	}

	return Path{obj: owner, segments: segments, relative: true}, nil
}

// New builds a path directly from a resolved object and segments. Used by
// the expression layer when it has already resolved a traversal.
func New(obj *document.Object, segments []Segment) Path {
	segs := make([]Segment, len(segments))
	copy(segs, segments)
	return Path{obj: obj, segments: segs}
}

// IsEmpty reports whether the path is the zero value.
func (p Path) IsEmpty() bool {
	return p.obj == nil
}

// DocumentObject returns the object the path resolves into, or nil when the
// object is no longer part of its document.
func (p Path) DocumentObject() *document.Object {
	if p.obj == nil || p.obj.Document() == nil {
		return nil
	}
	cur, ok := p.obj.Document().Object(p.obj.Name())
	if !ok || cur != p.obj {
		return nil
	}
	return p.obj
}

// PropertyName returns the name of the property the path addresses.
func (p Path) PropertyName() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0].Name
}

// Segments returns a copy of the path's segments.
func (p Path) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Property resolves the path to its target property. The kind reports
// whether the path addresses the whole property or an interior element.
func (p Path) Property() (*document.Property, Kind) {
	obj := p.DocumentObject()
	if obj == nil || len(p.segments) == 0 {
		return nil, KindProperty
	}
	prop, ok := obj.Property(p.segments[0].Name)
	if !ok {
		return nil, KindProperty
	}
	if len(p.segments) == 1 && !p.segments[0].HasIndex() {
		return prop, KindProperty
	}
	return prop, KindSub
}

// Canonical returns the equality-normalized form of the path: the object is
// always named explicitly. Canonicalization is idempotent.
func (p Path) Canonical() Path {
	c := p
	c.relative = false
	return c
}

// String renders the path. Relative (user-form) paths render without the
// object prefix; canonical paths always include it.
func (p Path) String() string {
	var sb strings.Builder
	if !p.relative {
		if p.obj != nil {
			sb.WriteString(p.obj.Name())
		} else {
			sb.WriteString("?")
		}
	}
	for i, seg := range p.segments {
		if i > 0 || !p.relative {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.String())
	}
	return sb.String()
}

// Same reports whether two paths name the same location.
func (p Path) Same(other Path) bool {
	return p.Canonical().String() == other.Canonical().String()
}

// ResolveErrorString explains why the path does not resolve to a property.
func (p Path) ResolveErrorString() string {
	if p.obj == nil {
		return "path is empty"
	}
	obj := p.DocumentObject()
	if obj == nil {
		return fmt.Sprintf("cannot resolve object %q", p.obj.Name())
	}
	if len(p.segments) == 0 {
		return fmt.Sprintf("path into %s names no property", obj.FullName())
	}
	if _, ok := obj.Property(p.segments[0].Name); !ok {
		return fmt.Sprintf("no property %q on %s", p.segments[0].Name, obj.FullName())
	}
	return ""
}

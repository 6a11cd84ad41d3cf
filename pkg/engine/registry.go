package engine

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/joshuapare/vnkit/pkg/types"
)

// Registry is a closed set of codecs.
type Registry struct {
	byTag map[Tag]Codec
	byExt map[string]Codec
}

// NewRegistry indexes codecs by tag and extension. Duplicate tags are an
// error; for a shared extension the first codec wins.
func NewRegistry(codecs ...Codec) (*Registry, error) {
	r := &Registry{byTag: make(map[Tag]Codec), byExt: make(map[string]Codec)}
	for _, c := range codecs {
		if _, dup := r.byTag[c.Tag()]; dup {
			return nil, types.FormatErr("registry", "duplicate engine tag %q", c.Tag())
		}
		r.byTag[c.Tag()] = c
		for _, ext := range c.Extensions() {
			ext = strings.ToLower(ext)
			if _, taken := r.byExt[ext]; !taken {
				r.byExt[ext] = c
			}
		}
	}
	return r, nil
}

// ByTag returns the codec for tag.
func (r *Registry) ByTag(tag Tag) (Codec, error) {
	c, ok := r.byTag[Tag(strings.ToLower(string(tag)))]
	if !ok {
		return nil, types.UnsupportedErr("registry", "no engine %q", tag)
	}
	return c, nil
}

// ByExtension returns the codec claiming path's extension.
func (r *Registry) ByExtension(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	c, ok := r.byExt[ext]
	if !ok {
		return nil, types.UnsupportedErr("registry", "no engine for extension %q", ext)
	}
	return c, nil
}

// Sniff returns the first codec, in tag order, recognizing head.
func (r *Registry) Sniff(head []byte) (Codec, bool) {
	for _, t := range r.Tags() {
		if s, ok := r.byTag[t].(Sniffer); ok && s.Sniff(head) {
			return r.byTag[t], true
		}
	}
	return nil, false
}

// Resolve picks a codec by explicit tag, falling back to path's extension.
func (r *Registry) Resolve(tag Tag, path string) (Codec, error) {
	if tag != "" {
		return r.ByTag(tag)
	}
	return r.ByExtension(path)
}

// Tags lists registered tags in sorted order.
func (r *Registry) Tags() []Tag {
	out := make([]Tag, 0, len(r.byTag))
	for t := range r.byTag {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

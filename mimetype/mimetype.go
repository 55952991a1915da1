// Package mimetype holds the closed set of content types a fragment may have,
// and which of them each type may be served as.
package mimetype

import (
	"mime"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// The supported base types.
const (
	TextPlain    = "text/plain"
	TextMarkdown = "text/markdown"
	TextHTML     = "text/html"
	JSON         = "application/json"
	PNG          = "image/png"
	JPEG         = "image/jpeg"
	WebP         = "image/webp"
	GIF          = "image/gif"
)

// Base strips any parameters from the MIME type t and returns the lower
// cased "type/subtype".
func Base(t string) (string, error) {
	if strings.TrimSpace(t) == "" {
		return "", errors.New("empty media type")
	}
	base, _, err := mime.ParseMediaType(t)
	if err != nil && err != mime.ErrInvalidMediaParameter {
		return "", errors.Wrapf(err, "media type %q", t)
	}
	if !strings.Contains(base, "/") {
		return "", errors.Errorf("media type %q has no subtype", t)
	}
	return base, nil
}

// IsText reports whether the top-level type of t is "text".
func IsText(t string) bool {
	base, err := Base(t)
	return err == nil && strings.HasPrefix(base, "text/")
}

// A Registry maps each supported base type to the ordered list of base types
// it may be converted into. A registry is never changed after it is made, so
// it may be shared freely.
type Registry struct {
	targets    map[string][]string
	extensions map[string]string
	order      []string
}

// NewRegistry makes a registry from the compatibility table and the
// extension table. Every type is made compatible with itself, listed first.
func NewRegistry(table map[string][]string, extensions map[string]string) *Registry {
	r := &Registry{
		targets:    make(map[string][]string, len(table)),
		extensions: make(map[string]string, len(extensions)),
	}
	for source, targets := range table {
		list := []string{source}
		for _, t := range targets {
			if t != source {
				list = append(list, t)
			}
		}
		r.targets[source] = list
		r.order = append(r.order, source)
	}
	sort.Strings(r.order)
	for ext, t := range extensions {
		r.extensions[strings.ToLower(ext)] = t
	}
	return r
}

// Supported reports whether the base type of t is in the registry.
func (r *Registry) Supported(t string) bool {
	base, err := Base(t)
	if err != nil {
		return false
	}
	_, ok := r.targets[base]
	return ok
}

// Compatible returns the base types t may be served as, itself first. It
// returns nil for an unsupported type. The caller may modify the result.
func (r *Registry) Compatible(t string) []string {
	base, err := Base(t)
	if err != nil {
		return nil
	}
	list := r.targets[base]
	if list == nil {
		return nil
	}
	result := make([]string, len(list))
	copy(result, list)
	return result
}

// ForHint maps a format hint to a base type. The hint is either a file
// extension, with or without the leading dot, or a MIME type. An unknown
// extension gives "".
func (r *Registry) ForHint(hint string) string {
	if strings.Contains(hint, "/") {
		base, err := Base(hint)
		if err != nil {
			return ""
		}
		return base
	}
	return r.extensions[strings.ToLower(strings.TrimPrefix(hint, "."))]
}

// Types lists the supported base types in sorted order.
func (r *Registry) Types() []string {
	result := make([]string, len(r.order))
	copy(result, r.order)
	return result
}

var images = []string{PNG, JPEG, WebP, GIF}

var defaultRegistry = NewRegistry(
	map[string][]string{
		TextPlain:    {TextPlain},
		TextMarkdown: {TextMarkdown, TextHTML, TextPlain},
		TextHTML:     {TextHTML, TextPlain},
		JSON:         {JSON, TextPlain},
		PNG:          images,
		JPEG:         images,
		WebP:         images,
		GIF:          images,
	},
	map[string]string{
		"txt":  TextPlain,
		"md":   TextMarkdown,
		"html": TextHTML,
		"json": JSON,
		"png":  PNG,
		"jpg":  JPEG,
		"jpeg": JPEG,
		"webp": WebP,
		"gif":  GIF,
	})

// Default returns the registry of the types the server supports.
func Default() *Registry {
	return defaultRegistry
}

package mimetype

import (
	"fmt"
	"testing"
)

func TestBase(t *testing.T) {
	var table = []struct {
		input  string
		output string
		err    bool
	}{
		{"text/plain", "text/plain", false},
		{"text/plain; charset=utf-8", "text/plain", false},
		{"Text/HTML ; charset=UTF-8", "text/html", false},
		{"text/plain; charset", "text/plain", false},
		{"application/json", "application/json", false},
		{"", "", true},
		{"text", "", true},
		{"/", "", true},
		{";;", "", true},
	}
	for _, test := range table {
		base, err := Base(test.input)
		if base != test.output || (err != nil) != test.err {
			t.Errorf("Base(%q) = (%q, %v), expected %q, err=%v", test.input, base, err, test.output, test.err)
		}
	}
}

func TestIsText(t *testing.T) {
	var table = []struct {
		input  string
		output bool
	}{
		{"text/plain", true},
		{"text/markdown; charset=utf-8", true},
		{"application/json", false},
		{"image/png", false},
		{"textual/plain", false},
		{"", false},
	}
	for _, test := range table {
		if IsText(test.input) != test.output {
			t.Errorf("IsText(%q) != %v", test.input, test.output)
		}
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	var table = []struct {
		input     string
		supported bool
		targets   string
	}{
		{"text/plain", true, "[text/plain]"},
		{"text/plain; charset=utf-8", true, "[text/plain]"},
		{"text/markdown", true, "[text/markdown text/html text/plain]"},
		{"text/html", true, "[text/html text/plain]"},
		{"application/json", true, "[application/json text/plain]"},
		{"image/png", true, "[image/png image/jpeg image/webp image/gif]"},
		{"image/jpeg", true, "[image/jpeg image/png image/webp image/gif]"},
		{"image/webp", true, "[image/webp image/png image/jpeg image/gif]"},
		{"image/gif", true, "[image/gif image/png image/jpeg image/webp]"},
		{"application/pdf", false, "[]"},
		{"image/svg+xml", false, "[]"},
		{"nonsense", false, "[]"},
	}
	for _, test := range table {
		if r.Supported(test.input) != test.supported {
			t.Errorf("Supported(%q) != %v", test.input, test.supported)
		}
		if got := fmt.Sprint(r.Compatible(test.input)); got != test.targets {
			t.Errorf("Compatible(%q) = %s, expected %s", test.input, got, test.targets)
		}
	}
}

func TestCompatibleIncludesSelf(t *testing.T) {
	r := Default()
	for _, typ := range r.Types() {
		list := r.Compatible(typ)
		if len(list) == 0 || list[0] != typ {
			t.Errorf("Compatible(%s) = %v, does not start with itself", typ, list)
		}
		if IsText(typ) && typ != TextPlain && !contains(list, TextPlain) {
			t.Errorf("Compatible(%s) = %v, missing text/plain", typ, list)
		}
	}
	// the result is a copy
	list := r.Compatible(TextHTML)
	list[0] = "mutated"
	if r.Compatible(TextHTML)[0] != TextHTML {
		t.Errorf("Compatible returned the registry's own list")
	}
}

func TestForHint(t *testing.T) {
	r := Default()
	var table = []struct {
		hint   string
		output string
	}{
		{"html", TextHTML},
		{".html", TextHTML},
		{"HTML", TextHTML},
		{"md", TextMarkdown},
		{"txt", TextPlain},
		{"json", JSON},
		{"jpg", JPEG},
		{"jpeg", JPEG},
		{"png", PNG},
		{"webp", WebP},
		{"gif", GIF},
		{"pdf", ""},
		{"", ""},
		{"text/html; charset=utf-8", TextHTML},
		{"application/pdf", "application/pdf"},
	}
	for _, test := range table {
		if got := r.ForHint(test.hint); got != test.output {
			t.Errorf("ForHint(%q) = %q, expected %q", test.hint, got, test.output)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

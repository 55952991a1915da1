package convert

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// markdown is safe to share between goroutines.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

func markdownToHTML(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(data, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// htmlToText returns the text content of an HTML document. Script and style
// elements are dropped and <br> becomes a newline.
func htmlToText(data []byte) ([]byte, error) {
	var out strings.Builder
	z := html.NewTokenizer(bytes.NewReader(data))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return []byte(strings.TrimSpace(out.String())), nil
			}
			return nil, z.Err()
		case html.TextToken:
			if skip == 0 {
				out.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skip++
			case atom.Br:
				out.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			}
		}
	}
}

// Package convert transforms fragment data from one content type into
// another. The conversions are kept in a table keyed by the (source, target)
// pair of base types.
package convert

import (
	"fmt"

	"github.com/ndlib/fragments/mimetype"
	"github.com/ndlib/fragments/util"
)

// A Func transforms data of one content type into another.
type Func func(data []byte) ([]byte, error)

type pair struct {
	from string
	to   string
}

// UnsupportedError is returned when there is no conversion between two
// types.
type UnsupportedError struct {
	From string
	To   string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
}

// Converter holds the conversion table. It is safe for concurrent use.
type Converter struct {
	table map[pair]Func
	gate  util.Gate // limits the number of concurrent image conversions
}

// DefaultImageWorkers is the default number of image conversions allowed to
// run at once.
const DefaultImageWorkers = 4

// New returns a Converter for every pair in the default mimetype registry.
// At most imageWorkers image conversions will run at a time.
func New(imageWorkers int) *Converter {
	c := &Converter{
		table: make(map[pair]Func),
		gate:  util.NewGate(imageWorkers),
	}
	c.add(mimetype.TextMarkdown, mimetype.TextHTML, markdownToHTML)
	c.add(mimetype.TextMarkdown, mimetype.TextPlain, passthrough)
	c.add(mimetype.JSON, mimetype.TextPlain, passthrough)
	c.add(mimetype.TextHTML, mimetype.TextPlain, htmlToText)
	for from := range decoders {
		for to := range encoders {
			if from != to {
				c.add(from, to, c.recode(from, to))
			}
		}
	}
	return c
}

func (c *Converter) add(from, to string, f Func) {
	c.table[pair{from, to}] = f
}

// Supports reports whether data of type from can be converted to type to.
func (c *Converter) Supports(from, to string) bool {
	if from == to {
		return true
	}
	_, ok := c.table[pair{from, to}]
	return ok
}

// Convert transforms data of base type from into base type to. When the
// two types are the same data is returned unchanged. Any pair without a
// conversion gives an *UnsupportedError.
func (c *Converter) Convert(data []byte, from, to string) ([]byte, error) {
	if from == to {
		return data, nil
	}
	f, ok := c.table[pair{from, to}]
	if !ok {
		return nil, &UnsupportedError{From: from, To: to}
	}
	return f(data)
}

// passthrough serves structured text as plain text.
func passthrough(data []byte) ([]byte, error) {
	return data, nil
}

package report

import (
	"regexp"
	"strings"
)

var markupTag = regexp.MustCompile(`<[^>]*>`)

// entities are decoded one after another in this order, so "&amp;lt;"
// becomes "&lt;" and then "<".
var entities = [...]struct{ from, to string }{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
}

// Sanitize turns a rich-text report body into plain text. It removes every tag,
// decodes &nbsp; &amp; &lt; &gt; &quot; and trims surrounding whitespace.
// Nothing else is decoded.
func Sanitize(markup string) string {
	text := markupTag.ReplaceAllString(markup, "")
	for _, e := range entities {
		text = strings.ReplaceAll(text, e.from, e.to)
	}
	return strings.TrimSpace(text)
}

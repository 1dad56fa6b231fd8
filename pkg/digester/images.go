package digester

import (
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// imgPattern captures the full tag, the src URL, the file name and its extension.
var imgPattern = regexp.MustCompile(`<\s*img\s*.*?src\s*=\s*?"(.+?/?\??([^/]*\.(\w{3,4})))".*?\s*?/?>`)

var controlChars = strings.NewReplacer("\r\n", "", "\r", "", "\n", "", "\t", "")

// SplitImages breaks an HTML answer into text and image messages in reading order.
//
// Tags other than <img> are stripped. Empty text parts are not emitted, so an
// image is not necessarily preceded by text. <img> tags the pattern does not
// recognize are dropped along with the other tags.
func SplitImages(input string) []Message {
	var out []Message
	var part strings.Builder
	flush := func() {
		if text := controlChars.Replace(part.String()); text != "" {
			out = append(out, TextMessage(text))
		}
		part.Reset()
	}

	z := html.NewTokenizer(strings.NewReader(input))
	for tt := z.Next(); tt != html.ErrorToken; tt = z.Next() {
		switch tt {
		case html.TextToken:
			part.Write(z.Raw())
		case html.StartTagToken, html.SelfClosingTagToken:
			tag := controlChars.Replace(string(z.Raw()))
			name, _ := z.TagName()
			if string(name) != "img" {
				continue
			}
			m := imgPattern.FindStringSubmatch(tag)
			if m == nil {
				continue
			}
			flush()
			out = append(out, ImageMessage(m[1], m[2], m[3]))
		}
	}
	flush()

	if len(out) == 0 {
		out = append(out, TextMessage(""))
	}

	return out
}

// StripTags removes every HTML tag and comment, leaving text content untouched.
func StripTags(input string) string {
	return stripTags(input)
}

func stripTags(input string, keep ...string) string {
	if !strings.Contains(input, "<") {
		return input
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(input))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			raw := string(z.Raw())
			name, _ := z.TagName()
			if slices.Contains(keep, string(name)) {
				b.WriteString(raw)
			}
		}
	}
}

package mail

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxReparseDepth bounds how many self-closing <script/> or <style/> tags
// deep the trailing markup is still rendered.
const maxReparseDepth = 8

// PlainText renders the readable text of an HTML fragment. Block elements
// and <br> become line breaks; script and style content is dropped.
func PlainText(source string) string {
	var out bytes.Buffer
	writePlainText(&out, source, 0)
	return tidyLines(out.String())
}

func writePlainText(out *bytes.Buffer, source string, depth int) {
	tokenizer := html.NewTokenizer(strings.NewReader(source))
	skip := 0
	// The tokenizer reads everything after a self-closing script or style
	// tag as raw text up to the matching end tag.
	reparse := false
	for {
		tt := tokenizer.Next()
		trailing := reparse
		reparse = false
		switch tt {
		case html.ErrorToken:
			// io.EOF or malformed input; keep what was read.
			return
		case html.TextToken:
			switch {
			case trailing:
				if depth < maxReparseDepth {
					writePlainText(out, string(tokenizer.Text()), depth+1)
				}
			case skip == 0:
				out.Write(tokenizer.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if tt == html.StartTagToken {
					skip++
				} else if skip == 0 {
					reparse = true
				}
			case atom.Br:
				out.WriteByte('\n')
			case atom.Li:
				out.WriteString("\n- ")
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.H1, atom.H2, atom.H3, atom.H4, atom.Tr, atom.Ul, atom.Ol:
				out.WriteString("\n\n")
			}
		}
	}
}

// tidyLines trims each line and collapses runs of blank lines.
func tidyLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(kept) > 0 {
				kept = append(kept, "")
			}
			blank = true
			continue
		}
		kept = append(kept, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

package engine

// cleanup.go is the text cleanup pipeline: four transforms applied in fixed
// order to the configured output columns only.
//
//  1. Mojibake repair (double-encoded UTF-8-as-Windows-1252)
//  2. HTML entity decoding
//  3. HTML tag stripping
//  4. Whitespace normalization
//
// The full pipeline is idempotent: CleanValue(CleanValue(x)) == CleanValue(x).
// Each step leaves fragments it cannot interpret unchanged instead of
// failing the record.

import (
	stdhtml "html"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// applyCleanup runs the pipeline over the configured columns of a record in
// place. Columns not listed pass through unchanged.
func applyCleanup(rec OutputRecord, cfg CleanupConfig) {
	for _, key := range cfg.Columns {
		if v, ok := rec[key]; ok {
			rec[key] = CleanValue(v)
		}
	}
}

// CleanValue applies the full cleanup pipeline to a single value.
func CleanValue(s string) string {
	s = fixMojibake(s)
	s = decodeEntities(s)
	s = stripTags(s)
	return collapseWhitespace(s)
}

// mojibakeMarkers are lead characters that UTF-8 bytes decode to when a file
// is mistakenly read as Windows-1252 ("Ã©" for "é", "â€™" for "’", ...).
// Plain text essentially never contains them, so their presence gates the
// repair attempt.
var mojibakeMarkers = []string{"Ã", "Â", "â€", "â‚"}

func looksMojibake(s string) bool {
	for _, m := range mojibakeMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// fixMojibake reverses UTF-8 text that was decoded as Windows-1252: encode
// the runes back to their 1252 bytes and reinterpret those bytes as UTF-8.
// The step is repeated while it keeps producing valid UTF-8, which also
// repairs doubly mangled input. Every successful pass strictly shortens the
// string, so the loop terminates; text the encoder cannot represent, or
// whose bytes are not valid UTF-8, is left untouched.
func fixMojibake(s string) string {
	for looksMojibake(s) {
		raw, err := charmap.Windows1252.NewEncoder().String(s)
		if err != nil || raw == s || !utf8.ValidString(raw) {
			break
		}
		s = raw
	}
	return s
}

// decodeEntities decodes numeric and named HTML entities to their literal
// characters, repeating until stable so double-escaped input ("&amp;amp;")
// fully resolves. Each pass strictly shortens the string when it changes
// anything, so the fixpoint is reached quickly.
func decodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	for {
		out := stdhtml.UnescapeString(s)
		if out == s {
			return s
		}
		s = out
	}
}

// stripTags removes HTML markup, keeping inner text and collapsing removed
// tag boundaries to a single space. The tokenizer is tolerant of malformed
// markup; a bare "<" that opens no tag stays literal text.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}

	tok := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch tok.Next() {
		case html.ErrorToken:
			// io.EOF on a string reader; emit what was collected.
			return b.String()
		case html.TextToken:
			b.Write(tok.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken,
			html.CommentToken, html.DoctypeToken:
			b.WriteByte(' ')
		}
	}
}

// collapseWhitespace collapses whitespace runs to single spaces and trims
// the ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

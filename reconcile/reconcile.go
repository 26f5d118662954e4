// Package reconcile implements the catalog reconciliation engine: it places
// translated payloads into Qt Linguist .ts documents, patching existing
// files textually so that everything outside the touched fields round-trips
// byte-for-byte.
package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/tsforge/tsforge/tsfile"
)

// Request is one unit of reconciliation work.
// A request with an empty translation is inert against existing documents:
// it is skipped, not an error. Requests missing context or source are
// always skipped.
type Request struct {
	Context     string `json:"context"`
	Source      string `json:"source"`
	Translation string `json:"translation"`
	Comment     string `json:"comment,omitempty"`
}

// FailedMatch records a request whose context group does not exist in the
// target document. Unmatched requests are collected, never raised.
type FailedMatch struct {
	Context string `json:"context"`
	Source  string `json:"source"`
	Reason  string `json:"reason"`
}

// Engine applies request batches to catalog documents. Failures are owned
// by the most recent Apply call; each call starts with an empty set.
type Engine struct {
	failures []FailedMatch
}

// New returns an engine with no recorded failures.
func New() *Engine {
	return &Engine{}
}

// Failures returns the unmatched requests from the most recent Apply call.
func (e *Engine) Failures() []FailedMatch {
	return e.failures
}

// Apply applies the whole batch to every catalog path and returns the
// per-path count of replaced or inserted entries.
//
// Each document is evaluated against a single snapshot and rewritten at
// most once, only when at least one request changed its content. A write
// failure stops the run; counts for documents already processed are still
// returned, and the caller treats each document's result independently.
func (e *Engine) Apply(paths []string, reqs []Request) (map[string]int, error) {
	e.failures = nil

	results := make(map[string]int, len(paths))
	for _, path := range paths {
		count, err := e.applyToFile(path, reqs)
		results[path] = count
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

func (e *Engine) applyToFile(path string, reqs []Request) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return createFile(path, reqs)
	}
	if err != nil {
		return 0, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	content, count := e.patch(path, string(data), reqs)
	if count > 0 && content != string(data) {
		if err := tsfile.WriteAtomic(path, []byte(content)); err != nil {
			return count, err
		}
	}
	return count, nil
}

// createFile synthesizes a fresh catalog for a path that does not exist.
// Context groups are created on demand, so no request can fail to match;
// empty translations are inserted with the unfinished marker instead of
// being skipped. The first request for a (context, source) pair wins.
func createFile(path string, reqs []Request) (int, error) {
	doc := tsfile.New("")
	count := 0

	for _, r := range reqs {
		if r.Context == "" || r.Source == "" {
			continue
		}
		c := doc.FindOrCreateContext(r.Context)
		if c.Find(r.Source) != nil {
			continue
		}
		c.Append(r.Source, r.Translation, r.Comment)
		count++
	}

	if count == 0 {
		return 0, nil
	}
	return count, doc.WriteFile(path)
}

// patch runs the request batch against the raw document text and returns
// the updated text with the count of replaced or inserted entries.
// The text is rescanned after every splice so later requests see current
// offsets; a request duplicating an earlier insert therefore resolves to
// an unchanged entry instead of a second copy.
func (e *Engine) patch(path, content string, reqs []Request) (string, int) {
	count := 0

	for _, r := range reqs {
		if r.Context == "" || r.Source == "" || r.Translation == "" {
			continue
		}

		next, changed, ok := applyOne(content, r)
		if !ok {
			e.failures = append(e.failures, FailedMatch{
				Context: r.Context,
				Source:  r.Source,
				Reason:  fmt.Sprintf("no context named %q in %s (context matching is exact)", r.Context, path),
			})
			continue
		}
		if changed {
			content = next
			count++
		}
	}

	return content, count
}

var (
	contextRE     = regexp.MustCompile(`(?s)<context\b[^>]*>.*?</context>`)
	nameRE        = regexp.MustCompile(`(?s)<name>(.*?)</name>`)
	messageRE     = regexp.MustCompile(`(?s)<message\b[^>]*>.*?</message>`)
	sourceRE      = regexp.MustCompile(`(?s)<source>(.*?)</source>`)
	translationRE = regexp.MustCompile(`(?s)<translation([^>]*)>(.*?)</translation>`)
	commentRE     = regexp.MustCompile(`(?s)<comment>(.*?)</comment>`)
	unfinishedRE  = regexp.MustCompile(`\s+type="unfinished"`)

	messageIndentRE = regexp.MustCompile(`(?m)^([ \t]*)<message`)
	sourceIndentRE  = regexp.MustCompile(`(?m)^([ \t]*)<source`)
	nameIndentRE    = regexp.MustCompile(`(?m)^([ \t]*)<name`)
)

// applyOne resolves a single request against the document text.
// The third result reports whether the context group was found at all;
// the second whether the document text changed (replaced or inserted).
func applyOne(content string, r Request) (string, bool, bool) {
	cs, ce, ok := findContextSpan(content, r.Context)
	if !ok {
		return content, false, false
	}
	body := content[cs:ce]

	if ms, me, found := findMessageSpan(body, r.Source); found {
		newBody, changed := updateMessage(body, ms, me, r)
		if !changed {
			return content, false, true
		}
		return content[:cs] + newBody + content[ce:], true, true
	}

	return content[:cs] + insertMessage(body, r) + content[ce:], true, true
}

// findContextSpan locates the <context> element whose unescaped <name>
// matches exactly. No fuzzy matching: "Foo" never matches "foo" or "Foo ".
func findContextSpan(content, name string) (int, int, bool) {
	for _, span := range contextRE.FindAllStringIndex(content, -1) {
		m := nameRE.FindStringSubmatch(content[span[0]:span[1]])
		if m != nil && tsfile.Unescape(m[1]) == name {
			return span[0], span[1], true
		}
	}
	return 0, 0, false
}

// findMessageSpan locates, inside one context body, the <message> element
// whose unescaped <source> matches exactly. Scanning never leaves the
// context body, so equal source texts under other contexts are not touched.
func findMessageSpan(body, source string) (int, int, bool) {
	for _, span := range messageRE.FindAllStringIndex(body, -1) {
		m := sourceRE.FindStringSubmatch(body[span[0]:span[1]])
		if m != nil && tsfile.Unescape(m[1]) == source {
			return span[0], span[1], true
		}
	}
	return 0, 0, false
}

// updateMessage rewrites the matched message in place.
// - Translation payloads are compared trimmed; an identical payload leaves
//   the message untouched even if the raw bytes differ.
// - A differing payload is spliced in escaped, and the unfinished marker
//   is dropped from the translation open tag.
// - A supplied, differing comment is updated too; an absent <comment>
//   element is added after the source line.
func updateMessage(body string, ms, me int, r Request) (string, bool) {
	msg := body[ms:me]

	currentTranslation := ""
	trLoc := translationRE.FindStringSubmatchIndex(msg)
	if trLoc != nil {
		currentTranslation = tsfile.Unescape(msg[trLoc[4]:trLoc[5]])
	}

	currentComment := ""
	cmLoc := commentRE.FindStringSubmatchIndex(msg)
	if cmLoc != nil {
		currentComment = tsfile.Unescape(msg[cmLoc[2]:cmLoc[3]])
	}

	sameTranslation := strings.TrimSpace(currentTranslation) == strings.TrimSpace(r.Translation)
	sameComment := r.Comment == "" || currentComment == r.Comment
	if sameTranslation && sameComment {
		return body, false
	}

	if !sameTranslation {
		payload := tsfile.Escape(r.Translation)
		if trLoc != nil {
			attrs := unfinishedRE.ReplaceAllString(msg[trLoc[2]:trLoc[3]], "")
			msg = msg[:trLoc[0]] + "<translation" + attrs + ">" + payload + "</translation>" + msg[trLoc[1]:]
		} else {
			msg = insertAfterSource(msg, "<translation>"+payload+"</translation>")
		}
		// The comment span may have shifted.
		cmLoc = commentRE.FindStringSubmatchIndex(msg)
	}

	if !sameComment {
		element := "<comment>" + tsfile.Escape(r.Comment) + "</comment>"
		if cmLoc != nil {
			msg = msg[:cmLoc[0]] + element + msg[cmLoc[1]:]
		} else {
			msg = insertAfterSource(msg, element)
		}
	}

	return body[:ms] + msg + body[me:], true
}

// insertAfterSource splices an element onto its own line right below the
// </source> line, reusing the source line's indentation.
func insertAfterSource(msg, element string) string {
	loc := sourceRE.FindStringIndex(msg)
	if loc == nil {
		return msg
	}

	rest := strings.Index(msg[loc[1]:], "\n")
	if rest < 0 {
		// Single-line message layout.
		return msg[:loc[1]] + element + msg[loc[1]:]
	}
	pos := loc[1] + rest + 1
	return msg[:pos] + lineIndent(msg, loc[0]) + element + "\n" + msg[pos:]
}

// insertMessage appends a new message block just before the context's
// closing tag, indented like its sibling messages.
func insertMessage(body string, r Request) string {
	msgIndent, innerIndent := siblingIndents(body)

	var b strings.Builder
	b.WriteString(msgIndent + "<message>\n")
	b.WriteString(innerIndent + "<source>" + tsfile.Escape(r.Source) + "</source>\n")
	if r.Comment != "" {
		b.WriteString(innerIndent + "<comment>" + tsfile.Escape(r.Comment) + "</comment>\n")
	}
	b.WriteString(innerIndent + "<translation>" + tsfile.Escape(r.Translation) + "</translation>\n")
	b.WriteString(msgIndent + "</message>\n")

	closeTag := len(body) - len("</context>")
	lineStart := strings.LastIndexByte(body[:closeTag], '\n') + 1
	if strings.TrimSpace(body[lineStart:closeTag]) == "" {
		// Closing tag sits alone on its line; insert above it.
		return body[:lineStart] + b.String() + body[lineStart:]
	}
	return body[:closeTag] + b.String() + body[closeTag:]
}

// siblingIndents reports the indentation of the context's message blocks
// and their children, falling back to the lupdate layout of four and
// eight spaces for contexts that have no messages yet.
func siblingIndents(body string) (msgIndent, innerIndent string) {
	msgIndent, innerIndent = "    ", "        "

	if m := messageIndentRE.FindAllStringSubmatch(body, -1); m != nil {
		msgIndent = m[len(m)-1][1]
		innerIndent = msgIndent + "    "
	} else if m := nameIndentRE.FindStringSubmatch(body); m != nil {
		msgIndent = m[1]
		innerIndent = msgIndent + "    "
	}
	if m := sourceIndentRE.FindAllStringSubmatch(body, -1); m != nil {
		innerIndent = m[len(m)-1][1]
	}
	return msgIndent, innerIndent
}

// lineIndent returns the whitespace prefix of the line containing pos.
func lineIndent(s string, pos int) string {
	start := strings.LastIndexByte(s[:pos], '\n') + 1
	end := start
	for end < len(s) && (s[end] == ' ' || s[end] == '\t') {
		end++
	}
	return s[start:end]
}

// Package tsfile implements reading and writing of Qt Linguist .ts
// translation catalogs.
//
// A catalog is an XML document with a <TS> root holding <context> groups;
// each group has a <name> and a list of <message> elements carrying
// <source>, optional <comment>, and <translation>. A translation may be
// flagged incomplete with the type="unfinished" attribute.
//
// Parsing reflects ground truth: structural XML errors propagate to the
// caller, and messages without source text are skipped (they cannot be
// matched or edited). Marshalling emits the lupdate layout and is used for
// synthesizing fresh catalogs; existing catalogs are never round-tripped
// through this model, so untouched formatting is preserved by the callers
// that patch them textually.
package tsfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotExist reports that a catalog path does not exist. Errors returned
// by ParseFile for missing paths satisfy errors.Is(err, ErrNotExist).
var ErrNotExist = fs.ErrNotExist

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// Message is a single translatable entry within a context group.
type Message struct {
	// Source is the untranslated text. Never empty for parsed messages.
	Source string
	// Translation is the translated payload. May be empty.
	Translation string
	// Comment is the disambiguation comment, if any.
	Comment string
	// Unfinished reflects the type="unfinished" marker on <translation>.
	Unfinished bool
}

// Translated reports whether the message carries a completed translation:
// a payload that is present, not marked unfinished, and non-blank after
// trimming.
func (m *Message) Translated() bool {
	return !m.Unfinished && strings.TrimSpace(m.Translation) != ""
}

// Context is a named group of messages. The name is an opaque label,
// commonly a qualified class name.
type Context struct {
	Name     string
	Messages []*Message
}

// Find returns the message with the given source text, or nil.
// Matching is exact (case- and whitespace-sensitive).
func (c *Context) Find(source string) *Message {
	for _, m := range c.Messages {
		if m.Source == source {
			return m
		}
	}
	return nil
}

// Append adds a new message at the end of the group. An empty translation
// marks the message unfinished instead of storing empty payload text.
func (c *Context) Append(source, translation, comment string) *Message {
	m := &Message{
		Source:      source,
		Translation: translation,
		Comment:     comment,
		Unfinished:  translation == "",
	}
	c.Messages = append(c.Messages, m)
	return m
}

// Entry is a flat view of one message joined with its context name.
type Entry struct {
	Context     string `json:"context"`
	Source      string `json:"source"`
	Translation string `json:"translation"`
	Comment     string `json:"comment,omitempty"`
	Translated  bool   `json:"translated"`
}

// File represents a parsed or synthesized .ts catalog.
type File struct {
	// Version is the TS format version attribute ("2.1" for new files).
	Version string
	// Language is the target locale attribute. May be empty.
	Language string
	// Contexts in document order.
	Contexts []*Context

	byName map[string]int
}

// New creates an empty catalog for the given locale code (may be empty).
func New(language string) *File {
	return &File{
		Version:  "2.1",
		Language: language,
		byName:   make(map[string]int),
	}
}

// Context returns the context group with the given name, or nil.
func (f *File) Context(name string) *Context {
	idx, ok := f.byName[name]
	if !ok {
		return nil
	}
	return f.Contexts[idx]
}

// FindOrCreateContext returns the named group, appending a new empty one if
// the catalog does not have it yet. Creation order is preserved.
func (f *File) FindOrCreateContext(name string) *Context {
	if c := f.Context(name); c != nil {
		return c
	}
	c := &Context{Name: name}
	f.addContext(c)
	return c
}

func (f *File) addContext(c *Context) {
	if f.byName == nil {
		f.byName = make(map[string]int)
	}
	f.byName[c.Name] = len(f.Contexts)
	f.Contexts = append(f.Contexts, c)
}

// ContextNames returns all group names in document order.
func (f *File) ContextNames() []string {
	names := make([]string, 0, len(f.Contexts))
	for _, c := range f.Contexts {
		names = append(names, c.Name)
	}
	return names
}

// Find returns the message under the given context with the given source
// text, or nil when either the group or the entry is absent.
func (f *File) Find(context, source string) *Message {
	c := f.Context(context)
	if c == nil {
		return nil
	}
	return c.Find(source)
}

// Entries returns a flat view of every message in document order.
func (f *File) Entries() []Entry {
	var entries []Entry
	for _, c := range f.Contexts {
		for _, m := range c.Messages {
			entries = append(entries, Entry{
				Context:     c.Name,
				Source:      m.Source,
				Translation: m.Translation,
				Comment:     m.Comment,
				Translated:  m.Translated(),
			})
		}
	}
	return entries
}

// Untranslated returns the flat view filtered to incomplete messages.
func (f *File) Untranslated() []Entry {
	var entries []Entry
	for _, e := range f.Entries() {
		if !e.Translated {
			entries = append(entries, e)
		}
	}
	return entries
}

// Stats returns (total, translated, untranslated) message counts.
func (f *File) Stats() (total, translated, untranslated int) {
	for _, c := range f.Contexts {
		for _, m := range c.Messages {
			total++
			if m.Translated() {
				translated++
			} else {
				untranslated++
			}
		}
	}
	return
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseFile reads and parses a catalog. A missing path yields an error
// satisfying errors.Is(err, ErrNotExist).
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return f, nil
}

// Parse parses raw .ts catalog bytes.
func Parse(data []byte) (*File, error) {
	f := &File{byName: make(map[string]int)}

	dec := xml.NewDecoder(bytes.NewReader(data))
	inTS := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "TS" {
				inTS = true
				for _, attr := range t.Attr {
					switch attr.Name.Local {
					case "version":
						f.Version = attr.Value
					case "language":
						f.Language = attr.Value
					}
				}
				continue
			}
			if !inTS {
				continue
			}
			if t.Name.Local == "context" {
				c, err := parseContextElement(dec)
				if err != nil {
					return nil, err
				}
				f.addContext(c)
			} else {
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}

		case xml.EndElement:
			if t.Name.Local == "TS" {
				inTS = false
			}
		}
	}

	return f, nil
}

// parseContextElement consumes a <context> element already opened.
func parseContextElement(dec *xml.Decoder) (*Context, error) {
	c := &Context{}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading <context>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				var inner strings.Builder
				if err := readElementText(dec, &inner); err != nil {
					return nil, fmt.Errorf("reading <name>: %w", err)
				}
				c.Name = inner.String()
			case "message":
				m, err := parseMessageElement(dec)
				if err != nil {
					return nil, err
				}
				// Messages with no source cannot be matched or edited.
				if m.Source != "" {
					c.Messages = append(c.Messages, m)
				}
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return c, nil
		}
	}
}

// parseMessageElement consumes a <message> element already opened.
func parseMessageElement(dec *xml.Decoder) (*Message, error) {
	m := &Message{}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading <message>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "source":
				var inner strings.Builder
				if err := readElementText(dec, &inner); err != nil {
					return nil, fmt.Errorf("reading <source>: %w", err)
				}
				m.Source = inner.String()
			case "translation":
				for _, attr := range t.Attr {
					if attr.Name.Local == "type" && attr.Value == "unfinished" {
						m.Unfinished = true
					}
				}
				var inner strings.Builder
				if err := readElementText(dec, &inner); err != nil {
					return nil, fmt.Errorf("reading <translation>: %w", err)
				}
				m.Translation = inner.String()
			case "comment":
				var inner strings.Builder
				if err := readElementText(dec, &inner); err != nil {
					return nil, fmt.Errorf("reading <comment>: %w", err)
				}
				m.Comment = inner.String()
			default:
				// location, translatorcomment, extracomment, …
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return m, nil
		}
	}
}

// readElementText reads the full inner content of an element until its
// matching close tag, reconstructing nested child elements (e.g.
// <numerusform>, <byte/>) as raw text so they survive the round trip
// through the flat string model.
func readElementText(dec *xml.Decoder, b *strings.Builder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.WriteString(string(t))
		case xml.StartElement:
			depth++
			b.WriteString("<")
			b.WriteString(t.Name.Local)
			for _, attr := range t.Attr {
				b.WriteString(fmt.Sprintf(` %s="%s"`, attr.Name.Local, attr.Value))
			}
			b.WriteString(">")
		case xml.EndElement:
			depth--
			if depth > 0 {
				b.WriteString("</")
				b.WriteString(t.Name.Local)
				b.WriteString(">")
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// String marshals the catalog in the layout lupdate produces: XML
// declaration, TS doctype, context groups indented by four spaces per level.
func (f *File) String() string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<!DOCTYPE TS>\n")

	b.WriteString("<TS")
	if f.Version != "" {
		b.WriteString(fmt.Sprintf(" version=%q", f.Version))
	}
	if f.Language != "" {
		b.WriteString(fmt.Sprintf(" language=%q", f.Language))
	}
	b.WriteString(">\n")

	for _, c := range f.Contexts {
		b.WriteString("<context>\n")
		b.WriteString(fmt.Sprintf("    <name>%s</name>\n", Escape(c.Name)))
		for _, m := range c.Messages {
			b.WriteString("    <message>\n")
			b.WriteString(fmt.Sprintf("        <source>%s</source>\n", Escape(m.Source)))
			if m.Comment != "" {
				b.WriteString(fmt.Sprintf("        <comment>%s</comment>\n", Escape(m.Comment)))
			}
			if m.Unfinished {
				b.WriteString(fmt.Sprintf("        <translation type=\"unfinished\">%s</translation>\n", Escape(m.Translation)))
			} else {
				b.WriteString(fmt.Sprintf("        <translation>%s</translation>\n", Escape(m.Translation)))
			}
			b.WriteString("    </message>\n")
		}
		b.WriteString("</context>\n")
	}

	b.WriteString("</TS>\n")
	return b.String()
}

// WriteFile persists the catalog through WriteAtomic.
func (f *File) WriteFile(path string) error {
	return WriteAtomic(path, []byte(f.String()))
}

// WriteAtomic writes data to path through a temporary file in the same
// directory followed by a rename, so a crash mid-write leaves the original
// untouched. The temporary file is removed on any failure.
func WriteAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Text escaping
// ---------------------------------------------------------------------------

var (
	// lupdate escapes only these three in element text; quotes stay literal.
	escaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	unescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// Escape encodes text content for embedding in a .ts document.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape reverses Escape for raw element content pulled out of a .ts
// document without going through an XML decoder.
func Unescape(s string) string {
	return unescaper.Replace(s)
}

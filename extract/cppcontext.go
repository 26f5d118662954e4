package extract

import (
	"context"
	"path"
	"regexp"
	"strings"
)

// ReadFileFunc supplies file content to the resolver. Extraction wires it
// to read committed content at the tip of the scanned range; tests supply
// fixtures.
type ReadFileFunc func(ctx context.Context, file string) (string, error)

// Resolver turns a source file path into the translation context a bare
// tr() call would compile under: the enclosing class, optionally prefixed
// by its innermost namespaces.
//
// It is heuristic by design. Pattern scans approximate the class and scope
// declarations, misattribution is possible, and every failure in the chain
// degrades silently to the file's base name. Results are memoized for the
// lifetime of one extraction run; a new run gets a new resolver.
type Resolver struct {
	read ReadFileFunc
	memo map[string]string
}

// NewResolver returns a resolver with an empty cache.
func NewResolver(read ReadFileFunc) *Resolver {
	return &Resolver{read: read, memo: make(map[string]string)}
}

// Resolve returns the context label for file, computing it on first use.
func (r *Resolver) Resolve(ctx context.Context, file string) string {
	if label, ok := r.memo[file]; ok {
		return label
	}
	label := r.resolve(ctx, file)
	r.memo[file] = label
	return label
}

// scopeStoplist holds framework and convention namespaces that never name
// a translation context.
var scopeStoplist = map[string]bool{
	"std":       true,
	"Qt":        true,
	"boost":     true,
	"detail":    true,
	"internal":  true,
	"anonymous": true,
}

// declForImpl lists the declaration extensions probed for implementation
// files; the header usually carries the class and namespace declarations.
var declForImpl = map[string][]string{
	".cpp": {".h", ".hpp"},
	".cc":  {".h", ".hpp"},
	".cxx": {".h", ".hpp"},
}

var (
	classRE     = regexp.MustCompile(`(?m)^\s*class\s+(?:\w+\s+)?(\w+)\s*(?::[^{;\n]*)?(?:\{.*)?$`)
	namespaceRE = regexp.MustCompile(`\bnamespace\s+([A-Za-z_]\w*(?:\s*::\s*[A-Za-z_]\w*)*)\s*\{`)
	includeRE   = regexp.MustCompile(`(?m)^\s*#\s*include\s+"([^"]+)"`)
)

func (r *Resolver) resolve(ctx context.Context, file string) string {
	fallback := stem(file)

	content, scanned := r.readPreferred(ctx, file)
	if content == "" {
		return fallback
	}

	typeName := className(content)
	if typeName == "" {
		return fallback
	}

	segments := scopeSegments(scopeNames(content))
	for i, seg := range segments {
		if macroLike(seg) {
			segments[i] = r.resolveMacro(ctx, seg, content, scanned)
		}
	}
	if len(segments) > 0 {
		return strings.Join(segments, "::") + "::" + typeName
	}
	return typeName
}

// readPreferred returns the content to scan and the path it came from:
// the paired declaration file when one exists, otherwise the file itself.
func (r *Resolver) readPreferred(ctx context.Context, file string) (content, scanned string) {
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)

	for _, declExt := range declForImpl[ext] {
		if c, err := r.read(ctx, base+declExt); err == nil && c != "" {
			return c, base + declExt
		}
	}
	if c, err := r.read(ctx, file); err == nil {
		return c, file
	}
	return "", ""
}

// className returns the first class declared in the content, tolerating an
// export macro between the keyword and the name and an inheritance clause
// after it. Forward declarations (trailing semicolon) do not count.
func className(content string) string {
	m := classRE.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return m[1]
}

// scopeNames collects namespace names in declaration order, splitting
// C++17 nested forms (namespace a::b) and dropping stoplisted names.
func scopeNames(content string) []string {
	var names []string
	for _, m := range namespaceRE.FindAllStringSubmatch(content, -1) {
		for _, seg := range strings.Split(m[1], "::") {
			seg = strings.TrimSpace(seg)
			if seg == "" || scopeStoplist[seg] {
				continue
			}
			names = append(names, seg)
		}
	}
	return names
}

// scopeSegments selects the innermost two scope names; deeper nesting is
// deliberately truncated.
func scopeSegments(names []string) []string {
	switch {
	case len(names) >= 2:
		return names[len(names)-2:]
	case len(names) == 1:
		return names
	}
	return nil
}

// macroLike reports whether a scope token smells like a preprocessor alias
// rather than a plain namespace name.
func macroLike(token string) bool {
	return token == strings.ToUpper(token) || strings.Contains(token, "_")
}

// resolveMacro maps a macro-like scope token to its literal replacement:
// first through a local #define, then through #defines in locally
// referenced includes whose names hint at namespace definitions. An
// unresolved token is kept verbatim.
func (r *Resolver) resolveMacro(ctx context.Context, token, content, scanned string) string {
	defineRE := regexp.MustCompile(`(?m)^\s*#\s*define\s+` + regexp.QuoteMeta(token) + `\s+(\w+)`)

	if m := defineRE.FindStringSubmatch(content); m != nil {
		return m[1]
	}

	dir := path.Dir(scanned)
	for _, inc := range includeRE.FindAllStringSubmatch(content, -1) {
		if !namespaceHeaderHint(inc[1], token) {
			continue
		}
		header, err := r.read(ctx, path.Join(dir, inc[1]))
		if err != nil {
			continue
		}
		if m := defineRE.FindStringSubmatch(header); m != nil {
			return m[1]
		}
	}
	return token
}

// namespaceHeaderHint reports whether an include target looks like it
// defines namespace aliases: its name mentions namespaces or scopes, or
// matches the token itself.
func namespaceHeaderHint(include, token string) bool {
	base := strings.ToLower(strings.TrimSuffix(path.Base(include), path.Ext(include)))
	return strings.Contains(base, "namespace") ||
		strings.Contains(base, "scope") ||
		base == strings.ToLower(token)
}

// stem returns the file name without directory or extension, the
// last-resort context label.
func stem(file string) string {
	base := path.Base(file)
	return strings.TrimSuffix(base, path.Ext(base))
}

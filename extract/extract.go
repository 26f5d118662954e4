// Package extract scans git history for newly added Qt translation calls
// and turns them into review candidates.
//
// The collector walks a commit range newest-first, diffs every commit
// against its first parent, and runs ordered call-pattern matchers over the
// added lines of files selected by glob filters. Explicit-context calls
// (QCoreApplication::translate) carry their own context; bare tr() calls
// get one from the Resolver, which reads committed file content at the tip
// of the scanned range.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"regexp"
	"strings"
)

// MaxCommits bounds the range walk so pathological ranges (an empty spec,
// an entire-history spec) cannot stall a run.
const MaxCommits = 200

// Candidate is one extracted translatable string pending review.
// Candidates are deduplicated by (context, source) within a run and are
// not persisted anywhere.
type Candidate struct {
	Context string `json:"context"`
	Source  string `json:"source"`
	Comment string `json:"comment,omitempty"`
	File    string `json:"file"`
	Line    string `json:"line"`
}

// Commit identifies one commit and its parent hashes.
type Commit struct {
	SHA     string
	Parents []string
}

// Git abstracts the read-only repository queries the collector needs.
type Git interface {
	// ListCommits enumerates up to limit commits in the range, newest first.
	ListCommits(ctx context.Context, rangeSpec string, limit int) ([]Commit, error)
	// CommitPatch returns the unified diff of a commit against its first
	// parent, or against the empty tree for a root commit.
	CommitPatch(ctx context.Context, c Commit) (string, error)
	// ShowFile returns a file's content at the given revision.
	ShowFile(ctx context.Context, rev, file string) (string, error)
}

// CLI implements Git by shelling out to the git binary.
type CLI struct {
	RepoDir string
}

func (g *CLI) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.RepoDir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %s: %w",
			strings.Join(args, " "), strings.TrimSpace(stderr.String()), err)
	}
	return stdout.String(), nil
}

func (g *CLI) ListCommits(ctx context.Context, rangeSpec string, limit int) ([]Commit, error) {
	out, err := g.run(ctx, "rev-list", fmt.Sprintf("--max-count=%d", limit), "--parents", rangeSpec)
	if err != nil {
		return nil, err
	}

	var commits []Commit
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		commits = append(commits, Commit{SHA: fields[0], Parents: fields[1:]})
	}
	return commits, nil
}

func (g *CLI) CommitPatch(ctx context.Context, c Commit) (string, error) {
	if len(c.Parents) == 0 {
		return g.run(ctx, "diff-tree", "--root", "--no-commit-id", "--no-color", "-p", c.SHA)
	}
	return g.run(ctx, "diff", "--no-color", c.Parents[0], c.SHA)
}

func (g *CLI) ShowFile(ctx context.Context, rev, file string) (string, error) {
	return g.run(ctx, "show", rev+":"+file)
}

// Collector extracts candidates from a repository's history.
type Collector struct {
	Git Git
}

// NewCollector returns a collector backed by the git binary running in
// repoDir.
func NewCollector(repoDir string) *Collector {
	return &Collector{Git: &CLI{RepoDir: repoDir}}
}

// Collect walks the commit range and returns the deduplicated candidates
// found on added lines of files matching the glob patterns.
//
// An invalid range surfaces as an error; everything below that is
// best-effort: unreadable commit diffs and unresolvable contexts degrade
// silently and never abort the scan. The context resolver cache lives for
// exactly one Collect call.
func (c *Collector) Collect(ctx context.Context, rangeSpec string, patterns []string) ([]Candidate, error) {
	commits, err := c.Git.ListCommits(ctx, rangeSpec, MaxCommits)
	if err != nil {
		return nil, fmt.Errorf("listing commits for %q: %w", rangeSpec, err)
	}

	tip := rangeTip(rangeSpec)
	resolver := NewResolver(func(ctx context.Context, file string) (string, error) {
		return c.Git.ShowFile(ctx, tip, file)
	})

	type key struct{ context, source string }
	seen := make(map[key]bool)
	var candidates []Candidate

	for _, commit := range commits {
		patch, err := c.Git.CommitPatch(ctx, commit)
		if err != nil {
			continue
		}
		for _, fd := range splitPatch(patch) {
			if !matchesAny(fd.path, patterns) {
				continue
			}
			for _, line := range fd.added {
				for _, cand := range matchLine(ctx, line, fd.path, resolver) {
					k := key{cand.Context, cand.Source}
					if seen[k] {
						continue
					}
					seen[k] = true
					candidates = append(candidates, cand)
				}
			}
		}
	}
	return candidates, nil
}

// rangeTip returns the revision whose tree the resolver reads: the right
// end of an A..B range, or the spec itself for a single revision.
func rangeTip(rangeSpec string) string {
	if i := strings.LastIndex(rangeSpec, ".."); i >= 0 {
		if tip := rangeSpec[i+2:]; tip != "" {
			return tip
		}
		return "HEAD"
	}
	if rangeSpec == "" {
		return "HEAD"
	}
	return rangeSpec
}

type fileDiff struct {
	path  string
	added []string
}

// splitPatch carves a unified diff into per-file added-line lists. Deleted
// files (+++ /dev/null) contribute nothing; binary file notices have no
// added lines and fall through harmlessly.
func splitPatch(patch string) []fileDiff {
	var files []fileDiff
	var cur *fileDiff

	for _, line := range strings.Split(patch, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ "):
			target := strings.TrimPrefix(line, "+++ ")
			target = strings.TrimPrefix(target, "b/")
			if target == "/dev/null" {
				cur = nil
				continue
			}
			files = append(files, fileDiff{path: target})
			cur = &files[len(files)-1]
		case cur != nil && strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			cur.added = append(cur.added, line[1:])
		}
	}
	return files
}

// matchesAny reports whether the file path matches at least one glob.
// Patterns without a slash match against the file name alone, so "*.cpp"
// selects sources anywhere in the tree.
func matchesAny(file string, patterns []string) bool {
	if file == "" {
		return false
	}
	for _, pat := range patterns {
		target := file
		if !strings.Contains(pat, "/") {
			target = path.Base(file)
		}
		if ok, err := path.Match(pat, target); err == nil && ok {
			return true
		}
	}
	return false
}

// String-literal captures with C escape support: tr("Say \"hi\"") must keep
// its quotes. Sources and contexts must be non-empty; the disambiguation
// comment may be the empty string, as in tr("%n file(s)", "", n).
const (
	strLit    = `"((?:[^"\\]|\\.)+)"`
	strLitOpt = `"((?:[^"\\]|\\.)*)"`

	// Trailing plural-count argument: a plain expression without parens or
	// commas (n, count, n + 1). Calls with fancier count expressions stay
	// unmatched rather than risking a sibling call on the same line.
	countArg = `[^)(,]+`
)

var (
	// translate("Context", "source"[, "comment"[, n]]) — the explicit-context
	// form, matched first. The word boundary accepts QCoreApplication:: and
	// QApplication:: qualifiers while rejecting retranslate().
	translateRE = regexp.MustCompile(
		`\btranslate\s*\(\s*` + strLit + `\s*,\s*` + strLit +
			`(?:\s*,\s*` + strLitOpt + `)?(?:\s*,\s*` + countArg + `)?\s*\)`)

	// tr("source"[, "comment"|nullptr|NULL|0[, n]]) — context comes from the
	// resolver. The word boundary accepts Class::tr while rejecting substr().
	trRE = regexp.MustCompile(
		`\btr\s*\(\s*` + strLit +
			`(?:\s*,\s*(?:` + strLitOpt + `|nullptr|NULL|0))?(?:\s*,\s*` + countArg + `)?\s*\)`)
)

var cUnescaper = strings.NewReplacer(`\"`, `"`, `\\`, `\`, `\n`, "\n", `\t`, "\t")

func unescapeC(s string) string {
	return cUnescaper.Replace(s)
}

// matchLine applies the matchers in priority order. One line may carry
// several independent calls and then yields several candidates.
func matchLine(ctx context.Context, line, file string, resolver *Resolver) []Candidate {
	var out []Candidate
	trimmed := strings.TrimSpace(line)

	for _, m := range translateRE.FindAllStringSubmatch(line, -1) {
		out = append(out, Candidate{
			Context: unescapeC(m[1]),
			Source:  unescapeC(m[2]),
			Comment: unescapeC(m[3]),
			File:    file,
			Line:    trimmed,
		})
	}
	for _, m := range trRE.FindAllStringSubmatch(line, -1) {
		out = append(out, Candidate{
			Context: resolver.Resolve(ctx, file),
			Source:  unescapeC(m[1]),
			Comment: unescapeC(m[2]),
			File:    file,
			Line:    trimmed,
		})
	}
	return out
}

// tsforge — Qt Linguist catalog toolkit: mines translatable strings from git
// history and reconciles filled-in translations back into .ts catalogs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tsforge/tsforge/config"
	"github.com/tsforge/tsforge/extract"
	"github.com/tsforge/tsforge/i18n"
	"github.com/tsforge/tsforge/lockfile"
	"github.com/tsforge/tsforge/reconcile"
	"github.com/tsforge/tsforge/tablefile"
	"github.com/tsforge/tsforge/tsfile"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tsforge",
		Short: "Qt Linguist catalog toolkit driven by git history",
		Long: `tsforge — Qt Linguist catalog toolkit driven by git history.

Mines the added lines of a commit range for tr()/translate() calls, renders
the findings as review tables for translators, and reconciles the filled-in
translations back into .ts catalogs without disturbing untouched bytes.

Commands:
  collect       Extract candidate strings from a git commit range
  export        Render untranslated strings as a translator table
  import        Reconcile a filled-in table back into the catalogs
  apply         Apply JSON translation requests to catalogs
  parse         Inspect a .ts catalog
  untranslated  List the untranslated entries of a .ts catalog
  status        Show catalog coverage and lock drift
  init          Write a starter ` + config.FileName + `

Typical round trip:
  tsforge collect --range v1.4..HEAD --format table > work.md
  ... translators fill in the table ...
  tsforge import --input work.md`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag — inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")

	root.AddCommand(
		newCollectCmd(),
		newExportCmd(),
		newImportCmd(),
		newApplyCmd(),
		newParseCmd(),
		newUntranslatedCmd(),
		newStatusCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version command
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tsforge version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// collect command
// ---------------------------------------------------------------------------

func newCollectCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Extract candidate strings from a git commit range",
		Long: `Collect walks a git commit range and lists the tr()/translate()
source strings introduced by its added lines. Each candidate carries the
resolved class or namespace context, the file, and the line it came from.

Repository, range, and file patterns default to the ` + config.FileName + ` values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			candidates, rangeSpec, err := collectCandidates(cmd, cfg)
			if err != nil {
				return err
			}
			logInfo(i18n.N("%d candidate string in %s", "%d candidate strings in %s", len(candidates)),
				len(candidates), rangeSpec)

			switch format {
			case "text":
				for _, c := range candidates {
					fmt.Printf("%s\t%s\t%s\n", c.Context, c.Source, c.File)
				}
				return nil
			case "json":
				if candidates == nil {
					candidates = []extract.Candidate{}
				}
				return writeJSON(os.Stdout, candidates)
			case "table":
				fmt.Print(tablefile.CreateMulti(candidateEntries(candidates)))
				return nil
			default:
				return fmt.Errorf("unknown format %q (want text, json, or table)", format)
			}
		},
	}

	addGitFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json, or table")

	return cmd
}

// addGitFlags registers the flags shared by every command that scans a
// repository. Unset flags fall back to the project config.
func addGitFlags(cmd *cobra.Command) {
	cmd.Flags().String("repo", "", "Git repository to scan (defaults to config)")
	cmd.Flags().String("range", "", `Commit range, e.g. "v1.4..HEAD" (defaults to config)`)
	cmd.Flags().StringSlice("patterns", nil, "File globs to scan (defaults to config)")
}

// collectCandidates runs the extractor with flag-over-config precedence
// for repo, range, and patterns.
func collectCandidates(cmd *cobra.Command, cfg *config.Project) ([]extract.Candidate, string, error) {
	fs := cmd.Flags()
	repo := stringOr(fs, "repo", cfg.Repo)
	rangeSpec := stringOr(fs, "range", cfg.Range)
	patterns := cfg.Patterns
	if fs.Changed("patterns") {
		patterns, _ = fs.GetStringSlice("patterns")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	collector := extract.NewCollector(underRoot(repo))
	candidates, err := collector.Collect(ctx, rangeSpec, patterns)
	if err != nil {
		return nil, rangeSpec, err
	}
	return candidates, rangeSpec, nil
}

// ---------------------------------------------------------------------------
// export command
// ---------------------------------------------------------------------------

func newExportCmd() *cobra.Command {
	var (
		source string
		format string
		multi  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render untranslated strings as a translator table",
		Long: `Export renders work for translators. The catalog source lists the
untranslated entries of an existing .ts file; the git source lists candidate
strings collected from a commit range.

Markdown tables come in a multi-locale flavor with one column per built-in
Chinese locale, or a single-locale flavor selected with --language.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}

			var entries []tablefile.Entry
			switch source {
			case "catalog":
				path, err := exportCatalogPath(cmd.Flags(), cfg)
				if err != nil {
					return err
				}
				f, err := tsfile.ParseFile(underRoot(path))
				if err != nil {
					return err
				}
				entries = untranslatedEntries(f.Untranslated())
			case "git":
				candidates, _, err := collectCandidates(cmd, cfg)
				if err != nil {
					return err
				}
				entries = candidateEntries(candidates)
			default:
				return fmt.Errorf("unknown source %q (want catalog or git)", source)
			}

			if len(entries) == 0 {
				logInfo(i18n.T("no untranslated entries"))
			} else {
				logInfo(i18n.N("exported %d entry", "exported %d entries", len(entries)), len(entries))
			}

			var out string
			switch format {
			case "markdown":
				if multi {
					out = tablefile.CreateMulti(entries)
				} else {
					lang, _ := cmd.Flags().GetString("language")
					out = tablefile.Create(entries, tablefile.LocaleName(lang))
				}
			case "json":
				out, err = tablefile.CreateJSON(entries)
				if err != nil {
					return err
				}
				out += "\n"
			default:
				return fmt.Errorf("unknown format %q (want markdown or json)", format)
			}
			return writeOutput(output, out)
		},
	}

	addGitFlags(cmd)
	cmd.Flags().StringVar(&source, "source", "catalog", "Entry source: catalog or git")
	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or json")
	cmd.Flags().BoolVar(&multi, "multi", true, "One translation column per built-in locale")
	cmd.Flags().String("catalog", "", "Catalog to scan for untranslated entries")
	cmd.Flags().String("base", "", "Catalog base path, e.g. i18n/app (defaults to config)")
	cmd.Flags().String("language", "zh_CN", "Locale for single-locale tables")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

// exportCatalogPath picks the catalog to export from: an explicit --catalog
// wins, otherwise the base path joined with --language.
func exportCatalogPath(fs *pflag.FlagSet, cfg *config.Project) (string, error) {
	if path, _ := fs.GetString("catalog"); path != "" {
		return path, nil
	}
	base := stringOr(fs, "base", cfg.Base)
	if base == "" {
		return "", fmt.Errorf("no catalog to export: pass --catalog or --base, or set base in %s", config.FileName)
	}
	lang, _ := fs.GetString("language")
	proj := config.Project{Base: base}
	return proj.CatalogPath(lang), nil
}

// ---------------------------------------------------------------------------
// import command
// ---------------------------------------------------------------------------

func newImportCmd() *cobra.Command {
	var (
		input string
		multi bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Reconcile a filled-in table back into the catalogs",
		Long: `Import parses a markdown table produced by export, collects the rows
whose translation cells were filled in, and applies them to the catalogs.

Multi-locale tables update one catalog per locale column. Single-locale
tables go to --catalog, or to the configured base joined with --language.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			data, err := readInput(input)
			if err != nil {
				return err
			}
			table := string(data)
			fs := cmd.Flags()
			base := stringOr(fs, "base", cfg.Base)

			if multi {
				if base == "" {
					return fmt.Errorf("no catalog base: pass --base or set base in %s", config.FileName)
				}
				proj := config.Project{Base: base}
				byLocale := tablefile.ParseMulti(table)

				engine := reconcile.New()
				var written []string
				filled := 0
				for _, loc := range tablefile.Locales {
					reqs := byLocale[loc.Code]
					if len(reqs) == 0 {
						continue
					}
					filled += len(reqs)
					w, err := applyAndReport(engine, []string{proj.CatalogPath(loc.Code)}, reqs)
					written = append(written, w...)
					if err != nil {
						updateLock(written)
						return err
					}
				}
				if filled == 0 {
					logInfo(i18n.T("no filled rows in table"))
					return nil
				}
				updateLock(written)
				return nil
			}

			reqs := tablefile.Parse(table)
			if len(reqs) == 0 {
				logInfo(i18n.T("no filled rows in table"))
				return nil
			}
			target, _ := fs.GetString("catalog")
			if target == "" {
				if base == "" {
					return fmt.Errorf("no target catalog: pass --catalog or --base, or set base in %s", config.FileName)
				}
				lang, _ := fs.GetString("language")
				proj := config.Project{Base: base}
				target = proj.CatalogPath(lang)
			}
			engine := reconcile.New()
			written, err := applyAndReport(engine, []string{target}, reqs)
			updateLock(written)
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", `Table file ("-" or empty for stdin)`)
	cmd.Flags().BoolVar(&multi, "multi", true, "Treat the input as a multi-locale table")
	cmd.Flags().String("catalog", "", "Target catalog for single-locale tables")
	cmd.Flags().String("base", "", "Catalog base path (defaults to config)")
	cmd.Flags().String("language", "zh_CN", "Locale for single-locale tables")

	return cmd
}

// ---------------------------------------------------------------------------
// apply command
// ---------------------------------------------------------------------------

func newApplyCmd() *cobra.Command {
	var (
		input string
		langs []string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply JSON translation requests to catalogs",
		Long: `Apply reads an array of {context, source, translation, comment}
objects and reconciles each one into every target catalog. Requests whose
context group is missing from a catalog are reported and skipped, never
invented.

Targets come from repeated --catalog flags, from --base joined with
--languages, or from ` + config.FileName + ` when neither is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			data, err := readInput(input)
			if err != nil {
				return err
			}
			var reqs []reconcile.Request
			if err := json.Unmarshal(data, &reqs); err != nil {
				return fmt.Errorf("parsing requests: %w", err)
			}
			if len(reqs) == 0 {
				logInfo(i18n.T("no updates to apply"))
				return nil
			}

			catalogs, _ := cmd.Flags().GetStringSlice("catalog")
			targets, err := resolveCatalogs(cmd.Flags(), cfg, catalogs, langs)
			if err != nil {
				return err
			}

			engine := reconcile.New()
			written, err := applyAndReport(engine, targets, reqs)
			updateLock(written)
			return err
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", `Requests file ("-" or empty for stdin)`)
	cmd.Flags().StringSlice("catalog", nil, "Target catalog path (repeatable)")
	cmd.Flags().String("base", "", "Catalog base path, e.g. i18n/app (defaults to config)")
	cmd.Flags().Var(newLocaleList(&langs), "languages", "Locale codes for --base (defaults to config)")

	return cmd
}

// resolveCatalogs picks the apply targets: explicit --catalog values win,
// then --base joined with --languages, then the configured project.
func resolveCatalogs(fs *pflag.FlagSet, cfg *config.Project, catalogs, langs []string) ([]string, error) {
	if len(catalogs) > 0 {
		return catalogs, nil
	}
	base := stringOr(fs, "base", cfg.Base)
	if base == "" {
		return nil, fmt.Errorf("no target catalogs: pass --catalog or --base, or set base in %s", config.FileName)
	}
	if !fs.Changed("languages") {
		langs = cfg.Languages
	}
	if len(langs) == 0 {
		return nil, fmt.Errorf("no languages configured for base %q", base)
	}
	proj := config.Project{Base: base}
	paths := make([]string, 0, len(langs))
	for _, code := range langs {
		paths = append(paths, proj.CatalogPath(code))
	}
	return paths, nil
}

// applyAndReport runs one reconciliation batch and logs the outcome per
// catalog. It returns the catalogs that changed on disk and the first
// write or read error; a failed catalog is left to the caller to report.
func applyAndReport(engine *reconcile.Engine, targets []string, reqs []reconcile.Request) ([]string, error) {
	disk := make([]string, len(targets))
	for i, t := range targets {
		disk[i] = underRoot(t)
	}

	results, err := engine.Apply(disk, reqs)

	processed := len(results)
	var written []string
	for i, target := range targets {
		if i >= processed {
			break
		}
		if err != nil && i == processed-1 {
			break
		}
		if n := results[disk[i]]; n > 0 {
			logSuccess(i18n.N("%s: %d entry updated", "%s: %d entries updated", n), target, n)
			written = append(written, target)
		} else {
			logInfo(i18n.T("%s: nothing to update"), target)
		}
	}
	for _, f := range engine.Failures() {
		logWarning(i18n.T("update skipped: %s (source %q)"), f.Reason, f.Source)
	}
	return written, err
}

// ---------------------------------------------------------------------------
// parse and untranslated commands
// ---------------------------------------------------------------------------

func newParseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <catalog.ts>",
		Short: "Inspect a .ts catalog",
		Long: `Parse lists every entry of a catalog with its context, source, and
translation. Untranslated entries are marked with "!".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := tsfile.ParseFile(underRoot(args[0]))
			if err != nil {
				return err
			}
			total, translated, untranslated := f.Stats()
			logInfo(i18n.T("%d entries, %d translated, %d untranslated"),
				total, translated, untranslated)

			switch format {
			case "text":
				for _, e := range f.Entries() {
					mark := " "
					if !e.Translated {
						mark = "!"
					}
					fmt.Printf("%s %s\t%s\t%s\n", mark, e.Context, e.Source, e.Translation)
				}
				return nil
			case "json":
				entries := f.Entries()
				if entries == nil {
					entries = []tsfile.Entry{}
				}
				return writeJSON(os.Stdout, entries)
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

func newUntranslatedCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "untranslated <catalog.ts>",
		Short: "List the untranslated entries of a .ts catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := tsfile.ParseFile(underRoot(args[0]))
			if err != nil {
				return err
			}
			entries := f.Untranslated()
			logInfo(i18n.N("%d untranslated entry", "%d untranslated entries", len(entries)),
				len(entries))

			switch format {
			case "text":
				for _, e := range entries {
					fmt.Printf("%s\t%s\n", e.Context, e.Source)
				}
				return nil
			case "json":
				if entries == nil {
					entries = []tsfile.Entry{}
				}
				return writeJSON(os.Stdout, entries)
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")

	return cmd
}

// ---------------------------------------------------------------------------
// status command
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show catalog coverage and lock drift",
		Long: `Status prints one row per configured catalog with entry counts and
translation coverage, and warns about catalogs modified outside tsforge
since the last recorded write.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootDir)
			if err != nil {
				return err
			}
			if cfg.Base == "" {
				return fmt.Errorf("no catalogs configured: set base in %s (try: tsforge init)", config.FileName)
			}
			lf, err := lockfile.Load(rootDir)
			if err != nil {
				logWarning("lock file: %v", err)
				lf = nil
			}

			fmt.Printf("%s%-10s %-32s %9s %9s  %s%s\n",
				colorBlue, "LANGUAGE", "CATALOG", "ENTRIES", "DONE", "COVERAGE", colorReset)
			fmt.Println(strings.Repeat("─", 76))

			var drifted []string
			for _, code := range cfg.Languages {
				path := cfg.CatalogPath(code)
				data, err := os.ReadFile(underRoot(path))
				if err != nil {
					fmt.Printf("%-10s %-32s %9s %9s  %s\n", code, path, "-", "-", "missing")
					continue
				}
				f, err := tsfile.Parse(data)
				if err != nil {
					fmt.Printf("%-10s %-32s %9s %9s  %s\n", code, path, "-", "-", "parse error")
					logWarning("%s: %v", path, err)
					continue
				}
				total, translated, _ := f.Stats()
				percent := 100
				if total > 0 {
					percent = translated * 100 / total
				}
				fmt.Printf("%-10s %-32s %9d %9d  %s\n",
					code, path, total, translated, progressBar(percent, 10))
				if lf != nil && lf.Modified(path, data) {
					drifted = append(drifted, path)
				}
			}

			for _, path := range drifted {
				logWarning(i18n.T("%s was modified outside tsforge"), path)
			}
			return nil
		},
	}

	return cmd
}

// progressBar renders a fixed-width coverage bar. Percent is clamped to
// [0, 100]; the bar turns yellow at 50% and green at 80%.
func progressBar(percent, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := width * percent / 100

	color := colorRed
	switch {
	case percent >= 80:
		color = colorGreen
	case percent >= 50:
		color = colorYellow
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s%s%s %3d%%", color, bar, colorReset, percent)
}

// ---------------------------------------------------------------------------
// init command
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.FileName,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(rootDir, config.FileName)
			if fileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg := config.Default()
			if base, _ := cmd.Flags().GetString("base"); base != "" {
				cfg.Base = base
			}
			if err := cfg.Save(rootDir); err != nil {
				return err
			}
			logSuccess(i18n.T("wrote %s"), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")
	cmd.Flags().String("base", "", "Catalog base path to record, e.g. i18n/app")

	return cmd
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// underRoot resolves a user-supplied path against the --root directory.
func underRoot(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

// stringOr returns the flag value when it was set on the command line and
// the fallback otherwise, so explicit flags win over config.
func stringOr(fs *pflag.FlagSet, name, fallback string) string {
	if fs.Changed(name) {
		v, _ := fs.GetString(name)
		return v
	}
	return fallback
}

// readInput reads the named file, or stdin when name is empty or "-".
func readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(underRoot(name))
}

// writeOutput writes to the named file, or stdout when name is empty.
func writeOutput(name, content string) error {
	if name == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(underRoot(name), []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	logSuccess(i18n.T("wrote %s"), name)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// updateLock refreshes the lock snapshots of catalogs that were just
// written. Lock maintenance is advisory: failures only warn.
func updateLock(targets []string) {
	if len(targets) == 0 {
		return
	}
	lf, err := lockfile.Load(rootDir)
	if err != nil {
		logWarning("lock file: %v", err)
		return
	}
	touched := false
	for _, target := range targets {
		data, err := os.ReadFile(underRoot(target))
		if err != nil {
			continue
		}
		f, err := tsfile.Parse(data)
		if err != nil {
			continue
		}
		total, _, untranslated := f.Stats()
		lf.Update(target, data, total, untranslated)
		touched = true
	}
	if !touched {
		return
	}
	if err := lf.Save(); err != nil {
		logWarning("lock file: %v", err)
	}
}

// candidateEntries converts collected candidates to table rows.
func candidateEntries(candidates []extract.Candidate) []tablefile.Entry {
	entries := make([]tablefile.Entry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, tablefile.Entry{Context: c.Context, Source: c.Source, Comment: c.Comment})
	}
	return entries
}

// untranslatedEntries converts catalog entries to table rows.
func untranslatedEntries(entries []tsfile.Entry) []tablefile.Entry {
	rows := make([]tablefile.Entry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, tablefile.Entry{Context: e.Context, Source: e.Source, Comment: e.Comment})
	}
	return rows
}

// localeListValue is a pflag.Value holding comma-separated locale codes.
// Codes are validated on Set so bad input fails at flag parse time.
type localeListValue struct {
	codes *[]string
}

func newLocaleList(p *[]string) *localeListValue {
	return &localeListValue{codes: p}
}

func (v *localeListValue) String() string {
	return strings.Join(*v.codes, ",")
}

func (v *localeListValue) Set(s string) error {
	var codes []string
	for _, part := range strings.Split(s, ",") {
		code := strings.TrimSpace(part)
		if code == "" {
			continue
		}
		if !config.IsLocaleCode(code) {
			return fmt.Errorf("invalid locale code %q", code)
		}
		codes = append(codes, code)
	}
	*v.codes = codes
	return nil
}

func (v *localeListValue) Type() string {
	return "locales"
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

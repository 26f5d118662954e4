package reconcile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsforge/tsforge/tsfile"
)

// Two contexts share the source "Cancel" so cross-context bleed shows up
// immediately in assertions on this fixture.
const dialogCatalog = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="zh_CN">
<context>
    <name>Dialog</name>
    <message>
        <source>Cancel</source>
        <translation type="unfinished"></translation>
    </message>
    <message>
        <source>OK</source>
        <translation>好</translation>
    </message>
</context>
<context>
    <name>Editor</name>
    <message>
        <location filename="editor.cpp" line="7"/>
        <source>Cancel</source>
        <translation type="unfinished"></translation>
    </message>
</context>
</TS>
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app_zh_CN.ts")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestApplyReplacesUnfinishedTranslation(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()

	results, err := e.Apply([]string{path}, []Request{
		{Context: "Dialog", Source: "Cancel", Translation: "取消"},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[path] != 1 {
		t.Fatalf("results[path] = %d, want 1", results[path])
	}
	if len(e.Failures()) != 0 {
		t.Fatalf("Failures() = %v, want none", e.Failures())
	}

	got := readBack(t, path)
	// The Dialog entry owns the first unfinished line; only that line
	// may change. Everything else, including Editor's identical source,
	// must round-trip byte-for-byte.
	want := strings.Replace(dialogCatalog,
		`        <translation type="unfinished"></translation>`,
		`        <translation>取消</translation>`, 1)
	if got != want {
		t.Fatalf("document after apply:\n%s\nwant:\n%s", got, want)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()
	batch := []Request{{Context: "Dialog", Source: "Cancel", Translation: "取消"}}

	if _, err := e.Apply([]string{path}, batch); err != nil {
		t.Fatalf("first Apply() error: %v", err)
	}
	afterFirst := readBack(t, path)

	results, err := e.Apply([]string{path}, batch)
	if err != nil {
		t.Fatalf("second Apply() error: %v", err)
	}
	if results[path] != 0 {
		t.Fatalf("second apply results[path] = %d, want 0", results[path])
	}
	if got := readBack(t, path); got != afterFirst {
		t.Fatal("second apply changed file bytes")
	}
	if len(e.Failures()) != 0 {
		t.Fatalf("Failures() = %v, want none", e.Failures())
	}
}

func TestApplyInsertsNewEntryAtGroupEnd(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()

	results, err := e.Apply([]string{path}, []Request{
		{Context: "Dialog", Source: "Save As", Translation: "另存为", Comment: "file menu"},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[path] != 1 {
		t.Fatalf("results[path] = %d, want 1", results[path])
	}

	f, err := tsfile.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	dialog := f.Context("Dialog")
	if len(dialog.Messages) != 3 {
		t.Fatalf("Dialog messages = %d, want 3", len(dialog.Messages))
	}
	last := dialog.Messages[2]
	if last.Source != "Save As" || last.Translation != "另存为" || last.Comment != "file menu" {
		t.Fatalf("appended entry = %+v", last)
	}

	got := readBack(t, path)
	block := "    <message>\n" +
		"        <source>Save As</source>\n" +
		"        <comment>file menu</comment>\n" +
		"        <translation>另存为</translation>\n" +
		"    </message>\n" +
		"</context>\n" +
		"<context>\n" +
		"    <name>Editor</name>"
	if !strings.Contains(got, block) {
		t.Fatalf("insert not at end of Dialog group:\n%s", got)
	}
}

func TestApplyRecordsFailedMatch(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()

	results, err := e.Apply([]string{path}, []Request{
		{Context: "Missing", Source: "X", Translation: "Y"},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[path] != 0 {
		t.Fatalf("results[path] = %d, want 0", results[path])
	}

	failures := e.Failures()
	if len(failures) != 1 {
		t.Fatalf("Failures() len = %d, want 1", len(failures))
	}
	if failures[0].Context != "Missing" || failures[0].Source != "X" {
		t.Fatalf("failure = %+v", failures[0])
	}
	if !strings.Contains(failures[0].Reason, "exact") {
		t.Fatalf("reason %q does not surface the exact-match contract", failures[0].Reason)
	}
	if got := readBack(t, path); got != dialogCatalog {
		t.Fatal("failed batch modified the document")
	}
}

func TestContextMatchingIsExact(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()

	_, err := e.Apply([]string{path}, []Request{
		{Context: "dialog", Source: "Cancel", Translation: "x"},
		{Context: "Dialog ", Source: "Cancel", Translation: "x"},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(e.Failures()) != 2 {
		t.Fatalf("Failures() len = %d, want 2 (no fuzzy matching)", len(e.Failures()))
	}
	if got := readBack(t, path); got != dialogCatalog {
		t.Fatal("near-miss contexts modified the document")
	}
}

func TestUnchangedBatchLeavesBytesAlone(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()

	results, err := e.Apply([]string{path}, []Request{
		{Context: "Dialog", Source: "OK", Translation: "好"},
		{Context: "Dialog", Source: "OK", Translation: " 好 "}, // trimmed compare
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[path] != 0 {
		t.Fatalf("results[path] = %d, want 0", results[path])
	}
	if got := readBack(t, path); got != dialogCatalog {
		t.Fatal("unchanged batch modified the document")
	}
}

func TestInertRequestsAreSkipped(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()

	results, err := e.Apply([]string{path}, []Request{
		{Context: "Dialog", Source: "Cancel", Translation: ""}, // inert
		{Context: "", Source: "Cancel", Translation: "x"},
		{Context: "Dialog", Source: "", Translation: "x"},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[path] != 0 {
		t.Fatalf("results[path] = %d, want 0", results[path])
	}
	if len(e.Failures()) != 0 {
		t.Fatalf("Failures() = %v, want none (inert, not unmatched)", e.Failures())
	}
	if got := readBack(t, path); got != dialogCatalog {
		t.Fatal("inert batch modified the document")
	}
}

func TestCommentUpdateCountsAsModified(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()
	batch := []Request{{Context: "Dialog", Source: "OK", Translation: "好", Comment: "confirm button"}}

	results, err := e.Apply([]string{path}, batch)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[path] != 1 {
		t.Fatalf("comment-only change results[path] = %d, want 1", results[path])
	}

	got := readBack(t, path)
	if !strings.Contains(got, "        <source>OK</source>\n        <comment>confirm button</comment>\n") {
		t.Fatalf("comment not inserted below source:\n%s", got)
	}

	// Second run resolves to unchanged.
	results, err = e.Apply([]string{path}, batch)
	if err != nil {
		t.Fatalf("second Apply() error: %v", err)
	}
	if results[path] != 0 {
		t.Fatalf("second apply results[path] = %d, want 0", results[path])
	}
}

func TestApplyCreatesMissingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_zh_HK.ts")
	e := New()

	results, err := e.Apply([]string{path}, []Request{
		{Context: "Dialog", Source: "Cancel", Translation: "取消"},
		{Context: "Dialog", Source: "Save As", Translation: ""}, // inserted unfinished
		{Context: "Dialog", Source: "Cancel", Translation: "重复"}, // duplicate key, skipped
		{Context: "", Source: "X", Translation: "x"},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[path] != 2 {
		t.Fatalf("results[path] = %d, want 2", results[path])
	}

	raw := readBack(t, path)
	if strings.Contains(raw, "language=") {
		t.Fatalf("fresh document should not guess a language attribute:\n%s", raw)
	}

	f, err := tsfile.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	dialog := f.Context("Dialog")
	if dialog == nil || len(dialog.Messages) != 2 {
		t.Fatalf("fresh document contexts = %v", f.ContextNames())
	}
	if got := dialog.Messages[0].Translation; got != "取消" {
		t.Fatalf("first insert translation = %q, want 取消 (first request wins)", got)
	}
	if !dialog.Messages[1].Unfinished {
		t.Fatal("empty-translation insert should carry the unfinished marker")
	}
}

func TestApplyMatchesEscapedContent(t *testing.T) {
	catalog := `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="zh_CN">
<context>
    <name>Tools &amp; Options</name>
    <message>
        <source>Cut &amp; Paste</source>
        <translation type="unfinished"></translation>
    </message>
</context>
</TS>
`
	path := writeCatalog(t, catalog)
	e := New()

	results, err := e.Apply([]string{path}, []Request{
		{Context: "Tools & Options", Source: "Cut & Paste", Translation: "剪切 & 粘贴"},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[path] != 1 {
		t.Fatalf("results[path] = %d, want 1", results[path])
	}

	raw := readBack(t, path)
	if !strings.Contains(raw, "<translation>剪切 &amp; 粘贴</translation>") {
		t.Fatalf("payload not escaped on write:\n%s", raw)
	}

	f, err := tsfile.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if m := f.Find("Tools & Options", "Cut & Paste"); m == nil || m.Translation != "剪切 & 粘贴" {
		t.Fatalf("round trip entry = %+v", m)
	}
}

func TestFailuresResetPerApply(t *testing.T) {
	path := writeCatalog(t, dialogCatalog)
	e := New()

	if _, err := e.Apply([]string{path}, []Request{{Context: "Missing", Source: "X", Translation: "Y"}}); err != nil {
		t.Fatalf("first Apply() error: %v", err)
	}
	if len(e.Failures()) != 1 {
		t.Fatalf("Failures() len = %d, want 1", len(e.Failures()))
	}

	if _, err := e.Apply([]string{path}, []Request{{Context: "Dialog", Source: "Cancel", Translation: "取消"}}); err != nil {
		t.Fatalf("second Apply() error: %v", err)
	}
	if len(e.Failures()) != 0 {
		t.Fatalf("Failures() carried over across runs: %v", e.Failures())
	}
}

func TestApplyMultipleDocumentsIndependently(t *testing.T) {
	pathA := writeCatalog(t, dialogCatalog)
	pathB := filepath.Join(filepath.Dir(pathA), "app_zh_TW.ts")
	other := `<TS version="2.1"><context>
    <name>Other</name>
    <message>
        <source>X</source>
        <translation type="unfinished"></translation>
    </message>
</context>
</TS>
`
	if err := os.WriteFile(pathB, []byte(other), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	e := New()
	results, err := e.Apply([]string{pathA, pathB}, []Request{
		{Context: "Dialog", Source: "Cancel", Translation: "取消"},
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if results[pathA] != 1 || results[pathB] != 0 {
		t.Fatalf("results = %v, want pathA:1 pathB:0", results)
	}

	failures := e.Failures()
	if len(failures) != 1 || !strings.Contains(failures[0].Reason, filepath.Base(pathB)) {
		t.Fatalf("failures = %+v, want one naming %s", failures, pathB)
	}
}

func TestApplyPartialSuccessOnWriteError(t *testing.T) {
	good := writeCatalog(t, dialogCatalog)
	bad := filepath.Join(filepath.Dir(good), "no-such-dir", "app_zh_TW.ts")

	e := New()
	results, err := e.Apply([]string{good, bad}, []Request{
		{Context: "Dialog", Source: "Cancel", Translation: "取消"},
	})
	if err == nil {
		t.Fatal("Apply() error = nil, want write failure for unreachable path")
	}
	if results[good] != 1 {
		t.Fatalf("results[good] = %d, want 1 (earlier document already written)", results[good])
	}
	if got := readBack(t, good); !strings.Contains(got, "<translation>取消</translation>") {
		t.Fatal("earlier document lost its update after later failure")
	}
}

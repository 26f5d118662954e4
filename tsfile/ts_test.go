package tsfile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleCatalog = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="zh_CN">
<context>
    <name>Dialog</name>
    <message>
        <source>Cancel</source>
        <translation type="unfinished"></translation>
    </message>
    <message>
        <source>Save &amp; Exit</source>
        <comment>toolbar</comment>
        <translation>保存并退出</translation>
    </message>
</context>
<context>
    <name>MainWindow</name>
    <message>
        <location filename="mainwindow.cpp" line="42"/>
        <source>Open</source>
        <translation>打开</translation>
    </message>
    <message>
        <source>   </source>
        <translation>ignored</translation>
    </message>
    <message>
        <translation>orphan</translation>
    </message>
</context>
</TS>
`

func TestParseSampleCatalog(t *testing.T) {
	f, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if f.Version != "2.1" {
		t.Fatalf("Version = %q, want 2.1", f.Version)
	}
	if f.Language != "zh_CN" {
		t.Fatalf("Language = %q, want zh_CN", f.Language)
	}

	names := f.ContextNames()
	want := []string{"Dialog", "MainWindow"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("ContextNames() = %v, want %v", names, want)
	}

	dialog := f.Context("Dialog")
	if dialog == nil {
		t.Fatal("Context(Dialog) = nil")
	}
	if len(dialog.Messages) != 2 {
		t.Fatalf("Dialog messages = %d, want 2", len(dialog.Messages))
	}

	cancel := dialog.Messages[0]
	if cancel.Source != "Cancel" || !cancel.Unfinished || cancel.Translation != "" {
		t.Fatalf("Cancel = %+v, want unfinished empty translation", cancel)
	}

	save := dialog.Messages[1]
	if save.Source != "Save & Exit" {
		t.Fatalf("entity-decoded source = %q, want Save & Exit", save.Source)
	}
	if save.Comment != "toolbar" {
		t.Fatalf("comment = %q, want toolbar", save.Comment)
	}
	if save.Translation != "保存并退出" || save.Unfinished {
		t.Fatalf("save translation = %q unfinished=%v", save.Translation, save.Unfinished)
	}

	// Whitespace-only source survives (it is non-empty); sourceless message is dropped.
	mw := f.Context("MainWindow")
	if len(mw.Messages) != 2 {
		t.Fatalf("MainWindow messages = %d, want 2 (orphan dropped)", len(mw.Messages))
	}
	if mw.Messages[0].Source != "Open" {
		t.Fatalf("first MainWindow source = %q, want Open", mw.Messages[0].Source)
	}
}

func TestTranslatedFlag(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want bool
	}{
		{"unfinished with text", Message{Translation: "x", Unfinished: true}, false},
		{"finished with text", Message{Translation: "打开"}, true},
		{"finished blank", Message{Translation: "   "}, false},
		{"finished empty", Message{}, false},
	}

	for _, tc := range tests {
		if got := tc.msg.Translated(); got != tc.want {
			t.Fatalf("%s: Translated() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFindIsExact(t *testing.T) {
	f, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if f.Find("Dialog", "Cancel") == nil {
		t.Fatal("Find(Dialog, Cancel) = nil, want message")
	}
	if f.Find("dialog", "Cancel") != nil {
		t.Fatal("Find(dialog, …) matched case-insensitively")
	}
	if f.Find("Dialog ", "Cancel") != nil {
		t.Fatal("Find(Dialog␠, …) matched with trailing space")
	}
	if f.Find("Dialog", "cancel") != nil {
		t.Fatal("Find(…, cancel) matched case-insensitively")
	}
}

func TestEntriesAndStats(t *testing.T) {
	f, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	entries := f.Entries()
	if len(entries) != 4 {
		t.Fatalf("Entries() len = %d, want 4", len(entries))
	}
	if entries[0].Context != "Dialog" || entries[0].Source != "Cancel" || entries[0].Translated {
		t.Fatalf("entries[0] = %+v, want untranslated Dialog/Cancel", entries[0])
	}
	if !entries[1].Translated {
		t.Fatalf("entries[1] = %+v, want translated", entries[1])
	}

	total, translated, untranslated := f.Stats()
	if total != 4 || translated != 3 || untranslated != 1 {
		t.Fatalf("Stats() = (%d, %d, %d), want (4, 3, 1)", total, translated, untranslated)
	}

	un := f.Untranslated()
	if len(un) != 1 || un[0].Source != "Cancel" {
		t.Fatalf("Untranslated() = %+v, want only Cancel", un)
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing_zh_CN.ts"))
	if err == nil {
		t.Fatal("ParseFile(missing) error = nil, want error")
	}
	if !errors.Is(err, ErrNotExist) {
		t.Fatalf("ParseFile(missing) error = %v, want ErrNotExist kind", err)
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("<TS><context><name>X</name>"))
	if err == nil {
		t.Fatal("Parse(truncated) error = nil, want error")
	}
}

func TestParseNestedTranslationMarkup(t *testing.T) {
	doc := `<TS version="2.1"><context><name>C</name><message>
<source>%n file(s)</source>
<translation><numerusform>%n 个文件</numerusform></translation>
</message></context></TS>`

	f, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	got := f.Contexts[0].Messages[0].Translation
	if got != "<numerusform>%n 个文件</numerusform>" {
		t.Fatalf("nested translation = %q, want raw numerusform markup", got)
	}
}

func TestNewCatalogRoundTrip(t *testing.T) {
	f := New("zh_HK")
	c := f.FindOrCreateContext("Dialog")
	c.Append("Cancel", "取消", "")
	c.Append("Save As", "", "file menu")
	if same := f.FindOrCreateContext("Dialog"); same != c {
		t.Fatal("FindOrCreateContext created a duplicate group")
	}

	out := f.String()
	for _, want := range []string{
		"<?xml version=\"1.0\" encoding=\"utf-8\"?>",
		"<!DOCTYPE TS>",
		"<TS version=\"2.1\" language=\"zh_HK\">",
		"    <name>Dialog</name>",
		"        <source>Cancel</source>",
		"        <translation>取消</translation>",
		"        <comment>file menu</comment>",
		"        <translation type=\"unfinished\"></translation>",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("String() missing %q in:\n%s", want, out)
		}
	}

	back, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("Parse(String()) error: %v", err)
	}
	if got := back.Find("Dialog", "Cancel"); got == nil || got.Translation != "取消" {
		t.Fatalf("round trip lost Cancel translation: %+v", got)
	}
	saveAs := back.Find("Dialog", "Save As")
	if saveAs == nil || !saveAs.Unfinished || saveAs.Comment != "file menu" {
		t.Fatalf("round trip Save As = %+v, want unfinished with comment", saveAs)
	}
}

func TestStringEscapesText(t *testing.T) {
	f := New("")
	f.FindOrCreateContext("C<x>").Append("a & b", "1 < 2", "")

	out := f.String()
	if !strings.Contains(out, "<name>C&lt;x&gt;</name>") {
		t.Fatalf("context name not escaped:\n%s", out)
	}
	if !strings.Contains(out, "<source>a &amp; b</source>") {
		t.Fatalf("source not escaped:\n%s", out)
	}
	if !strings.Contains(out, "<translation>1 &lt; 2</translation>") {
		t.Fatalf("translation not escaped:\n%s", out)
	}

	back, err := Parse([]byte(out))
	if err != nil {
		t.Fatalf("Parse(String()) error: %v", err)
	}
	if back.Find("C<x>", "a & b") == nil {
		t.Fatal("escaped round trip lost the entry")
	}
}

func TestAppendEmptyTranslationMarksUnfinished(t *testing.T) {
	c := &Context{Name: "C"}
	m := c.Append("New", "", "")
	if !m.Unfinished {
		t.Fatal("Append with empty translation should mark unfinished")
	}
	if m.Translated() {
		t.Fatal("unfinished entry reported translated")
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app_zh_CN.ts")

	if err := WriteAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}
	if err := WriteAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteAtomic() overwrite error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("os.ReadFile() error: %v", err)
	}
	if string(data) != "second" {
		t.Fatalf("content = %q, want second", data)
	}

	// No temp artifacts left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("os.ReadDir() error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir has %d entries, want 1", len(entries))
	}
}

func TestUnescapeNamedEntities(t *testing.T) {
	got := Unescape("&lt;b&gt; &amp;amp; &quot;q&quot; &apos;a&apos;")
	want := `<b> &amp; "q" 'a'`
	if got != want {
		t.Fatalf("Unescape() = %q, want %q", got, want)
	}
}

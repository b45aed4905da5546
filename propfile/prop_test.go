package propfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_Basic(t *testing.T) {
	data := []byte("greeting=Hello {0}\nfarewell=Goodbye\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("greeting"); got != "Hello {0}" {
		t.Errorf("greeting = %q, want %q", got, "Hello {0}")
	}
	if got, _ := f.Get("farewell"); got != "Goodbye" {
		t.Errorf("farewell = %q, want %q", got, "Goodbye")
	}
}

func TestParse_CommentsAndBlanks(t *testing.T) {
	data := []byte("# This is a comment\n\nkey=value\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 1 {
		t.Errorf("expected 1 key, got %d", f.Len())
	}
	if got, _ := f.Get("key"); got != "value" {
		t.Errorf("key = %q, want %q", got, "value")
	}
}

func TestParse_ColonSeparator(t *testing.T) {
	data := []byte("name: World\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("name"); got != "World" {
		t.Errorf("name = %q, want %q", got, "World")
	}
}

func TestParse_ValueWithEquals(t *testing.T) {
	data := []byte("url=http://example.com?a=1&b=2\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("url"); got != "http://example.com?a=1&b=2" {
		t.Errorf("url = %q", got)
	}
}

func TestParse_EscapedSeparatorInKey(t *testing.T) {
	f, err := Parse([]byte(`a\=b=value` + "\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := f.Get(`a\=b`); !ok || got != "value" {
		t.Errorf(`a\=b = %q (found %v), want "value"`, got, ok)
	}
}

func TestParse_Continuation(t *testing.T) {
	src := "long=first part \\\n    second part\nnext=x\n"
	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("long"); got != "first part second part" {
		t.Errorf("long = %q, want %q", got, "first part second part")
	}
	if got, _ := f.Get("next"); got != "x" {
		t.Errorf("next = %q, want %q", got, "x")
	}

	// Untouched continuation entries are written back verbatim.
	out, _ := f.Marshal()
	if string(out) != src {
		t.Errorf("round-trip failed:\ngot:  %q\nwant: %q", out, src)
	}

	f.Set("long", "joined")
	out, _ = f.Marshal()
	if want := "long=joined\nnext=x\n"; string(out) != want {
		t.Errorf("after Set = %q, want %q", out, want)
	}
}

func TestParse_EvenBackslashesAreNotContinuation(t *testing.T) {
	f, err := Parse([]byte("path=C:\\\\\nother=1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 2 {
		t.Fatalf("Len = %d, want 2", f.Len())
	}
}

func TestParse_ExclamationComment(t *testing.T) {
	data := []byte("! another comment\nkey=val\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if f.Len() != 1 {
		t.Errorf("expected 1 key, got %d", f.Len())
	}
}

func TestEntries_CarryComments(t *testing.T) {
	f, err := Parse([]byte("# Section\n# Greeting shown on login\ngreeting=Hello\n\n# orphan\n\nbye=Bye\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := []Entry{
		{Key: "greeting", Value: "Hello", Comment: "Section\nGreeting shown on login"},
		{Key: "bye", Value: "Bye"},
	}
	if diff := cmp.Diff(want, f.Entries()); diff != "" {
		t.Errorf("Entries() mismatch (-want +got):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	data := []byte("a=hello\nb=\nc=world\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	total, translated, _ := f.Stats()
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if translated != 2 {
		t.Errorf("translated = %d, want 2", translated)
	}
}

func TestSet_AndMarshal(t *testing.T) {
	data := []byte("a=\nb=\n")
	f, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	f.Set("a", "value_a")
	f.Set("b", "value_b")
	if f.Set("missing", "x") {
		t.Error("Set on missing key should return false")
	}

	out, err := f.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "a=value_a\nb=value_b\n" {
		t.Errorf("marshal = %q", out)
	}
}

func TestMarshal_EscapesNewlines(t *testing.T) {
	f := New()
	f.Add("multi", "line one\nline two")
	out, _ := f.Marshal()
	if string(out) != "multi=line one\\nline two\n" {
		t.Errorf("marshal = %q", out)
	}
}

func TestMarshal_RewrapsContinuedEntry(t *testing.T) {
	f, err := Parse([]byte("long=first part \\\n    second part\nnext=x\n"))
	if err != nil {
		t.Fatal(err)
	}
	value := strings.Repeat("Ein ziemlich langer Satz, ", 6) + "Ende."
	f.Set("long", value)
	out, _ := f.Marshal()

	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	if len(lines) < 3 || lines[len(lines)-1] != "next=x" {
		t.Fatalf("marshal = %q, want a continued entry followed by next=x", out)
	}
	for _, l := range lines[:len(lines)-2] {
		if !strings.HasSuffix(l, " \\") {
			t.Errorf("line %q does not end with a continuation", l)
		}
	}

	g, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := g.Get("long"); got != value {
		t.Errorf("long = %q, want %q", got, value)
	}
}

func TestMarshal_EscapesTrailingBackslash(t *testing.T) {
	f := New()
	f.Add("path", `C:\dir\`)
	f.Add("next", "x")
	out, _ := f.Marshal()
	if want := "path=C:\\dir\\\\\nnext=x\n"; string(out) != want {
		t.Errorf("marshal = %q, want %q", out, want)
	}

	g, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2: trailing backslash joined the next line", g.Len())
	}
	if got, _ := g.Get("next"); got != "x" {
		t.Errorf("next = %q, want %q", got, "x")
	}
}

func TestGet_KeepsEscapes(t *testing.T) {
	f, err := Parse([]byte("bye=Tsch\\u00fcss\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Get("bye"); got != `Tsch\u00fcss` {
		t.Errorf("bye = %q, want %q", got, `Tsch\u00fcss`)
	}
}

func TestMarshal_PreservesLayout(t *testing.T) {
	src := "# header\n\nkey = value \nother:  spaced\n"
	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	out, err := f.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != src {
		t.Errorf("round-trip failed:\ngot:  %q\nwant: %q", string(out), src)
	}
}

func TestDelete(t *testing.T) {
	f, _ := Parse([]byte("a=1\nb=2\nc=3\n"))
	if !f.Delete("b") {
		t.Fatal("Delete(b) = false")
	}
	if diff := cmp.Diff([]string{"a", "c"}, f.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got, _ := f.Get("c"); got != "3" {
		t.Errorf("c = %q after delete, want 3", got)
	}
}

func TestSyncKeys_AddsNewKeysInSourcePosition(t *testing.T) {
	src, _ := Parse([]byte("a=hello\nb=world\nc=new\nd=last\n"))
	target, _ := Parse([]byte("# German\na=hallo\nd=zuletzt\n"))
	added, removed := SyncKeys(src, target)

	if diff := cmp.Diff([]string{"b", "c"}, added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if len(removed) != 0 {
		t.Errorf("removed = %v, want none", removed)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, target.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if v, _ := target.Get("a"); v != "hallo" {
		t.Errorf("a = %q, want hallo", v)
	}
	out, _ := target.Marshal()
	if !strings.HasPrefix(string(out), "# German\n") {
		t.Errorf("comment lost: %q", out)
	}
}

func TestSyncKeys_FirstKeyGoesFirst(t *testing.T) {
	src, _ := Parse([]byte("first=1\nsecond=2\n"))
	target, _ := Parse([]byte("second=zwei\n"))
	SyncKeys(src, target)
	if diff := cmp.Diff([]string{"first", "second"}, target.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
}

func TestSyncKeys_RemovesObsoleteKeys(t *testing.T) {
	src, _ := Parse([]byte("a=hello\n"))
	target, _ := Parse([]byte("a=translated_a\nobsolete=gone\n"))
	_, removed := SyncKeys(src, target)

	if _, ok := target.Get("obsolete"); ok {
		t.Error("obsolete key should have been removed")
	}
	if diff := cmp.Diff([]string{"obsolete"}, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFile_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "messages_de.properties")

	f, _ := Parse([]byte("a=eins\n"))
	if err := f.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a=eins\n" {
		t.Errorf("content = %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	f, _ := Parse([]byte("a=1\n"))
	c := f.Clone()
	c.Set("a", "2")
	c.Add("b", "3")
	if v, _ := f.Get("a"); v != "1" {
		t.Errorf("original a = %q, want 1", v)
	}
	if f.Has("b") {
		t.Error("original gained key b")
	}
}

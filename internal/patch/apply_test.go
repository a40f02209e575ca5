package patch

import (
	"context"
	"strings"
	"testing"

	"github.com/refact-ai/agentcore/internal/model"
	"github.com/refact-ai/agentcore/internal/modelclient"
)

type fakeEditor struct {
	files   map[string]string
	removed []string
	renamed map[string]string
	synced  []string
}

func newFakeEditor(files map[string]string) *fakeEditor {
	return &fakeEditor{files: files, renamed: map[string]string{}}
}

func (f *fakeEditor) ReadFile(path string) (string, error) {
	c, ok := f.files[path]
	if !ok {
		return "", errNotFound(path)
	}
	return c, nil
}

func (f *fakeEditor) WriteFile(path, content string) error {
	f.files[path] = content
	return nil
}

func (f *fakeEditor) Rename(oldPath, newPath string) error {
	f.renamed[oldPath] = newPath
	f.files[newPath] = f.files[oldPath]
	delete(f.files, oldPath)
	return nil
}

func (f *fakeEditor) Remove(path string) error {
	f.removed = append(f.removed, path)
	delete(f.files, path)
	return nil
}

func (f *fakeEditor) SyncAST(path string) error {
	f.synced = append(f.synced, path)
	return nil
}

type notFoundErr string

func (e notFoundErr) Error() string { return "not found: " + string(e) }
func errNotFound(path string) error { return notFoundErr(path) }

func TestApplyNewFile(t *testing.T) {
	ed := newFakeEditor(map[string]string{})
	msg, err := Apply(context.Background(), ed, nil, []Ticket{
		{ID: "t1", Action: NewFile, FilenameAfter: "new.go", Content: "package x\n"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ed.files["new.go"] != "package x\n" {
		t.Fatalf("file not created: %+v", ed.files)
	}
	if msg.Role != model.RoleDiff {
		t.Fatalf("expected a diff-role message, got %v", msg.Role)
	}
}

func TestApplyReplaceFile(t *testing.T) {
	ed := newFakeEditor(map[string]string{"a.go": "old\n"})
	_, err := Apply(context.Background(), ed, nil, []Ticket{
		{ID: "t1", Action: ReplaceFile, FilenameBefore: "a.go", Content: "new\n"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if ed.files["a.go"] != "new\n" {
		t.Fatalf("file not replaced: %q", ed.files["a.go"])
	}
	if len(ed.synced) != 1 || ed.synced[0] != "a.go" {
		t.Fatalf("expected AST sync for a.go, got %v", ed.synced)
	}
}

func TestApplyReplaceSymbol(t *testing.T) {
	ed := newFakeEditor(map[string]string{"a.go": "package p\n\nfunc Old() int {\n\treturn 1\n}\n\nfunc Keep() int {\n\treturn 2\n}\n"})
	_, err := Apply(context.Background(), ed, nil, []Ticket{
		{ID: "t1", Action: ReplaceSymbol, FilenameBefore: "a.go", Symbol: "Old", Content: "func Old() int {\n\treturn 99\n}"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !strings.Contains(ed.files["a.go"], "return 99") {
		t.Fatalf("symbol not replaced: %q", ed.files["a.go"])
	}
	if !strings.Contains(ed.files["a.go"], "func Keep() int") {
		t.Fatalf("sibling symbol should be untouched: %q", ed.files["a.go"])
	}
}

func TestApplyValidatesMixedActions(t *testing.T) {
	_, err := Apply(context.Background(), newFakeEditor(nil), nil, []Ticket{
		{ID: "t1", Action: SectionEdit, FilenameBefore: "a.go"},
		{ID: "t2", Action: ReplaceFile, FilenameBefore: "a.go"},
	})
	if err == nil {
		t.Fatal("expected validation error for mixed SectionEdit/ReplaceFile batch")
	}
}

func TestApplySectionEditRepairsViaModel(t *testing.T) {
	ed := newFakeEditor(map[string]string{"a.go": "func F() {\n\treturn 1\n}\n"})
	goodDiff := "```diff\n--- a/a.go\n+++ b/a.go\n@@ -1,3 +1,3 @@\n func F() {\n-\treturn 1\n+\treturn 2\n }\n```\n"
	calls := 0
	repairClient := stubRepairClient{fn: func(modelclient.Request) (modelclient.Response, error) {
		calls++
		return modelclient.Response{Message: model.NewSimpleText(model.RoleAssistant, goodDiff)}, nil
	}}
	_, err := Apply(context.Background(), ed, repairClient, []Ticket{
		{ID: "t1", Action: SectionEdit, FilenameBefore: "a.go", Hunks: "```diff\nnot a valid diff at all\n```\n"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one repair call, got %d", calls)
	}
	if !strings.Contains(ed.files["a.go"], "return 2") {
		t.Fatalf("repaired diff was not applied: %q", ed.files["a.go"])
	}
}

type stubRepairClient struct {
	fn func(modelclient.Request) (modelclient.Response, error)
}

func (c stubRepairClient) Complete(_ context.Context, req modelclient.Request) (modelclient.Response, error) {
	return c.fn(req)
}

package task

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"repeatbot/internal/storage"
	logx "repeatbot/pkg/logx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "tasks.json")
	s := NewStore(path, storage.OSFiles{}, logx.Nop())
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return s
}

func readDoc(t *testing.T, s *Store) string {
	t.Helper()
	b, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	return string(b)
}

func writeDoc(t *testing.T, s *Store, doc string) {
	t.Helper()
	if err := os.WriteFile(s.Path(), []byte(doc), 0o644); err != nil {
		t.Fatalf("write store: %v", err)
	}
}

var botTask = Task{TotalWaitInterval: 7530, Channel: "pogtv", TaskMessage: "my repeat message"}

func TestStoreInitCreatesEmptyDocument(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	if got := readDoc(t, s); got != string(emptyDocument) {
		t.Fatalf("document = %q, want %q", got, emptyDocument)
	}

	// Init leaves an existing document alone.
	ctx := context.Background()
	if _, err := s.Create(ctx, "bot-task", botTask); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task after re-init, got %d", len(tasks))
	}
}

func TestStoreLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	msg, err := s.Create(ctx, "bot-task", botTask)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.Contains(msg, `"bot-task"`) || !strings.Contains(msg, `"pogtv"`) {
		t.Fatalf("create confirmation should name task and channel: %q", msg)
	}

	if _, err := s.Modify(ctx, "bot-task", ChannelPatch("NewChan")); err != nil {
		t.Fatalf("Modify: %v", err)
	}
	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got := tasks["bot-task"].Channel; got != "newchan" {
		t.Fatalf("Channel = %q, want newchan", got)
	}

	if _, err := s.Delete(ctx, "bot-task"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := readDoc(t, s); got != string(emptyDocument) {
		t.Fatalf("document after delete = %q, want empty mapping", got)
	}
}

func TestStoreCreateExistingLeavesStoreUnchanged(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Create(ctx, "bot-task", botTask); err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := readDoc(t, s)

	_, err := s.Create(ctx, "bot-task", Task{TotalWaitInterval: 5, Channel: "other", TaskMessage: "x"})
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Create() error = %v, want ErrExists", err)
	}
	var ne *NameError
	if !errors.As(err, &ne) || ne.Name != "bot-task" {
		t.Fatalf("expected NameError for bot-task, got %v", err)
	}
	if after := readDoc(t, s); after != before {
		t.Fatalf("store changed:\n%s\nwant:\n%s", after, before)
	}
}

func TestStoreCreateLowercasesChannel(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Create(ctx, "bot-task", Task{TotalWaitInterval: 5, Channel: "PogTV", TaskMessage: "hi"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.Contains(readDoc(t, s), `"channel": "pogtv"`) {
		t.Fatalf("channel should be stored lower-case:\n%s", readDoc(t, s))
	}
}

func TestStoreCreateRejectsInvalidRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	cases := map[string]Task{
		"zero interval": {TotalWaitInterval: 0, Channel: "pogtv", TaskMessage: "x"},
		"bad channel":   {TotalWaitInterval: 5, Channel: "p", TaskMessage: "x"},
		"no message":    {TotalWaitInterval: 5, Channel: "pogtv"},
	}
	for name, tk := range cases {
		var ve *ValidationError
		if _, err := s.Create(ctx, "bot-task", tk); !errors.As(err, &ve) {
			t.Fatalf("%s: Create() error = %v, want *ValidationError", name, err)
		}
	}
	if got := readDoc(t, s); got != string(emptyDocument) {
		t.Fatalf("invalid creates must not touch the store: %q", got)
	}
}

func TestStoreDeleteRemovesOnlyTarget(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	for _, n := range []string{"one", "two", "three"} {
		if _, err := s.Create(ctx, n, botTask); err != nil {
			t.Fatalf("Create(%s): %v", n, err)
		}
	}
	if _, err := s.Delete(ctx, "two"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %v", tasks)
	}
	if _, ok := tasks["two"]; ok {
		t.Fatal("task two should be gone")
	}

	before := readDoc(t, s)
	if _, err := s.Delete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete(missing) error = %v, want ErrNotFound", err)
	}
	if after := readDoc(t, s); after != before {
		t.Fatal("deleting a missing task must leave the store unchanged")
	}
}

func TestStoreModify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Create(ctx, "bot-task", botTask); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Modify(ctx, "bot-task", MessagePatch("new words")); err != nil {
		t.Fatalf("Modify message: %v", err)
	}
	msg, err := s.Modify(ctx, "bot-task", IntervalPatch(90))
	if err != nil {
		t.Fatalf("Modify interval: %v", err)
	}
	if !strings.Contains(msg, "1m30s") {
		t.Fatalf("interval confirmation = %q", msg)
	}

	tasks, _ := s.List(ctx)
	want := Task{TotalWaitInterval: 90, Channel: "pogtv", TaskMessage: "new words"}
	if tasks["bot-task"] != want {
		t.Fatalf("task = %+v, want %+v", tasks["bot-task"], want)
	}

	if _, err := s.Modify(ctx, "missing", MessagePatch("x")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Modify(missing) error = %v, want ErrNotFound", err)
	}
	var ve *ValidationError
	if _, err := s.Modify(ctx, "bot-task", MessagePatch("")); !errors.As(err, &ve) {
		t.Fatalf("empty message should be rejected, got %v", err)
	}
}

func TestStoreRenamePreservesFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Create(ctx, "bot-task", botTask); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "taken", botTask); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Modify(ctx, "bot-task", RenamePatch("taken")); !errors.Is(err, ErrExists) {
		t.Fatalf("rename onto existing task error = %v, want ErrExists", err)
	}

	msg, err := s.Modify(ctx, "bot-task", RenamePatch("new-name"))
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if msg != `Task "bot-task" renamed to "new-name".` {
		t.Fatalf("rename confirmation = %q", msg)
	}
	tasks, _ := s.List(ctx)
	if _, ok := tasks["bot-task"]; ok {
		t.Fatal("old key should be removed")
	}
	if tasks["new-name"] != botTask {
		t.Fatalf("renamed task = %+v, want %+v", tasks["new-name"], botTask)
	}
}

func TestStoreClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	if _, err := s.Create(ctx, "bot-task", botTask); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := readDoc(t, s); got != string(emptyDocument) {
		t.Fatalf("document after clear = %q", got)
	}

	// Clear also repairs a corrupted document.
	writeDoc(t, s, `not json`)
	if _, err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear corrupted: %v", err)
	}
	if got := readDoc(t, s); got != string(emptyDocument) {
		t.Fatalf("document after clear = %q", got)
	}
}

func TestStoreInvalidDocumentBlocksMutations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	corrupt := `[{"bot-task":{"totalWaitInterval":5,"channel":"pogtv"}}]`
	writeDoc(t, s, corrupt)

	if _, err := s.Create(ctx, "other", botTask); !errors.Is(err, ErrInvalidStore) {
		t.Fatalf("Create error = %v, want ErrInvalidStore", err)
	}
	if _, err := s.Modify(ctx, "bot-task", MessagePatch("x")); !errors.Is(err, ErrInvalidStore) {
		t.Fatalf("Modify error = %v, want ErrInvalidStore", err)
	}
	if _, err := s.Delete(ctx, "bot-task"); !errors.Is(err, ErrInvalidStore) {
		t.Fatalf("Delete error = %v, want ErrInvalidStore", err)
	}
	if got := readDoc(t, s); got != corrupt {
		t.Fatalf("corrupted document must not be rewritten, got %q", got)
	}

	// Repairing the file makes the store usable again.
	writeDoc(t, s, `[{"bot-task":{"totalWaitInterval":5,"channel":"pogtv","taskMessage":"x"}}]`)
	if _, err := s.Delete(ctx, "bot-task"); err != nil {
		t.Fatalf("Delete after repair: %v", err)
	}
}

func TestStoreModifyLogsMalformedRecord(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "tasks.json")
	s := NewStore(path, storage.OSFiles{}, logx.NewJSON(&buf, "debug"))
	if err := os.WriteFile(path, []byte(`[{"bot-task":{"totalWaitInterval":5,"channel":"pogtv"}}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Modify(ctx, "bot-task", MessagePatch("x")); !errors.Is(err, ErrInvalidStore) {
		t.Fatalf("Modify error = %v, want ErrInvalidStore", err)
	}
	out := buf.String()
	if !strings.Contains(out, "malformed task record") || !strings.Contains(out, `"task":"bot-task"`) {
		t.Fatalf("expected malformed record diagnostic, got:\n%s", out)
	}

	// No diagnostic for a task that isn't the malformed one.
	buf.Reset()
	_, _ = s.Modify(ctx, "someone-else", MessagePatch("x"))
	if strings.Contains(buf.String(), "malformed task record") {
		t.Fatalf("unexpected diagnostic:\n%s", buf.String())
	}
}

type brokenFiles struct{ storage.OSFiles }

func (brokenFiles) ReadFile(string) ([]byte, error) { return nil, fs.ErrPermission }
func (brokenFiles) WriteFile(string, []byte) error  { return fs.ErrPermission }

func TestStoreIOErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := NewStore(filepath.Join(t.TempDir(), "tasks.json"), brokenFiles{}, logx.Nop())

	if _, err := s.Create(ctx, "bot-task", botTask); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Create error = %v, want permission error", err)
	}
	if _, err := s.Clear(ctx); !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Clear error = %v, want permission error", err)
	}

	missing := NewStore(filepath.Join(t.TempDir(), "absent.json"), storage.OSFiles{}, logx.Nop())
	if _, err := missing.Delete(ctx, "bot-task"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("Delete on missing file error = %v, want ErrNotExist", err)
	}
}

func TestStoreCanceledContext(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Create(ctx, "bot-task", botTask); !errors.Is(err, context.Canceled) {
		t.Fatalf("Create error = %v, want context.Canceled", err)
	}
}

func TestStoreConcurrentCreates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	names := []string{"task-a", "task-b", "task-c", "task-d", "task-e", "task-f", "task-g", "task-h"}
	var wg sync.WaitGroup
	for _, n := range names {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Create(ctx, n, botTask); err != nil {
				t.Errorf("Create(%s): %v", n, err)
			}
		}()
	}
	wg.Wait()

	tasks, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tasks) != len(names) {
		t.Fatalf("expected %d tasks, got %d (lost update)", len(names), len(tasks))
	}
}

package task

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		ok      bool
		badTask string
	}{
		{name: "empty mapping", raw: `[{}]`, ok: true},
		{name: "one task", raw: `[{"bot-task":{"totalWaitInterval":7530,"channel":"pogtv","taskMessage":"my repeat message"}}]`, ok: true},
		{name: "pretty printed", raw: "[\n  {\n    \"a_b\": {\n      \"totalWaitInterval\": 1,\n      \"channel\": \"chan\",\n      \"taskMessage\": \"hi\"\n    }\n  }\n]\n", ok: true},
		{name: "not json", raw: `[{`, ok: false},
		{name: "object root", raw: `{}`, ok: false},
		{name: "empty array", raw: `[]`, ok: false},
		{name: "two elements", raw: `[{},{}]`, ok: false},
		{name: "null element", raw: `[null]`, ok: false},
		{name: "two fields", raw: `[{"bot-task":{"totalWaitInterval":5,"channel":"pogtv"}}]`, badTask: "bot-task"},
		{name: "extra field", raw: `[{"bot-task":{"totalWaitInterval":5,"channel":"pogtv","taskMessage":"x","extra":1}}]`, badTask: "bot-task"},
		{name: "wrong order", raw: `[{"bot-task":{"channel":"pogtv","totalWaitInterval":5,"taskMessage":"x"}}]`, badTask: "bot-task"},
		{name: "string interval", raw: `[{"bot-task":{"totalWaitInterval":"5","channel":"pogtv","taskMessage":"x"}}]`, badTask: "bot-task"},
		{name: "float interval", raw: `[{"bot-task":{"totalWaitInterval":5.5,"channel":"pogtv","taskMessage":"x"}}]`, badTask: "bot-task"},
		{name: "zero interval", raw: `[{"bot-task":{"totalWaitInterval":0,"channel":"pogtv","taskMessage":"x"}}]`, badTask: "bot-task"},
		{name: "huge interval", raw: `[{"bot-task":{"totalWaitInterval":99999999999999999999,"channel":"pogtv","taskMessage":"x"}}]`, badTask: "bot-task"},
		{name: "upper channel", raw: `[{"bot-task":{"totalWaitInterval":5,"channel":"PogTV","taskMessage":"x"}}]`, badTask: "bot-task"},
		{name: "empty message", raw: `[{"bot-task":{"totalWaitInterval":5,"channel":"pogtv","taskMessage":""}}]`, badTask: "bot-task"},
		{name: "bad name", raw: `[{"x":{"totalWaitInterval":5,"channel":"pogtv","taskMessage":"x"}}]`, badTask: "x"},
		{name: "record not object", raw: `[{"bot-task":[]}]`, badTask: "bot-task"},
		{name: "duplicate name", raw: `[{"abc":{"totalWaitInterval":5,"channel":"pogtv","taskMessage":"x"},"abc":{"totalWaitInterval":5,"channel":"pogtv","taskMessage":"x"}}]`, badTask: "abc"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateDocument([]byte(tt.raw))
			if tt.ok {
				if err != nil {
					t.Fatalf("ValidateDocument() error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidStore) {
				t.Fatalf("error %v does not wrap ErrInvalidStore", err)
			}
			var cerr *CorruptionError
			if !errors.As(err, &cerr) {
				t.Fatalf("error %T is not *CorruptionError", err)
			}
			if cerr.Task != tt.badTask {
				t.Fatalf("Task = %q, want %q (reason %q)", cerr.Task, tt.badTask, cerr.Reason)
			}
		})
	}
}

func TestEncodeDocumentLayout(t *testing.T) {
	t.Parallel()
	b, err := encodeDocument(Tasks{
		"zeta": {TotalWaitInterval: 60, Channel: "chan", TaskMessage: "<b>&"},
		"beta": {TotalWaitInterval: 7530, Channel: "pogtv", TaskMessage: "my repeat message"},
	})
	if err != nil {
		t.Fatalf("encodeDocument: %v", err)
	}
	want := `[
  {
    "beta": {
      "totalWaitInterval": 7530,
      "channel": "pogtv",
      "taskMessage": "my repeat message"
    },
    "zeta": {
      "totalWaitInterval": 60,
      "channel": "chan",
      "taskMessage": "<b>&"
    }
  }
]
`
	if string(b) != want {
		t.Fatalf("unexpected layout:\n%s\nwant:\n%s", b, want)
	}
	if err := ValidateDocument(b); err != nil {
		t.Fatalf("encoded document should validate: %v", err)
	}
}

func TestEmptyDocument(t *testing.T) {
	t.Parallel()
	if got := strings.TrimSpace(string(emptyDocument)); got != "[\n  {}\n]" {
		t.Fatalf("emptyDocument = %q", got)
	}
	tasks, err := decodeDocument(emptyDocument)
	if err != nil {
		t.Fatalf("decodeDocument: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %v", tasks)
	}
}

func TestLookupRecord(t *testing.T) {
	t.Parallel()
	raw := []byte(`[{"bot-task":{"totalWaitInterval":5,"channel":"pogtv"},"other":{}}]`)
	rec, n, ok := lookupRecord(raw, "bot-task")
	if !ok || n != 2 {
		t.Fatalf("lookupRecord() = (%v, %d, %v), want 2 fields", rec.Raw, n, ok)
	}
	if _, n, ok := lookupRecord(raw, "other"); !ok || n != 0 {
		t.Fatalf("lookupRecord(other) = (%d, %v), want (0, true)", n, ok)
	}
	if _, _, ok := lookupRecord(raw, "missing"); ok {
		t.Fatal("lookupRecord(missing) should not find a record")
	}
}

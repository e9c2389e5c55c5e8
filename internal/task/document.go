package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// canonicalFields is the exact field list, in order, of every stored record.
var canonicalFields = [...]string{"totalWaitInterval", "channel", "taskMessage"}

var rePositiveInt = regexp.MustCompile(`^[1-9][0-9]*$`)

// emptyDocument is the serialized form of a store with no tasks.
var emptyDocument = mustEncode(Tasks{})

// ValidateDocument checks a serialized store.
//
// The document must be a one-element array holding an object whose every
// value has exactly totalWaitInterval, channel and taskMessage, in that order,
// each matching its field rule. The first problem found is returned as a
// *CorruptionError (which unwraps to ErrInvalidStore).
func ValidateDocument(raw []byte) error {
	if !gjson.ValidBytes(raw) {
		return &CorruptionError{Reason: "not valid JSON"}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		return &CorruptionError{Reason: "document is not an array"}
	}
	items := root.Array()
	if len(items) != 1 {
		return &CorruptionError{Reason: fmt.Sprintf("document has %d elements, want 1", len(items))}
	}
	mapping := items[0]
	if !mapping.IsObject() {
		return &CorruptionError{Reason: "document element is not an object"}
	}

	var cerr *CorruptionError
	seen := map[string]struct{}{}
	mapping.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, dup := seen[name]; dup {
			cerr = &CorruptionError{Task: name, Reason: "duplicate task name"}
			return false
		}
		seen[name] = struct{}{}
		if reason := checkRecord(name, value); reason != "" {
			cerr = &CorruptionError{Task: name, Reason: reason}
			return false
		}
		return true
	})
	if cerr != nil {
		return cerr
	}
	return nil
}

// Valid reports whether raw passes ValidateDocument.
func Valid(raw []byte) bool { return ValidateDocument(raw) == nil }

func checkRecord(name string, v gjson.Result) string {
	if !ValidName(name) {
		return "name breaks the naming rule"
	}
	if !v.IsObject() {
		return "record is not an object"
	}

	i := 0
	reason := ""
	v.ForEach(func(k, f gjson.Result) bool {
		if i >= len(canonicalFields) {
			reason = fmt.Sprintf("unexpected field %q", k.String())
			return false
		}
		if k.String() != canonicalFields[i] {
			reason = fmt.Sprintf("field %d is %q, want %q", i+1, k.String(), canonicalFields[i])
			return false
		}
		switch i {
		case 0:
			if f.Type != gjson.Number || !rePositiveInt.MatchString(f.Raw) {
				reason = "totalWaitInterval is not a positive integer"
				return false
			}
			if n, err := strconv.ParseInt(f.Raw, 10, 64); err != nil || n > MaxInterval {
				reason = "totalWaitInterval is out of range"
				return false
			}
		case 1:
			if f.Type != gjson.String || !ValidChannel(f.Str) || f.Str != strings.ToLower(f.Str) {
				reason = "channel breaks the channel rule"
				return false
			}
		case 2:
			if f.Type != gjson.String || f.Str == "" {
				reason = "taskMessage is empty or not a string"
				return false
			}
		}
		i++
		return true
	})
	if reason == "" && i != len(canonicalFields) {
		reason = fmt.Sprintf("record has %d fields, want %d", i, len(canonicalFields))
	}
	return reason
}

// lookupRecord finds the raw record stored under name without requiring
// the document to be valid. It returns the record and its field count.
func lookupRecord(raw []byte, name string) (gjson.Result, int, bool) {
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, 0, false
	}
	mapping := gjson.ParseBytes(raw).Get("0")
	if !mapping.IsObject() {
		return gjson.Result{}, 0, false
	}
	var (
		rec   gjson.Result
		found bool
	)
	mapping.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			rec, found = value, true
			return false
		}
		return true
	})
	if !found {
		return gjson.Result{}, 0, false
	}
	n := 0
	if rec.IsObject() {
		rec.ForEach(func(_, _ gjson.Result) bool {
			n++
			return true
		})
	}
	return rec, n, true
}

// decodeDocument turns a validated document into Tasks.
func decodeDocument(raw []byte) (Tasks, error) {
	var doc []Tasks
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode task list: %w", err)
	}
	if len(doc) != 1 {
		return nil, &CorruptionError{Reason: fmt.Sprintf("document has %d elements, want 1", len(doc))}
	}
	if doc[0] == nil {
		return Tasks{}, nil
	}
	return doc[0], nil
}

// encodeDocument serializes tasks in the persisted layout: a one-element
// array, names sorted, two-space indentation.
func encodeDocument(tasks Tasks) ([]byte, error) {
	if tasks == nil {
		tasks = Tasks{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode([]Tasks{tasks}); err != nil {
		return nil, fmt.Errorf("encode task list: %w", err)
	}
	return pretty.Pretty(buf.Bytes()), nil
}

func mustEncode(tasks Tasks) []byte {
	b, err := encodeDocument(tasks)
	if err != nil {
		panic(err)
	}
	return b
}

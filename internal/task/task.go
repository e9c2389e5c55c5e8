package task

import "strings"

const (
	// DBPath is the default location of the task document.
	DBPath = "./data/tasks.json"
	// TestDBPath is used instead of DBPath when the environment is "test".
	TestDBPath = "./data/tasks.test.json"
)

// Task is a named recurring-message definition.
// Field order is the canonical serialized order.
type Task struct {
	TotalWaitInterval int64  `json:"totalWaitInterval"`
	Channel           string `json:"channel"`
	TaskMessage       string `json:"taskMessage"`
}

// Tasks maps task name to Task.
type Tasks map[string]Task

// PatchKind selects which part of a Task a Patch changes.
type PatchKind int

const (
	PatchMessage PatchKind = iota + 1
	PatchInterval
	PatchChannel
	PatchRename
)

func (k PatchKind) String() string {
	switch k {
	case PatchMessage:
		return "message"
	case PatchInterval:
		return "interval"
	case PatchChannel:
		return "channel"
	case PatchRename:
		return "name"
	default:
		return "unknown"
	}
}

// Patch is a single-field change applied by Store.Modify.
// Only the field matching Kind is read.
type Patch struct {
	Kind     PatchKind
	Message  string
	Interval int64
	Channel  string
	Name     string
}

func MessagePatch(msg string) Patch     { return Patch{Kind: PatchMessage, Message: msg} }
func IntervalPatch(seconds int64) Patch { return Patch{Kind: PatchInterval, Interval: seconds} }
func ChannelPatch(channel string) Patch { return Patch{Kind: PatchChannel, Channel: channel} }
func RenamePatch(newName string) Patch  { return Patch{Kind: PatchRename, Name: newName} }

// apply merges p onto t. Rename does not touch field values.
func (p Patch) apply(t Task) Task {
	switch p.Kind {
	case PatchMessage:
		t.TaskMessage = p.Message
	case PatchInterval:
		t.TotalWaitInterval = p.Interval
	case PatchChannel:
		t.Channel = strings.ToLower(p.Channel)
	}
	return t
}

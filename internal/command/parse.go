package command

import (
	"strings"

	"repeatbot/internal/task"
)

// Kind tags a parsed Request.
type Kind int

const (
	KindCreate Kind = iota + 1
	KindModify
	KindDelete
	KindClear
	KindList
	KindHelp
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindModify:
		return "modify"
	case KindDelete:
		return "delete"
	case KindClear:
		return "clear"
	case KindList:
		return "list"
	case KindHelp:
		return "help"
	default:
		return "invalid"
	}
}

// Request is a parsed and field-validated command.
//
//   - KindCreate: Name + Task
//   - KindModify: Name + Patch
//   - KindDelete: Name
//   - KindClear, KindList, KindHelp: no payload
type Request struct {
	Kind  Kind
	Name  string
	Task  task.Task
	Patch task.Patch
}

func is(tok, word string) bool { return strings.EqualFold(tok, word) }

func isPhrase(toks []string, words ...string) bool {
	if len(toks) != len(words) {
		return false
	}
	for i, w := range words {
		if !is(toks[i], w) {
			return false
		}
	}
	return true
}

// Parse turns command text into a Request.
//
// The first token must equal prefix (case-insensitive) or ErrNotCommand is
// returned; an empty prefix accepts any text. Malformed shapes yield a
// *UsageError, and the first field that breaks its rule yields a
// *task.ValidationError.
func Parse(text, prefix string) (Request, error) {
	toks := strings.Fields(text)
	if prefix != "" {
		if len(toks) == 0 || !is(toks[0], prefix) {
			return Request{}, ErrNotCommand
		}
		toks = toks[1:]
	} else if len(toks) == 0 {
		return Request{}, ErrNotCommand
	}

	switch {
	case len(toks) == 0, isPhrase(toks, "help"):
		return Request{Kind: KindHelp}, nil
	case isPhrase(toks, "clear", "task", "list"):
		return Request{Kind: KindClear}, nil
	case isPhrase(toks, "list", "tasks"):
		return Request{Kind: KindList}, nil
	case is(toks[0], "modify"):
		return parseModify(toks[1:], prefix)
	default:
		return parseCreate(toks, prefix)
	}
}

// parseCreate reads "<message...> every <interval> on <channel> named <name>".
// Message tokens are rejoined with single spaces.
func parseCreate(toks []string, prefix string) (Request, error) {
	if len(toks) < 7 {
		return Request{}, usageErr(createUsage(prefix))
	}
	meta := toks[len(toks)-6:]
	if !is(meta[0], "every") || !is(meta[2], "on") || !is(meta[4], "named") {
		return Request{}, usageErr(createUsage(prefix))
	}
	interval, channel, name := meta[1], meta[3], meta[5]

	if err := task.Validate(task.Fields{Interval: &interval, Channel: &channel, Name: &name}); err != nil {
		return Request{}, err
	}
	secs, err := parseSeconds(interval)
	if err != nil {
		return Request{}, err
	}

	msg := strings.Join(toks[:len(toks)-6], " ")
	return Request{
		Kind: KindCreate,
		Name: name,
		Task: task.Task{
			TotalWaitInterval: secs,
			Channel:           strings.ToLower(channel),
			TaskMessage:       msg,
		},
	}, nil
}

// parseModify reads what follows "modify":
//
//	<name> say <message...>
//	<name> every|on|named <value>
//	<name> remove|delete
func parseModify(toks []string, prefix string) (Request, error) {
	if len(toks) < 2 {
		return Request{}, usageErr(modifyUsage(prefix))
	}
	name := toks[0]
	if err := task.Validate(task.Fields{Name: &name}); err != nil {
		return Request{}, err
	}

	op := strings.ToLower(toks[1])
	rest := toks[2:]
	switch op {
	case "remove", "delete":
		if len(rest) != 0 {
			return Request{}, usageErr(modifyUsage(prefix))
		}
		return Request{Kind: KindDelete, Name: name}, nil

	case "say":
		if len(rest) == 0 {
			return Request{}, usageErr(modifyUsage(prefix))
		}
		msg := strings.Join(rest, " ")
		return Request{Kind: KindModify, Name: name, Patch: task.MessagePatch(msg)}, nil
	}

	if len(rest) != 1 {
		return Request{}, usageErr(modifyUsage(prefix))
	}
	val := rest[0]
	switch op {
	case "every":
		if err := task.Validate(task.Fields{Interval: &val}); err != nil {
			return Request{}, err
		}
		secs, err := parseSeconds(val)
		if err != nil {
			return Request{}, err
		}
		return Request{Kind: KindModify, Name: name, Patch: task.IntervalPatch(secs)}, nil
	case "on":
		if err := task.Validate(task.Fields{Channel: &val}); err != nil {
			return Request{}, err
		}
		return Request{Kind: KindModify, Name: name, Patch: task.ChannelPatch(strings.ToLower(val))}, nil
	case "named":
		if err := task.Validate(task.Fields{Name: &val}); err != nil {
			return Request{}, err
		}
		return Request{Kind: KindModify, Name: name, Patch: task.RenamePatch(val)}, nil
	default:
		return Request{}, usageErr(modifyUsage(prefix))
	}
}

func parseSeconds(interval string) (int64, error) {
	secs := task.ParseInterval(interval)
	if secs == 0 {
		return 0, &task.ValidationError{Field: "interval", Message: task.MsgIntervalRange}
	}
	return secs, nil
}

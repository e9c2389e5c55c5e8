package command

import "strings"

func createUsage(prefix string) string {
	return "Usage: " + withPrefix(prefix, "<message> every <h:m:s|m:s|s> on <channel> named <task-name>")
}

func modifyUsage(prefix string) string {
	return "Usage: " + withPrefix(prefix, "modify <task-name> say|every|on|named <value>") +
		" or " + withPrefix(prefix, "modify <task-name> remove|delete")
}

// Help lists every command form.
func Help(prefix string) string {
	lines := []string{
		"Commands:",
		"  " + withPrefix(prefix, "<message> every <h:m:s|m:s|s> on <channel> named <task-name>"),
		"  " + withPrefix(prefix, "modify <task-name> say|every|on|named <value>"),
		"  " + withPrefix(prefix, "modify <task-name> remove|delete"),
		"  " + withPrefix(prefix, "list tasks"),
		"  " + withPrefix(prefix, "clear task list"),
	}
	return strings.Join(lines, "\n")
}

func withPrefix(prefix, rest string) string {
	if prefix == "" {
		return rest
	}
	return prefix + " " + rest
}

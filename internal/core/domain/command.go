package domain

import (
	"fmt"
	"strings"
	"time"
)

type CommandKind string

const (
	CommandStatus CommandKind = "status"
	CommandIn     CommandKind = "in"
	CommandOut    CommandKind = "out"
	CommandSleep  CommandKind = "sleep"
	CommandKill   CommandKind = "kill"
)

// Command is a parsed chat command. Fallback marks a SLEEP produced by text
// that matched no token.
type Command struct {
	Kind     CommandKind
	At       *string
	Fallback bool
}

type commandEntry struct {
	trigger string
	kind    CommandKind
}

// CommandTable matches prefixed text against the commands in a fixed order.
// The first trigger the text starts with wins, so "!inside" is an IN.
type CommandTable struct {
	prefix  string
	entries []commandEntry
}

var commandOrder = []CommandKind{CommandStatus, CommandIn, CommandOut, CommandSleep, CommandKill}

func NewCommandTable(prefix string) *CommandTable {
	prefix = strings.ToLower(prefix)
	entries := make([]commandEntry, 0, len(commandOrder))
	for _, kind := range commandOrder {
		entries = append(entries, commandEntry{trigger: prefix + string(kind), kind: kind})
	}
	return &CommandTable{prefix: prefix, entries: entries}
}

// Trigger returns the chat text that invokes kind.
func (t *CommandTable) Trigger(kind CommandKind) string {
	return t.prefix + string(kind)
}

// Parse turns raw chat text into a Command. Text without the prefix yields
// ErrNotCommand. An IN with an unreadable time is still returned, without a
// time, together with ErrInvalidTime.
func (t *CommandTable) Parse(text string) (Command, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if !strings.HasPrefix(lower, t.prefix) {
		return Command{}, ErrNotCommand
	}

	for _, entry := range t.entries {
		if !strings.HasPrefix(lower, entry.trigger) {
			continue
		}

		cmd := Command{Kind: entry.kind}
		if entry.kind != CommandIn {
			return cmd, nil
		}

		arg := ParseCommandArg(text)
		if arg == "" {
			return cmd, nil
		}

		at, err := NormalizeTime(arg)
		if err != nil {
			return cmd, err
		}
		cmd.At = &at

		return cmd, nil
	}

	return Command{Kind: CommandSleep, Fallback: true}, nil
}

// ParseCommandArg returns the second whitespace separated word of args.
func ParseCommandArg(args string) string {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

var timeLayouts = []string{
	"15:04",
	"15h04",
	"15h",
	"15.04",
	"1504",
	"15",
	"3:04pm",
	"3pm",
}

// NormalizeTime reads a loose time of day ("21:30", "21h", "9pm", "2130")
// and renders it as 24-hour HH:MM.
func NormalizeTime(expr string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(expr))
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return parsed.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTime, expr)
}

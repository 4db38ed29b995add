package statement

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownCommand is returned when a command name is not in the vocabulary.
var ErrUnknownCommand = errors.New("unknown command")

// Kind is the compiler dispatch path of a command.
type Kind string

const (
	// KindRead selects rows.
	KindRead Kind = "read"
	// KindInsert inserts rows.
	KindInsert Kind = "insert"
	// KindUpdate updates rows.
	KindUpdate Kind = "update"
	// KindDelete deletes rows.
	KindDelete Kind = "delete"
	// KindCount counts rows.
	KindCount Kind = "count"
	// KindAverage averages a column.
	KindAverage Kind = "average"
)

// IsWrite reports whether the kind modifies rows.
func (k Kind) IsWrite() bool {
	return k == KindInsert || k == KindUpdate || k == KindDelete
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindRead, KindInsert, KindUpdate, KindDelete, KindCount, KindAverage:
		return k, nil
	}
	return "", fmt.Errorf("invalid command kind: %q", s)
}

// Command is a resolved vocabulary entry.
type Command struct {
	Name string
	Kind Kind
	// Single caps a read to one row when no limit is given.
	Single bool
}

// UnknownCommandError names the command that could not be resolved.
type UnknownCommandError struct {
	Command string
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Command)
}

// Is matches ErrUnknownCommand.
func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// Vocabulary maps lower-cased command names to commands.
type Vocabulary map[string]Command

// DefaultVocabulary returns the built-in command names.
func DefaultVocabulary() Vocabulary {
	v := Vocabulary{}
	for _, name := range []string{"read", "select", "find", "findmany"} {
		v[name] = Command{Name: name, Kind: KindRead}
	}
	v["findfirst"] = Command{Name: "findfirst", Kind: KindRead, Single: true}
	for _, name := range []string{"insert", "create", "insertone", "insertmany", "createmany"} {
		v[name] = Command{Name: name, Kind: KindInsert}
	}
	for _, name := range []string{"update", "updateone", "updatemany"} {
		v[name] = Command{Name: name, Kind: KindUpdate}
	}
	for _, name := range []string{"delete", "deleteone", "deletemany"} {
		v[name] = Command{Name: name, Kind: KindDelete}
	}
	v["count"] = Command{Name: "count", Kind: KindCount}
	v["average"] = Command{Name: "average", Kind: KindAverage}
	v["avg"] = Command{Name: "avg", Kind: KindAverage}
	return v
}

// With returns a copy of the vocabulary with extra name -> kind entries.
func (v Vocabulary) With(overrides map[string]string) (Vocabulary, error) {
	out := make(Vocabulary, len(v)+len(overrides))
	for name, cmd := range v {
		out[name] = cmd
	}
	for name, kindName := range overrides {
		kind, err := ParseKind(kindName)
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", name, err)
		}
		key := strings.ToLower(name)
		out[key] = Command{Name: key, Kind: kind}
	}
	return out, nil
}

// Resolve looks a command name up case-insensitively.
func (v Vocabulary) Resolve(name string) (Command, error) {
	cmd, ok := v[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Command{}, &UnknownCommandError{Command: name}
	}
	return cmd, nil
}

// Names returns the sorted command names.
func (v Vocabulary) Names() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

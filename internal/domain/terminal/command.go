package terminal

import "strings"

// Kind classifies a line of input
type Kind int

const (
	KindNoop Kind = iota
	KindClear
	KindCd
	KindExit
	KindHistory
	KindShell
)

var kindNames = map[Kind]string{
	KindNoop:    "noop",
	KindClear:   "clear",
	KindCd:      "cd",
	KindExit:    "exit",
	KindHistory: "history",
	KindShell:   "shell",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Builtin reports whether the kind is handled without spawning a process
func (k Kind) Builtin() bool {
	return k != KindShell
}

// Classify splits trimmed input into its kind and argument. For cd the
// argument is the target path; for shell commands it is the whole line.
func Classify(input string) (Kind, string) {
	input = strings.TrimSpace(input)

	switch {
	case input == "":
		return KindNoop, ""
	case input == "clear":
		return KindClear, ""
	case input == "exit", input == "quit":
		return KindExit, ""
	case input == "history":
		return KindHistory, ""
	case input == "cd":
		return KindCd, ""
	case strings.HasPrefix(input, "cd "):
		return KindCd, strings.TrimSpace(input[len("cd "):])
	default:
		return KindShell, input
	}
}

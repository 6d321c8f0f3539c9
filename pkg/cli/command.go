package cli

import (
	"fmt"
	"os"
)

// Command is one subcommand of a multi-tool binary.
type Command struct {
	Name    string
	Summary string
	// Usage is the argument synopsis shown after the command name.
	Usage string
	Run   func(args []string) error
}

// Dispatch runs the subcommand named by the first argument and returns
// the process exit code. An empty argument list, "help" or an unknown
// name print the command list.
func Dispatch(prog string, commands []Command, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printCommandList(prog, commands)
		if len(args) == 0 {
			return 1
		}
		return 0
	}

	name := args[0]
	for _, cmd := range commands {
		if cmd.Name != name {
			continue
		}
		if err := cmd.Run(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", prog, name, err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(os.Stderr, "%s: unknown command %q\n\n", prog, name)
	printCommandList(prog, commands)
	return 1
}

func printCommandList(prog string, commands []Command) {
	fmt.Fprintf(os.Stderr, "Usage:\n  %s <command> [arguments]\n\nCommands:\n", prog)
	for _, cmd := range commands {
		synopsis := cmd.Name
		if cmd.Usage != "" {
			synopsis += " " + cmd.Usage
		}
		fmt.Fprintf(os.Stderr, "  %-40s %s\n", synopsis, cmd.Summary)
	}
}

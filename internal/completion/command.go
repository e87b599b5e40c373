package completion

import (
	"context"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/interp"
)

const completeUsage = `Usage: complete [-pr] [-W wordlist] [-C command] name
       complete -p [name]
       complete -r [name]

Options:
  -p          Print existing completion specifications
  -r          Remove completion specification for name
  -W wordlist Use wordlist (space-separated words) for completion
  -C command  Execute command for generating completions
  -h, --help  Show this help message

Examples:
  complete -W "start stop restart" service
  complete -C "mytool --complete" mytool
  complete -p service
  complete -r service`

// NewCompleteCommandHandler implements the complete builtin. Specs land
// in the registry the tab-completion sources read from.
func NewCompleteCommandHandler(registry *SpecRegistry) func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
		return func(ctx context.Context, args []string) error {
			if len(args) == 0 || args[0] != "complete" {
				return next(ctx, args)
			}
			hc := interp.HandlerCtx(ctx)
			if err := runComplete(registry, args[1:], hc.Stdout); err != nil {
				fmt.Fprintf(hc.Stderr, "complete: %v\n", err)
				return interp.NewExitStatus(2)
			}
			return nil
		}
	}
}

func runComplete(registry *SpecRegistry, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		printSpecs(registry.List(), stdout)
		return nil
	}

	var (
		printMode  bool
		removeMode bool
		wordList   string
		external   string
		command    string
	)

	for i := 0; i < len(args); i++ {
		switch arg := args[i]; arg {
		case "-h", "--help":
			fmt.Fprintln(stdout, completeUsage)
			return nil
		case "-p":
			printMode = true
		case "-r":
			removeMode = true
		case "-W":
			i++
			if i >= len(args) {
				return fmt.Errorf("option -W requires a word list")
			}
			wordList = args[i]
		case "-C":
			i++
			if i >= len(args) {
				return fmt.Errorf("option -C requires a command")
			}
			external = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return fmt.Errorf("unknown option: %s", arg)
			}
			command = arg
		}
	}

	switch {
	case printMode:
		if command == "" {
			printSpecs(registry.List(), stdout)
			return nil
		}
		if spec, ok := registry.Get(command); ok {
			printSpecs([]Spec{spec}, stdout)
		}
		return nil
	case command == "":
		return fmt.Errorf("no command specified")
	case removeMode:
		registry.Remove(command)
		return nil
	case wordList != "":
		registry.Add(Spec{Command: command, Kind: WordListSpec, Value: wordList})
		return nil
	case external != "":
		registry.Add(Spec{Command: command, Kind: CommandSpec, Value: external})
		return nil
	default:
		return fmt.Errorf("missing completion action: use -W or -C")
	}
}

func printSpecs(specs []Spec, stdout io.Writer) {
	for _, spec := range specs {
		switch spec.Kind {
		case WordListSpec:
			fmt.Fprintf(stdout, "complete -W %q %s\n", spec.Value, spec.Command)
		case CommandSpec:
			fmt.Fprintf(stdout, "complete -C %q %s\n", spec.Value, spec.Command)
		}
	}
}

// Package repl provides an interactive shell for trying out expressions,
// matchers and test runs against a loaded project.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"proctor/internal/app"
	"proctor/internal/matcher"
	"proctor/internal/testcontext"
	"proctor/pkg/logging"
)

const subsystem = "REPL"

const prompt = "proctor » "

// errExit ends the loop.
var errExit = errors.New("exit")

type command struct {
	usage       string
	description string
	run         func(ctx context.Context, args string) error
}

// REPL evaluates expressions in a session context that keeps variables
// between lines.
type REPL struct {
	app      *app.Application
	out      io.Writer
	session  *testcontext.Context
	commands map[string]command
}

// New creates a REPL writing to out.
func New(application *app.Application, out io.Writer) (*REPL, error) {
	session, err := application.NewContext(nil)
	if err != nil {
		return nil, err
	}

	r := &REPL{
		app:     application,
		out:     out,
		session: session,
	}
	r.registerCommands()
	return r, nil
}

func (r *REPL) registerCommands() {
	r.commands = map[string]command{
		"help":      {"help", "Show this help", r.help},
		"set":       {"set <name> <expression>", "Evaluate an expression and store it as variable", r.set},
		"vars":      {"vars", "List the session variables", r.vars},
		"clear":     {"clear", "Reset the session to the global variables", r.clear},
		"functions": {"functions [prefix]", "List available functions", r.functions},
		"matchers":  {"matchers", "List available validation matchers", r.matchers},
		"validate":  {"validate <value> <matcher>", "Check a value against a matcher expression", r.validate},
		"run":       {"run [pattern...]", "Run the test cases matching the patterns", r.run},
		"exit":      {"exit", "Leave the shell", func(context.Context, string) error { return errExit }},
	}
}

// Execute handles one input line. Lines that do not start with a command
// are evaluated as expressions.
func (r *REPL) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	name, args, _ := strings.Cut(line, " ")
	switch name {
	case "quit":
		name = "exit"
	case "?":
		name = "help"
	}
	if cmd, ok := r.commands[strings.ToLower(name)]; ok {
		return cmd.run(ctx, strings.TrimSpace(args))
	}

	result, err := r.session.Evaluate(line)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, result)
	return nil
}

func (r *REPL) help(context.Context, string) error {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(r.out, "Commands:")
	for _, name := range names {
		fmt.Fprintf(r.out, "  %-28s %s\n", r.commands[name].usage, r.commands[name].description)
	}
	fmt.Fprintln(r.out, "Anything else is evaluated, e.g. core:concat('Hello ', ${name})")
	return nil
}

func (r *REPL) set(_ context.Context, args string) error {
	name, expression, ok := strings.Cut(args, " ")
	if !ok {
		return fmt.Errorf("usage: set <name> <expression>")
	}

	value, err := r.session.Evaluate(strings.TrimSpace(expression))
	if err != nil {
		return err
	}
	if err := r.session.SetVariable(name, value); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s = %s\n", name, value)
	return nil
}

func (r *REPL) vars(context.Context, string) error {
	values := r.session.Variables()
	for _, name := range r.session.Names() {
		fmt.Fprintf(r.out, "%s = %s\n", name, values[name])
	}
	return nil
}

func (r *REPL) clear(context.Context, string) error {
	r.session.Clear()
	fmt.Fprintln(r.out, "Session reset")
	return nil
}

func (r *REPL) functions(_ context.Context, prefix string) error {
	for _, lib := range r.app.Registry().Libraries() {
		if prefix != "" && !strings.HasPrefix(lib.Prefix, prefix) {
			continue
		}
		fmt.Fprintf(r.out, "%s (%s)\n", lib.Name, lib.Prefix)
		for _, name := range lib.Names() {
			fmt.Fprintf(r.out, "  %s%s  %s\n", lib.Prefix, name, lib.Description(name))
		}
	}
	return nil
}

func (r *REPL) matchers(context.Context, string) error {
	for _, name := range matcher.Names() {
		fmt.Fprintf(r.out, "@%s@\n", name)
	}
	return nil
}

func (r *REPL) validate(_ context.Context, args string) error {
	value, expression, ok := strings.Cut(args, " ")
	if !ok {
		return fmt.Errorf("usage: validate <value> <matcher>")
	}

	resolved, err := r.session.Evaluate(value)
	if err != nil {
		return err
	}
	if err := matcher.Validate("value", resolved, strings.TrimSpace(expression)); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "valid")
	return nil
}

func (r *REPL) run(ctx context.Context, args string) error {
	summary, err := r.app.RunWith(ctx, app.RunOptions{Include: strings.Fields(args)})
	if err != nil && !errors.Is(err, app.ErrTestsFailed) {
		return err
	}
	fmt.Fprintf(r.out, "%d passed, %d failed, %d skipped\n", summary.Passed, summary.Failed, summary.Skipped)
	return nil
}

func (r *REPL) completer() *readline.PrefixCompleter {
	var functionItems []readline.PrefixCompleterInterface
	for _, lib := range r.app.Registry().Libraries() {
		functionItems = append(functionItems, readline.PcItem(lib.Prefix))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("set"),
		readline.PcItem("vars"),
		readline.PcItem("clear"),
		readline.PcItem("functions", functionItems...),
		readline.PcItem("matchers"),
		readline.PcItem("validate"),
		readline.PcItem("run"),
		readline.PcItem("exit"),
	)
}

// Run reads lines until EOF, exit or context cancellation.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       filepath.Join(os.TempDir(), ".proctor_history"),
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	logging.Debug(subsystem, "Session started with %d variables", len(r.session.Names()))
	fmt.Fprintln(r.out, "Type 'help' for available commands.")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		if err := r.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(r.out, "Error: %v\n", err)
		}
	}
}

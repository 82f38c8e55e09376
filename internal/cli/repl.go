package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn and printFn are test seams for user-facing output. In tests,
// replace them with stubs.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Add(ctx context.Context, plate string, fields []string) error
	Show(ctx context.Context, plate string) error
	List(ctx context.Context) error
	Remove(ctx context.Context, plate string) error
	Search(ctx context.Context, filter string) error
	Match(ctx context.Context, matchAll bool, fields []string) error
	Stats(ctx context.Context, store string) error
}

const helpText = `Available commands:
  add <plate> [field=value ...]   add a car (fields: brand, displacement, color, type, country)
  show <plate>                    show a car
  list                            list plates in insertion order
  remove <plate>                  remove a car
  search <filter>                 search with a filter, e.g. color = "red" AND displacement >= 1.6
  match all|any [field=value ...] search by example
  stats [store]                   show store sizes, or the raw keys of one store
  help                            show this help
  exit | quit                     leave the program`

// runREPL reads commands from scanner until EOF, "exit" or "quit" and
// dispatches them to a. Values containing spaces can be double quoted:
//
//	add ABC123 brand=Skoda country="czech republic"
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printFn("carmart> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		args := splitArgs(line)
		if len(args) == 0 {
			continue
		}
		cmd, args := args[0], args[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "add":
			if len(args) == 0 {
				printlnFn("Usage: add <plate> [field=value ...]")
				continue
			}
			err = a.Add(ctx, args[0], args[1:])

		case "show":
			if len(args) != 1 {
				printlnFn("Usage: show <plate>")
				continue
			}
			err = a.Show(ctx, args[0])

		case "l", "list":
			err = a.List(ctx)

		case "remove", "rm":
			if len(args) != 1 {
				printlnFn("Usage: remove <plate>")
				continue
			}
			err = a.Remove(ctx, args[0])

		case "search":
			// the filter is taken verbatim so its quotes survive
			err = a.Search(ctx, strings.TrimSpace(strings.TrimPrefix(line, cmd)))

		case "match":
			if len(args) == 0 || (args[0] != "all" && args[0] != "any") {
				printlnFn("Usage: match all|any [field=value ...]")
				continue
			}
			err = a.Match(ctx, args[0] == "all", args[1:])

		case "stats":
			if len(args) > 1 {
				printlnFn("Usage: stats [store]")
				continue
			}
			var store string
			if len(args) == 1 {
				store = args[0]
			}
			err = a.Stats(ctx, store)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("error:", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// splitArgs splits line on whitespace. Double quotes group words and are
// removed.
func splitArgs(line string) []string {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		inArg   bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			inArg = true
		case !quoted && (r == ' ' || r == '\t'):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if inArg {
		args = append(args, current.String())
	}
	return args
}

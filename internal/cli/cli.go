package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Check  *CheckCommand
	Show   *ShowCommand
	List   *ListCommand
	Mark   *MarkCommand
	Forget *ForgetCommand
	Prune  *PruneCommand
	Purge  *PurgeCommand
	Status *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "chronicle-banner"
	parser.LongDescription = "Tell visitors of a Datasette table page how many rows changed since their last visit."

	cmds := &commands{
		Check:  &CheckCommand{globals: &globals, version: version},
		Show:   &ShowCommand{globals: &globals, version: version},
		List:   &ListCommand{globals: &globals, version: version},
		Mark:   &MarkCommand{globals: &globals, version: version},
		Forget: &ForgetCommand{globals: &globals, version: version},
		Prune:  &PruneCommand{globals: &globals, version: version},
		Purge:  &PurgeCommand{globals: &globals, version: version},
		Status: &StatusCommand{globals: &globals, version: version},
	}

	parser.AddCommand("check", "Run the change check for a table page", "Read a table page, compare its chronicle version with the last visit, insert the change banner and record the visit.", cmds.Check)
	parser.AddCommand("show", "Print the stored record of a table", "Print the last visit recorded for one database table.", cmds.Show)
	parser.AddCommand("list", "List stored records", "List the last visit recorded for every table, optionally for one database.", cmds.List)
	parser.AddCommand("mark", "Record a table as seen", "Record a table as seen at a chronicle version without checking for changes.", cmds.Mark)
	parser.AddCommand("forget", "Delete the stored record of a table", "Delete the last visit recorded for one table. The next check is a first visit.", cmds.Forget)
	parser.AddCommand("prune", "Delete records of tables not visited recently", "Delete records whose last visit is older than a duration.", cmds.Prune)
	parser.AddCommand("purge", "Delete ALL records", "Delete ALL visit records. Destructive operation with safety prompt.", cmds.Purge)
	parser.AddCommand("status", "Show store statistics", "Show the storage backend, its location and record statistics.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("chronicle-banner %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}

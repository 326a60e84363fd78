package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// CheckCommand runs the change check for one table page.
type CheckCommand struct {
	Page       string `long:"page" description:"HTML page to read, - for stdin" default:"-"`
	Out        string `long:"out" description:"Write the resulting page to this file instead of stdout"`
	MaxVersion string `long:"max-version" description:"Latest chronicle version of the table (overrides the page)"`
	Database   string `long:"database" description:"Database name (overrides the page)"`
	Table      string `long:"table" description:"Table name (overrides the page)"`
	BaseURL    string `long:"base-url" description:"Database URL the count query is issued against"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // nil means os.Stdin
}

// ShowCommand prints the stored record of one table.
type ShowCommand struct {
	Database string `long:"database" description:"Database name (required)"`
	Table    string `long:"table" description:"Table name (required)"`

	globals *GlobalFlags
	version string
}

// ListCommand lists stored records.
type ListCommand struct {
	Database string `long:"database" description:"Only records of this database"`

	globals *GlobalFlags
	version string
}

// MarkCommand records a table as seen at a version.
type MarkCommand struct {
	Database   string `long:"database" description:"Database name (required)"`
	Table      string `long:"table" description:"Table name (required)"`
	MaxVersion string `long:"max-version" description:"Chronicle version to record (required)"`
	At         string `long:"at" description:"Visit time, RFC 3339 (default now)"`

	globals *GlobalFlags
	version string
}

// ForgetCommand deletes the stored record of one table.
type ForgetCommand struct {
	Database string `long:"database" description:"Database name (required)"`
	Table    string `long:"table" description:"Table name (required)"`

	globals *GlobalFlags
	version string
}

// PruneCommand deletes records of tables not visited for a while.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Delete records last visited longer ago than this (e.g., 30d)" default:"30d"`
	DryRun    bool   `long:"dry-run" description:"Show what would be pruned without deleting"`

	globals *GlobalFlags
	version string
}

// PurgeCommand deletes ALL records with safety confirmation.
type PurgeCommand struct {
	All   bool `long:"all" description:"Required flag to confirm purge intent"`
	Force bool `long:"force" description:"Skip safety confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // nil means os.Stdin
}

// StatusCommand shows the store location and statistics.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

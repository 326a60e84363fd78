package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/runnerr0/chronicle-banner/internal/changes"
	"github.com/runnerr0/chronicle-banner/internal/notifier"
	"github.com/runnerr0/chronicle-banner/internal/page"
	"github.com/runnerr0/chronicle-banner/internal/visit"
)

// checkJSON is the run summary printed with --json.
type checkJSON struct {
	RunID           string `json:"run_id"`
	Decision        string `json:"decision"`
	Key             string `json:"key,omitempty"`
	PreviousVersion *int64 `json:"previous_version,omitempty"`
	RecordedVersion *int64 `json:"recorded_version,omitempty"`
	Banner          string `json:"banner,omitempty"`
	InsertedAt      string `json:"inserted_at,omitempty"`
}

// Execute implements the go-flags Commander interface for CheckCommand.
func (c *CheckCommand) Execute(args []string) error {
	ctx := context.Background()

	flagInputs, err := c.inputs()
	if err != nil {
		return err
	}

	sess, err := c.globals.openSession(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	strategies, err := page.Strategies(sess.cfg.Banner.Containers)
	if err != nil {
		return err
	}

	doc, err := c.readPage(sess.cfg.Banner.ClassName, strategies)
	if err != nil {
		return err
	}

	baseURL := sess.cfg.Endpoint.BaseURL
	if c.BaseURL != "" {
		baseURL = c.BaseURL
	}
	if baseURL == "" {
		baseURL = doc.AlternateBase()
	}
	in := flagInputs.Merge(doc.Globals())
	if _, err := visit.LoadContext(in); err == nil && baseURL == "" {
		return fmt.Errorf("no base URL for the change count endpoint: set --base-url or endpoint.base_url")
	}
	client := changes.NewClient(changes.Config{
		BaseURL:   baseURL,
		Timeout:   sess.cfg.Timeout(),
		UserAgent: fmt.Sprintf("%s/%s", sess.cfg.Endpoint.UserAgent, c.version),
	}, sess.log)

	n := notifier.New(sess.records, client, doc,
		notifier.WithLogger(sess.log),
		notifier.WithExcludedTables(sess.cfg.Tracking.ExcludeTables),
	)

	v, runErr := n.Run(ctx, in)
	v.Wait()
	if runErr != nil {
		return runErr
	}

	if c.Out != "" {
		if err := writePage(doc, c.Out); err != nil {
			return err
		}
	}

	if c.globals.JSON {
		return printJSON(summarize(v, doc))
	}
	if c.Out == "" {
		return doc.Render(os.Stdout)
	}
	return nil
}

// inputs converts the override flags; an empty flag leaves the page value.
func (c *CheckCommand) inputs() (visit.Inputs, error) {
	var in visit.Inputs
	if c.MaxVersion != "" {
		v, err := parseVersion(c.MaxVersion)
		if err != nil {
			return in, err
		}
		in.MaxVersion = &v
	}
	if c.Database != "" {
		db := c.Database
		in.DatabaseName = &db
	}
	if c.Table != "" {
		table := c.Table
		in.TableName = &table
	}
	return in, nil
}

func (c *CheckCommand) readPage(className string, strategies []page.Strategy) (*page.Document, error) {
	var r io.Reader
	if c.Page == "" || c.Page == "-" {
		r = c.stdin
		if r == nil {
			r = os.Stdin
		}
	} else {
		f, err := os.Open(c.Page)
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		defer f.Close()
		r = f
	}
	return page.Parse(r, className, strategies)
}

func writePage(doc *page.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := doc.Render(f); err != nil {
		f.Close()
		return fmt.Errorf("render page: %w", err)
	}
	return f.Close()
}

func summarize(v *notifier.Visit, doc *page.Document) checkJSON {
	out := checkJSON{
		RunID:      v.RunID,
		Decision:   v.Decision.String(),
		Key:        v.Key,
		Banner:     v.Banner(),
		InsertedAt: doc.InsertedAt(),
	}
	if v.Previous != nil {
		out.PreviousVersion = v.Previous.Version
	}
	if v.Written != nil {
		out.RecordedVersion = v.Written.Version
	}
	return out
}

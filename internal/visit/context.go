package visit

import "errors"

// ErrMissingContext means the page did not carry all three required values.
// This is the normal state of pages where change tracking is not active.
var ErrMissingContext = errors.New("missing required page values")

// LoadContext validates in and returns the page context.
func LoadContext(in Inputs) (PageContext, error) {
	if in.MaxVersion == nil || in.DatabaseName == nil || in.TableName == nil {
		return PageContext{}, ErrMissingContext
	}
	return PageContext{
		MaxVersion:   *in.MaxVersion,
		DatabaseName: *in.DatabaseName,
		TableName:    *in.TableName,
	}, nil
}

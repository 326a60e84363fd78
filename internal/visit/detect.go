package visit

// Decision is the outcome of one run.
type Decision int

const (
	// Inactive: the page lacked the required values, nothing was touched.
	Inactive Decision = iota
	// FirstVisit: no usable record existed; the current state gets recorded.
	FirstVisit
	// Changed: the table moved past the recorded version.
	Changed
	// Unchanged: the recorded version is current (or ahead). No writes.
	Unchanged
)

func (d Decision) String() string {
	switch d {
	case Inactive:
		return "inactive"
	case FirstVisit:
		return "first_visit"
	case Changed:
		return "changed"
	case Unchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Detect compares the table's latest version with the stored record.
func Detect(maxVersion int64, rec *Record) Decision {
	if rec == nil || rec.Version == nil {
		return FirstVisit
	}
	if maxVersion > *rec.Version {
		return Changed
	}
	return Unchanged
}

// ShouldRecord reports whether d requires writing a fresh record.
func (d Decision) ShouldRecord() bool {
	return d == FirstVisit || d == Changed
}

package config

// DefaultExcludedTables returns table name patterns (path.Match syntax) that
// never get a change banner: the change logs sqlite-chronicle keeps next to
// each tracked table. More patterns can be added under tracking.exclude_tables.
func DefaultExcludedTables() []string {
	return []string{"_chronicle_*"}
}

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobEscape(t *testing.T) {
	assert.Equal(t, "visit_db_", globEscape("visit_db_"))
	assert.Equal(t, `a\*b\?c\[d\]e\\f`, globEscape(`a*b?c[d]e\f`))
}

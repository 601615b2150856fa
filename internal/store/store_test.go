// internal/store/store_test.go
package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "acme/widgets", escapeLike("acme/widgets"))
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\repo`, escapeLike(`c:\repo`))
	assert.Equal(t, `\%\_\\`, escapeLike(`%_\`))
}

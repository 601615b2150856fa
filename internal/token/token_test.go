// internal/token/token_test.go
package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	assert.Equal(t, "empty", Mask(""))
	assert.Equal(t, "****", Mask("short"))
	assert.Equal(t, "****", Mask("12345678"))
	assert.Equal(t, "ghp_****wxyz", Mask("ghp_abcdefghijklmnopwxyz"))
}

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultReturnsSameInstance(t *testing.T) {
	a := Default()
	b := Default()
	assert.Same(t, a, b)
}

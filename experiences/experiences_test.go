package experiences

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIncludes(t *testing.T) {
	got := parseIncludes([]string{"clay, tools", "apron", " firing "})
	assert.Equal(t, []string{"clay", "tools", "apron", "firing"}, got)
}

func TestParseIncludesEmpty(t *testing.T) {
	assert.Nil(t, parseIncludes(nil))
	assert.Nil(t, parseIncludes([]string{"", " , "}))
}

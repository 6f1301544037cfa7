package enclosure

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateNameIsUniqueAcrossCalls(t *testing.T) {
	a := generateName()
	b := generateName()
	require.NotEqual(t, a, b)
	require.NotEmpty(t, a)
}

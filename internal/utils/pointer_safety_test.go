package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-portal-session/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	require.Nil(t, utils.Clone[int](nil))

	v := 7
	c := utils.Clone(&v)
	require.Equal(t, 7, *c)
	*c = 8
	require.Equal(t, 7, v)
}

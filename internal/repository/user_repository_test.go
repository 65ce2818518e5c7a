package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLikeEscaperNeutralizesWildcards(t *testing.T) {
	cases := map[string]string{
		"%":      `\%`,
		"a_":     `a\_`,
		`back\`:  `back\\`,
		"%_\\":   `\%\_\\`,
		"plain":  "plain",
		"al%ice": `al\%ice`,
	}
	for in, want := range cases {
		require.Equal(t, want, likeEscaper.Replace(in), in)
	}
}

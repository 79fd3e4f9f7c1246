package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveSlug(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Holy Trinity", "holy-trinity"},
		{"diacritics", "Paróquia São João", "paroquia-sao-joao"},
		{"punctuation runs", "N. Sra. das Graças -- Centro", "n-sra-das-gracas-centro"},
		{"leading trailing", "  --Santa Cecília--  ", "santa-cecilia"},
		{"numbers", "Capela 2000", "capela-2000"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := DeriveSlug(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)

			// Derivation must be deterministic.
			again, err := DeriveSlug(tc.in)
			require.NoError(t, err)
			require.Equal(t, got, again)
		})
	}
}

func TestDeriveSlugRejectsEmpty(t *testing.T) {
	t.Parallel()

	_, err := DeriveSlug("   ")
	require.Error(t, err)

	_, err = DeriveSlug("!!!")
	require.Error(t, err)
}

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()

	got, err := NormalizeSlug("  Sao-Joao ")
	require.NoError(t, err)
	require.Equal(t, "sao-joao", got)

	_, err = NormalizeSlug("são joão")
	require.Error(t, err)

	_, err = NormalizeSlug("-leading")
	require.Error(t, err)
}

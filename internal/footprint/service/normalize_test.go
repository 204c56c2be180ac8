package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Run("case_and_accents", func(t *testing.T) {
		assert.Equal(t, Normalize("pomme de terre"), Normalize("Pomme De Terre"))
		assert.Equal(t, "creme brulee", Normalize("Crème Brûlée"))
	})

	t.Run("idempotent", func(t *testing.T) {
		for _, s := range []string{"  Pomme  De   Terre ", "Bœuf haché", "RIZ", ""} {
			once := Normalize(s)
			assert.Equal(t, once, Normalize(once), "input %q", s)
		}
	})

	t.Run("whitespace_collapsed", func(t *testing.T) {
		assert.Equal(t, "pomme de terre", Normalize("  pomme \t de   terre "))
	})
}

func TestFilterMeaningful(t *testing.T) {
	t.Run("drops_connectives", func(t *testing.T) {
		got := FilterMeaningful([]string{"pomme", "de", "terre", "aux", "herbes"})
		assert.Equal(t, []string{"pomme", "terre", "herbes"}, got)
	})

	t.Run("preserves_order", func(t *testing.T) {
		got := FilterMeaningful([]string{"terre", "et", "pomme"})
		assert.Equal(t, []string{"terre", "pomme"}, got)
	})

	t.Run("empty_input", func(t *testing.T) {
		assert.Empty(t, FilterMeaningful(nil))
		assert.Empty(t, FilterMeaningful([]string{}))
	})
}

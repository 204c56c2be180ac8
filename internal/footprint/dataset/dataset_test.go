package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows(t *testing.T) {
	t.Run("parses_rows", func(t *testing.T) {
		rows := []map[string]string{
			{"Nom du Produit en Français": "Pomme de terre", "Changement climatique": "0,334"},
			{"Nom du Produit en Français": "Riz blanc", "Changement climatique": "1.45"},
		}
		ds, err := FromRows("par_etape", rows)
		require.NoError(t, err)
		assert.Equal(t, []string{"Pomme de terre", "Riz blanc"}, ds.Names)
		require.Len(t, ds.Factors, 2)
		assert.InDelta(t, 0.334, ds.Factors[0], 1e-9)
		assert.InDelta(t, 1.45, ds.Factors[1], 1e-9)
	})

	t.Run("skips_empty_names", func(t *testing.T) {
		rows := []map[string]string{
			{"Nom du Produit en Français": " ", "Changement climatique": "1"},
			{"Nom du Produit en Français": "Riz", "Changement climatique": "2"},
		}
		ds, err := FromRows("par_etape", rows)
		require.NoError(t, err)
		assert.Equal(t, []string{"Riz"}, ds.Names)
	})

	t.Run("unparseable_factor_is_zero", func(t *testing.T) {
		rows := []map[string]string{
			{"Nom du Produit en Français": "Riz", "Changement climatique": "n/a"},
		}
		ds, err := FromRows("par_etape", rows)
		require.NoError(t, err)
		assert.Equal(t, 0.0, ds.Factors[0])
	})

	t.Run("missing_name_column_is_fatal", func(t *testing.T) {
		rows := []map[string]string{{"Autre": "x", "Changement climatique": "1"}}
		_, err := FromRows("par_etape", rows)
		assert.ErrorContains(t, err, "missing column")
	})

	t.Run("missing_impact_column_is_fatal", func(t *testing.T) {
		rows := []map[string]string{{"Nom du Produit en Français": "Riz"}}
		_, err := FromRows("par_etape", rows)
		assert.ErrorContains(t, err, "missing column")
	})

	t.Run("per_ingredient_uses_its_own_name_column", func(t *testing.T) {
		rows := []map[string]string{
			{"Nom Français": "Tomate", "Changement climatique": "0,5"},
		}
		ds, err := FromRows("par_ingredient", rows)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tomate"}, ds.Names)
	})

	t.Run("unknown_key", func(t *testing.T) {
		_, err := FromRows("bogus", []map[string]string{{"x": "y"}})
		assert.Error(t, err)
	})

	t.Run("no_rows", func(t *testing.T) {
		_, err := FromRows("par_etape", nil)
		assert.Error(t, err)
	})
}

package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"carbon-index-service/internal/fileio"
	"carbon-index-service/internal/utils"
)

// Keys in vocabulary order. The first dataset loaded fixes the shared
// vocabulary of the similarity index, so this order is part of the contract.
var Keys = []string{"par_etape", "par_ingredient", "synthese"}

// Per-dataset name column; the impact column is shared.
var nameColumns = map[string]string{
	"par_etape":      "Nom du Produit en Français",
	"par_ingredient": "Nom Français",
	"synthese":       "Nom du Produit en Français",
}

const impactColumn = "Changement climatique"

var fileNames = map[string]string{
	"par_etape":      "agribalyse-31-detail-par-etape.csv",
	"par_ingredient": "agribalyse-31-detail-par-ingredient.csv",
	"synthese":       "agribalyse-31-synthese.csv",
}

// Dataset holds one reference source fully in memory. Immutable after load.
// Factors are kg CO2e per kg of product.
type Dataset struct {
	Key     string
	Names   []string
	Factors []float64
}

// Load reads every reference dataset from dir, in vocabulary order.
// A missing name or impact column is fatal: the index cannot be built
// without it.
func Load(dir string) ([]Dataset, error) {
	out := make([]Dataset, 0, len(Keys))
	for _, key := range Keys {
		ds, err := loadOne(dir, key)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", key, err)
		}
		out = append(out, ds)
	}
	return out, nil
}

func loadOne(dir, key string) (Dataset, error) {
	path := filepath.Join(dir, fileNames[key])
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, err
	}
	defer f.Close()

	rows, err := fileio.ReadAnyMaps(f, path, 1)
	if err != nil {
		return Dataset{}, err
	}
	return FromRows(key, rows)
}

// FromRows builds a Dataset from parsed tabular rows. Split out from loadOne
// so tests can feed rows without files.
func FromRows(key string, rows []map[string]string) (Dataset, error) {
	nameCol, ok := nameColumns[key]
	if !ok {
		return Dataset{}, fmt.Errorf("unknown dataset key %q", key)
	}
	if len(rows) == 0 {
		return Dataset{}, fmt.Errorf("no rows")
	}
	if _, ok := rows[0][nameCol]; !ok {
		return Dataset{}, fmt.Errorf("missing column %q", nameCol)
	}
	if _, ok := rows[0][impactColumn]; !ok {
		return Dataset{}, fmt.Errorf("missing column %q", impactColumn)
	}

	ds := Dataset{Key: key}
	for _, r := range rows {
		name := strings.TrimSpace(r[nameCol])
		if name == "" {
			continue
		}
		// unparseable impact values keep the row with a zero factor,
		// mirroring how the source data treats blanks
		factor, _ := utils.ParseFloatFR(r[impactColumn])
		ds.Names = append(ds.Names, name)
		ds.Factors = append(ds.Factors, factor)
	}
	if len(ds.Names) == 0 {
		return Dataset{}, fmt.Errorf("no usable rows")
	}
	return ds, nil
}

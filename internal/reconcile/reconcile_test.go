package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ranch-group/ops-dashboard/internal/extract"
	"github.com/ranch-group/ops-dashboard/internal/model"
)

var registry = []model.Restaurant{
	{ID: 1, Name: "La Hacienda Ranch Frisco", ShortName: "Frisco", Brand: "La Hacienda Ranch", VendorStoreID: "LHR-FRI"},
	{ID: 2, Name: "La Hacienda Ranch Colleyville", ShortName: "Colleyville", Brand: "La Hacienda Ranch", VendorStoreID: "LHR-COL"},
	{ID: 3, Name: "Mariano's Arlington", ShortName: "Arlington", Brand: "Mariano's", VendorStoreID: "MAR-ARL"},
}

func extracted(names ...string) map[string]extract.StoreRecord {
	out := make(map[string]extract.StoreRecord, len(names))
	for _, n := range names {
		out[n] = extract.StoreRecord{StoreName: n, NetSales: 1000}
	}
	return out
}

func TestMatch_SubstringContainment(t *testing.T) {
	results := Match(registry[:1], extracted("Frisco"), AliasTable{})

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Record)
	assert.Equal(t, MethodSubstring, results[0].Method)
	assert.Equal(t, "Frisco", results[0].Record.StoreName)
}

func TestMatch_AliasWinsOverSubstring(t *testing.T) {
	// The vendor label "Frisco" substring-matches the Frisco restaurant, but
	// the alias table pins it to Colleyville; the alias target wins and the
	// label is not available to looser tiers.
	aliases := AliasTable{"Frisco": "Colleyville"}
	results := Match(registry[:2], extracted("Frisco"), aliases)

	require.Len(t, results, 2)
	frisco, colleyville := results[0], results[1]

	assert.Equal(t, MethodUnmatched, frisco.Method)
	assert.Nil(t, frisco.Record)

	require.NotNil(t, colleyville.Record)
	assert.Equal(t, MethodAlias, colleyville.Method)
}

func TestMatch_VendorStoreIDAlias(t *testing.T) {
	// Alias keyed by the registry's vendor store id mapping to the label
	// the dashboard actually shows.
	aliases := AliasTable{"MAR-ARL": "Arlington Hwy 360"}
	results := Match(registry[2:], extracted("Arlington Hwy 360"), aliases)

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Record)
	assert.Equal(t, MethodAlias, results[0].Method)
}

func TestMatch_LastTokenFallback(t *testing.T) {
	// "Arlington-360" fails substring containment against the stripped name
	// "Hacienda Arlington" in both directions; only the last-token tier
	// (the city) catches it.
	reg := []model.Restaurant{{ID: 9, Name: "Mariano's Hacienda Arlington", Brand: "Mariano's"}}
	results := Match(reg, extracted("Arlington-360"), AliasTable{})

	require.Len(t, results, 1)
	require.NotNil(t, results[0].Record)
	assert.Equal(t, MethodLastToken, results[0].Method)
}

func TestMatch_Unmatched(t *testing.T) {
	results := Match(registry[:1], extracted("Galleria"), AliasTable{})

	require.Len(t, results, 1)
	assert.Nil(t, results[0].Record)
	assert.Equal(t, MethodUnmatched, results[0].Method)
}

func TestMatch_EmptyExtraction(t *testing.T) {
	results := Match(registry, map[string]extract.StoreRecord{}, AliasTable{})

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, MethodUnmatched, r.Method)
		assert.Nil(t, r.Record)
	}
}

func TestZeroSalesMeansNoData(t *testing.T) {
	assert.True(t, ZeroSalesMeansNoData(&extract.StoreRecord{StoreName: "Frisco", NetSales: 0}))
	assert.False(t, ZeroSalesMeansNoData(&extract.StoreRecord{StoreName: "Frisco", NetSales: 0.01}))
	assert.False(t, ZeroSalesMeansNoData(nil))
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store_aliases.yaml")
	content := "aliases:\n  \"MAR-ARL\": Arlington\n  \"LHR-FRI\": Frisco\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := LoadAliases(path)
	require.NoError(t, err)
	assert.Len(t, table, 2)

	kw, ok := table.Lookup("mar-arl")
	assert.True(t, ok)
	assert.Equal(t, "Arlington", kw)
}

func TestLoadAliases_MissingFileIsEmptyTable(t *testing.T) {
	table, err := LoadAliases(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, table)
}

// Package reconcile matches extracted vendor store records against the
// restaurant registry. Vendor store labels drift over time, so matching is
// layered: a configured alias table first, then substring containment, then
// a last-token fuzzy fallback.
package reconcile

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ranch-group/ops-dashboard/internal/extract"
	"github.com/ranch-group/ops-dashboard/internal/model"
)

// Method records which tier produced a match.
type Method string

const (
	MethodAlias     Method = "alias"
	MethodSubstring Method = "substring"
	MethodLastToken Method = "last_token"
	MethodUnmatched Method = "unmatched"
)

// MatchResult pairs a registry restaurant with the extracted record assigned
// to it. Record is nil when no tier matched.
type MatchResult struct {
	Restaurant model.Restaurant
	Record     *extract.StoreRecord
	Method     Method
}

// Match assigns each restaurant its extracted record. Tiers are tried in
// strict precedence order; an alias hit always wins over a naive substring
// hit, even across restaurants. Unmatched restaurants get a nil record,
// never an error.
func Match(registry []model.Restaurant, extracted map[string]extract.StoreRecord, aliases AliasTable) []MatchResult {
	// Deterministic order regardless of map iteration.
	names := make([]string, 0, len(extracted))
	for name := range extracted {
		names = append(names, name)
	}
	sort.Strings(names)

	// Alias pass first. A vendor name claimed by an alias match is off limits
	// to the looser tiers, so an alias target always beats a naive substring
	// hit on the same label.
	aliasHits := make(map[int]string, len(registry))
	claimed := make(map[string]bool, len(names))
	for i, r := range registry {
		if name, ok := matchAlias(r, names, aliases); ok {
			aliasHits[i] = name
			claimed[name] = true
		}
	}
	unclaimed := names[:0:0]
	for _, name := range names {
		if !claimed[name] {
			unclaimed = append(unclaimed, name)
		}
	}

	results := make([]MatchResult, 0, len(registry))
	for i, r := range registry {
		res := MatchResult{Restaurant: r, Method: MethodUnmatched}

		if name, ok := aliasHits[i]; ok {
			rec := extracted[name]
			res.Record, res.Method = &rec, MethodAlias
		} else if name, ok := matchSubstring(r, unclaimed); ok {
			rec := extracted[name]
			res.Record, res.Method = &rec, MethodSubstring
		} else if name, ok := matchLastToken(r, unclaimed); ok {
			rec := extracted[name]
			res.Record, res.Method = &rec, MethodLastToken
		}

		if res.Method == MethodUnmatched {
			zap.L().Info("reconcile: no vendor store matched restaurant",
				zap.String("restaurant", r.Name),
				zap.Strings("vendor_stores", names),
			)
		} else {
			zap.L().Debug("reconcile: matched",
				zap.String("restaurant", r.Name),
				zap.String("vendor_store", res.Record.StoreName),
				zap.String("method", string(res.Method)),
			)
		}
		results = append(results, res)
	}
	return results
}

// matchAlias resolves a vendor store name through the alias table: the alias
// maps the vendor label to a keyword expected in the restaurant's canonical
// name. The registry's vendor store id is also honored as an alias key.
func matchAlias(r model.Restaurant, names []string, aliases AliasTable) (string, bool) {
	lowerName := strings.ToLower(r.Name)
	for _, name := range names {
		keyword, ok := aliases.Lookup(name)
		if !ok {
			continue
		}
		if strings.Contains(lowerName, strings.ToLower(keyword)) {
			return name, true
		}
	}
	// Vendor store id configured directly on the restaurant row.
	if r.VendorStoreID != "" {
		if keyword, ok := aliases.Lookup(r.VendorStoreID); ok {
			for _, name := range names {
				if strings.EqualFold(name, keyword) {
					return name, true
				}
			}
		}
	}
	return "", false
}

// matchSubstring checks case-insensitive containment in either direction
// after stripping the brand prefix from the restaurant's name.
func matchSubstring(r model.Restaurant, names []string) (string, bool) {
	stripped := strings.ToLower(stripBrand(r.Name, r.Brand))
	full := strings.ToLower(r.Name)
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.Contains(full, lower) || strings.Contains(lower, stripped) || strings.Contains(stripped, lower) {
			return name, true
		}
	}
	return "", false
}

// matchLastToken compares vendor names against the last whitespace token of
// the restaurant's name, typically the city.
func matchLastToken(r model.Restaurant, names []string) (string, bool) {
	tokens := strings.Fields(r.Name)
	if len(tokens) == 0 {
		return "", false
	}
	last := strings.ToLower(tokens[len(tokens)-1])
	for _, name := range names {
		lower := strings.ToLower(name)
		if strings.Contains(lower, last) || strings.Contains(last, lower) {
			return name, true
		}
	}
	return "", false
}

func stripBrand(name, brand string) string {
	if brand == "" {
		return name
	}
	if strings.HasPrefix(strings.ToLower(name), strings.ToLower(brand)) {
		return strings.TrimSpace(name[len(brand):])
	}
	return name
}

// ZeroSalesMeansNoData is the persistence policy for matched records with
// zero net sales: a zero read from the dashboard is presumed a missed
// extraction, not a true zero-revenue day, so the record is treated the same
// as unmatched and nothing is written for the key.
func ZeroSalesMeansNoData(rec *extract.StoreRecord) bool {
	return rec != nil && rec.NetSales == 0
}

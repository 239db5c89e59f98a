package extract

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// TextScanStrategy parses the rendered page text when the structured grid is
// unreadable. It looks for a known section marker, then matches lines that
// start with a known store label and parses the remaining tokens using the
// grid's column order.
type TextScanStrategy struct {
	Marker string   // section heading preceding the per-store rows
	Stores []string // store labels the vendor uses, e.g. "Preston Trail"
}

func NewTextScan(marker string, stores []string) *TextScanStrategy {
	return &TextScanStrategy{Marker: marker, Stores: stores}
}

func (*TextScanStrategy) Name() string { return "text_scan" }

func (t *TextScanStrategy) Extract(ctx context.Context, page Page) (map[string]StoreRecord, error) {
	text, err := page.BodyText(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "text scan: read page text")
	}
	section := text
	if t.Marker != "" {
		if idx := indexFold(text, t.Marker); idx >= 0 {
			section = text[idx:]
		}
	}

	out := make(map[string]StoreRecord)
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, store := range t.Stores {
			if len(line) < len(store) || !strings.EqualFold(line[:len(store)], store) {
				continue
			}
			fields := splitFields(line[len(store):])
			out[store] = StoreRecord{
				StoreName:    store,
				NetSales:     fieldNumber(fields, colNetSales-1),
				Comps:        fieldNumber(fields, colComps-1),
				LaborCost:    fieldNumber(fields, colLaborCost-1),
				LaborPercent: fieldNumber(fields, colLaborPercent-1),
				Voids:        fieldNumber(fields, colVoids-1),
				CheckCount:   int64(fieldNumber(fields, colCheckCount-1)),
				GuestCount:   int64(fieldNumber(fields, colGuestCount-1)),
			}
			break
		}
	}
	return out, nil
}

// splitFields splits on tabs when present, otherwise on whitespace runs.
func splitFields(s string) []string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "\t") {
		raw := strings.Split(s, "\t")
		fields := make([]string, 0, len(raw))
		for _, f := range raw {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		return fields
	}
	return strings.Fields(s)
}

func fieldNumber(fields []string, idx int) float64 {
	if idx < 0 || idx >= len(fields) {
		return 0
	}
	return parseNumber(fields[idx])
}

func indexFold(haystack, needle string) int {
	return strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
}

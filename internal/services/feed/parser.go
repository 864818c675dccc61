package feed

import (
	"strings"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/models"
)

// equityKeywords route a manual-feed row into the live-priced equity class.
var equityKeywords = []string{"AÇÃO", "ACAO", "AÇÕES", "ACOES", "STOCK"}

// skipLabels mark manual-feed rows that are headers or footer totals, not
// positions.
var skipLabels = []string{"", "ASSET", "ATIVO", "TOTAL"}

// SheetColumns maps the fixed zero-based column indices of the tabular feed.
// Indices are deployment configuration, not part of the data.
type SheetColumns struct {
	Ticker    int
	Quantity  int
	Price     int
	AvgCost   int
	BookValue int
	Yield     int
}

// max returns the highest configured index, used to validate row width.
func (c SheetColumns) max() int {
	m := c.Ticker
	for _, i := range []int{c.Quantity, c.Price, c.AvgCost, c.BookValue, c.Yield} {
		if i > m {
			m = i
		}
	}
	return m
}

// ParseSheetRows converts tabular feed rows into raw fund records. Rows whose
// ticker does not match the fund shape, or whose quantity is not positive,
// are silently skipped: the sheet carries header rows, subtotals and notes
// alongside positions, and a permissive parse is the contract.
func ParseSheetRows(rows [][]string, cols SheetColumns) []models.RawPositionRecord {
	records := make([]models.RawPositionRecord, 0, len(rows))
	minWidth := cols.max() + 1

	for _, row := range rows {
		if len(row) < minWidth {
			continue
		}

		ticker := strings.ToUpper(strings.TrimSpace(row[cols.Ticker]))
		if !models.IsFundTicker(ticker) {
			continue
		}

		quantity := common.ParseDecimal(row[cols.Quantity])
		if quantity <= 0 {
			continue
		}

		records = append(records, models.RawPositionRecord{
			Ticker:           ticker,
			Class:            models.AssetClassFund,
			Quantity:         quantity,
			FeedPrice:        common.ParseDecimal(row[cols.Price]),
			AvgCost:          common.ParseDecimal(row[cols.AvgCost]),
			BookValuePerUnit: common.ParseDecimal(row[cols.BookValue]),
			RawYield:         common.ParseDecimal(row[cols.Yield]),
		})
	}

	return records
}

// ParseManualRows converts free-form manual feed rows (Asset, Type, Quantity,
// Value) into raw records. A Type containing an equity keyword routes the row
// to the live-priced equity class; everything else becomes a fixed-value
// "other" holding with quantity 1 and the declared value as its price.
func ParseManualRows(rows [][]string) []models.RawPositionRecord {
	records := make([]models.RawPositionRecord, 0, len(rows))

	for _, row := range rows {
		if len(row) < 4 {
			continue
		}

		asset := strings.ToUpper(strings.TrimSpace(row[0]))
		if isSkipLabel(asset) {
			continue
		}

		value := common.ParseDecimal(row[3])

		if isEquityType(row[1]) {
			quantity := common.ParseDecimal(row[2])
			if quantity <= 0 {
				continue
			}
			records = append(records, models.RawPositionRecord{
				Ticker:    asset,
				Class:     models.AssetClassEquity,
				Quantity:  quantity,
				AvgCost:   value,
				FeedPrice: value,
			})
			continue
		}

		if value <= 0 {
			continue
		}
		records = append(records, models.RawPositionRecord{
			Ticker:    asset,
			Class:     models.AssetClassOther,
			Quantity:  1,
			AvgCost:   value,
			FeedPrice: value,
		})
	}

	return records
}

func isSkipLabel(asset string) bool {
	for _, label := range skipLabels {
		if asset == label {
			return true
		}
	}
	return false
}

func isEquityType(raw string) bool {
	t := strings.ToUpper(strings.TrimSpace(raw))
	for _, kw := range equityKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

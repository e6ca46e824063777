package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// MonthlyBreakdown 指定面料按下单月份汇总用量
// 月份列表取自未筛选的全量数据并按时间排序，筛选后无数据的月份补 0
func MonthlyBreakdown(ds *Dataset, view View, fabric string) []model.MonthlyUsageRow {
	byPeriod := make(map[string]decimal.Decimal, len(ds.options.OrderPeriods))

	for _, row := range view {
		period := ds.OrderPeriod(row)
		if !period.Valid() {
			continue
		}
		for _, p := range ds.pairs {
			cell := ds.Table.At(row, p.fabric)
			if cell.IsMissing() || cell.String() != fabric {
				continue
			}
			qty, ok := ds.Table.At(row, p.qty).AsNumber()
			if !ok {
				continue
			}
			byPeriod[period.Label] = byPeriod[period.Label].Add(qty)
		}
	}

	result := make([]model.MonthlyUsageRow, 0, len(ds.options.OrderPeriods))
	for _, label := range ds.options.OrderPeriods {
		result = append(result, model.MonthlyUsageRow{
			Period: label,
			Total:  byPeriod[label],
		})
	}
	return result
}

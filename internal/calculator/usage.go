package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// UsageByFabric 汇总各面料用量
// 对每个 (面料列, 数量列) 配对，将数量累加到该行面料值名下；非数字数量视为 0
// 结果包含全量数据中出现过的每种面料（用量可能为 0），按用量降序，相同用量保持首次出现顺序
func UsageByFabric(ds *Dataset, view View) []model.UsageRow {
	totals := aggregateUsage(ds, view)

	result := make([]model.UsageRow, 0, len(ds.fabrics))
	for _, fabric := range ds.fabrics {
		result = append(result, model.UsageRow{
			Fabric: fabric,
			Total:  totals[fabric],
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Total.GreaterThan(result[j].Total)
	})

	return result
}

// aggregateUsage 单次遍历累加 面料值 -> 用量
func aggregateUsage(ds *Dataset, view View) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal, len(ds.fabrics))
	for _, row := range view {
		for _, p := range ds.pairs {
			fabric := ds.Table.At(row, p.fabric)
			if fabric.IsMissing() {
				continue
			}
			qty, ok := ds.Table.At(row, p.qty).AsNumber()
			if !ok {
				continue
			}
			key := fabric.String()
			totals[key] = totals[key].Add(qty)
		}
	}
	return totals
}

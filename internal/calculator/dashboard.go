package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// Dashboard 面向展示层的三个只读操作
// 无内部可变状态，可被多个请求并发使用
type Dashboard struct {
	ds *Dataset
}

// NewDashboard 创建看板计算入口
func NewDashboard(ds *Dataset) *Dashboard {
	return &Dashboard{ds: ds}
}

// Dataset 底层数据集
func (d *Dashboard) Dataset() *Dataset {
	return d.ds
}

// DistinctFilterOptions 各维度可选值（同时作为默认选择）
func (d *Dashboard) DistinctFilterOptions() model.FilterOptions {
	return d.ds.Options()
}

// ApplyFiltersAndAggregate 筛选并汇总各面料用量
func (d *Dashboard) ApplyFiltersAndAggregate(sel model.Selection) model.AggregateResult {
	view := ApplyFilters(d.ds, d.ds.All(), sel)

	rows := make([]map[string]string, 0, len(view))
	for _, i := range view {
		rows = append(rows, d.ds.Table.RowMap(i))
	}

	return model.AggregateResult{
		Columns:  append([]string(nil), d.ds.Table.Columns...),
		Rows:     rows,
		RowCount: len(view),
		Usage:    UsageByFabric(d.ds, view),
		Warnings: d.ds.Warnings(),
	}
}

// MonthlyBreakdown 筛选后指定面料的月度用量
// fabric 为空时取按字母排序的第一个面料
func (d *Dashboard) MonthlyBreakdown(sel model.Selection, fabric string) model.MonthlyResult {
	if fabric == "" && len(d.ds.options.Fabrics) > 0 {
		fabric = d.ds.options.Fabrics[0]
	}

	view := ApplyFilters(d.ds, d.ds.All(), sel)
	periods := MonthlyBreakdown(d.ds, view, fabric)

	total := decimal.Zero
	for _, p := range periods {
		total = total.Add(p.Total)
	}

	return model.MonthlyResult{
		Fabric:  fabric,
		Periods: periods,
		Total:   total,
	}
}

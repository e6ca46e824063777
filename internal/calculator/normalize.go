package calculator

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
	"github.com/GoldenArt-IT/fabric-analysis/internal/parser"
)

// Dimensions 筛选维度对应的列名
type Dimensions struct {
	OrderDate    string `json:"orderDate"`    // 下单时间列
	DeliveryDate string `json:"deliveryDate"` // 计划交货日期列
	Trip         string `json:"trip"`         // 车次列
}

// DefaultDimensions 默认列名（与 "DATA SALES CO & FABRIC" 表一致）
func DefaultDimensions() Dimensions {
	return Dimensions{
		OrderDate:    "TIMESTAMP",
		DeliveryDate: "DELIVERY PLAN DATE",
		Trip:         "TRIP",
	}
}

// pairIndex 已解析为列索引的配对
type pairIndex struct {
	fabric int
	qty    int
}

// Dataset 归一化后的只读数据集
// 每个快照构建一次，之后所有筛选与汇总均基于它，不做任何修改
type Dataset struct {
	Table      *model.Table
	Pairing    model.Pairing
	Dimensions Dimensions

	orderPeriods    []model.Period
	deliveryPeriods []model.Period
	trips           []string
	tripValid       []bool

	pairs   []pairIndex
	fabrics []string // 首次出现顺序

	options  model.FilterOptions
	warnings []model.Warning
}

// Normalize 派生月份标签、车次并收集各维度可选值
func Normalize(table *model.Table, dims Dimensions, pairing model.Pairing) *Dataset {
	if table == nil {
		table = model.NewTable(nil, nil)
	}
	// 日期列统一为日期值，表格序列号与文本日期按日期显示
	table = table.MapColumns([]string{dims.OrderDate, dims.DeliveryDate}, parser.DateCellOf)

	n := table.Len()
	ds := &Dataset{
		Table:           table,
		Pairing:         pairing,
		Dimensions:      dims,
		orderPeriods:    make([]model.Period, n),
		deliveryPeriods: make([]model.Period, n),
		trips:           make([]string, n),
		tripValid:       make([]bool, n),
	}
	ds.warnings = append(ds.warnings, pairing.Warnings...)

	for _, col := range []string{dims.OrderDate, dims.DeliveryDate, dims.Trip} {
		if !table.HasColumn(col) {
			ds.warnings = append(ds.warnings, model.Warning{
				Code:    model.WarnMissingColumn,
				Message: fmt.Sprintf("表中缺少列 %q，该维度全部视为缺失", col),
			})
		}
	}

	for i := 0; i < n; i++ {
		ds.orderPeriods[i] = parser.PeriodOfCell(table.Value(i, dims.OrderDate))
		ds.deliveryPeriods[i] = parser.PeriodOfCell(table.Value(i, dims.DeliveryDate))

		trip := table.Value(i, dims.Trip)
		if !trip.IsMissing() {
			ds.trips[i] = trip.String()
			ds.tripValid[i] = true
		}
	}

	for _, p := range pairing.Pairs {
		fi, okF := table.ColumnIndex(p.Fabric)
		qi, okQ := table.ColumnIndex(p.Qty)
		if !okF || !okQ {
			continue
		}
		ds.pairs = append(ds.pairs, pairIndex{fabric: fi, qty: qi})
	}

	ds.fabrics = distinctFabrics(table, pairing.FabricColumns)
	ds.options = model.FilterOptions{
		OrderPeriods:    distinctPeriodLabels(ds.orderPeriods),
		DeliveryPeriods: distinctPeriodLabels(ds.deliveryPeriods),
		Trips:           distinctTrips(ds.trips, ds.tripValid),
		Fabrics:         sortedCopy(ds.fabrics),
	}

	return ds
}

// distinctFabrics 按行优先顺序收集面料值（与逐行展平后去重一致）
func distinctFabrics(table *model.Table, fabricColumns []string) []string {
	idx := make([]int, 0, len(fabricColumns))
	for _, col := range fabricColumns {
		if i, ok := table.ColumnIndex(col); ok {
			idx = append(idx, i)
		}
	}

	var values []string
	for r := 0; r < table.Len(); r++ {
		for _, c := range idx {
			cell := table.At(r, c)
			if cell.IsMissing() {
				continue
			}
			values = append(values, cell.String())
		}
	}
	return lo.Uniq(values)
}

func distinctPeriodLabels(periods []model.Period) []string {
	valid := lo.Filter(periods, func(p model.Period, _ int) bool { return p.Valid() })
	labels := lo.Uniq(lo.Map(valid, func(p model.Period, _ int) string { return p.Label }))
	return parser.SortPeriodLabels(labels)
}

func distinctTrips(trips []string, valid []bool) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for i, t := range trips {
		if !valid[i] {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func sortedCopy(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	sort.Strings(out)
	return out
}

// Options 各维度可选值（来自未筛选的全量数据）
func (ds *Dataset) Options() model.FilterOptions {
	return model.FilterOptions{
		OrderPeriods:    append([]string(nil), ds.options.OrderPeriods...),
		Trips:           append([]string(nil), ds.options.Trips...),
		DeliveryPeriods: append([]string(nil), ds.options.DeliveryPeriods...),
		Fabrics:         append([]string(nil), ds.options.Fabrics...),
	}
}

// Fabrics 面料值（首次出现顺序）
func (ds *Dataset) Fabrics() []string {
	return append([]string(nil), ds.fabrics...)
}

// Warnings 数据形态告警
func (ds *Dataset) Warnings() []model.Warning {
	return append([]model.Warning(nil), ds.warnings...)
}

// Len 行数
func (ds *Dataset) Len() int {
	return ds.Table.Len()
}

// OrderPeriod 第 i 行的下单月份
func (ds *Dataset) OrderPeriod(i int) model.Period {
	return ds.orderPeriods[i]
}

// DeliveryPeriod 第 i 行的交货月份
func (ds *Dataset) DeliveryPeriod(i int) model.Period {
	return ds.deliveryPeriods[i]
}

// Trip 第 i 行的车次，缺失时返回 false
func (ds *Dataset) Trip(i int) (string, bool) {
	return ds.trips[i], ds.tripValid[i]
}

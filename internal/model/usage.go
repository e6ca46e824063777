package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ColumnPair 面料列与数量列的配对
type ColumnPair struct {
	Fabric string `json:"fabric" toml:"fabric"`
	Qty    string `json:"qty" toml:"qty"`
}

// Pairing 列配对结果
type Pairing struct {
	Pairs         []ColumnPair `json:"pairs"`
	FabricColumns []string     `json:"fabricColumns"` // 参与面料去重的全部面料列
	Inferred      bool         `json:"inferred"`      // 是否由列名子串推断得出
	Warnings      []Warning    `json:"warnings,omitempty"`
}

// WarningCode 告警类型
type WarningCode string

const (
	WarnShapeMismatch   WarningCode = "shape_mismatch"   // 面料列与数量列数量不一致
	WarnMissingColumn   WarningCode = "missing_column"   // 配置的列在表中不存在
	WarnInferredPairing WarningCode = "inferred_pairing" // 未声明配对，按位置推断
	WarnNoPairs         WarningCode = "no_pairs"         // 没有可用的列配对
)

// Warning 非致命的数据形态告警
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// Period 月份标签（如 "Jan 2024"），零值表示缺失
type Period struct {
	Label string `json:"label"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

// Valid 是否为有效月份
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= 1 && p.Month <= 12
}

// Before 时间先后比较
func (p Period) Before(o Period) bool {
	if p.Year != o.Year {
		return p.Year < o.Year
	}
	return p.Month < o.Month
}

// Selection 筛选条件
// 某一维度为 nil 表示不限（默认全选）；非 nil 的空切片表示不接受任何值
type Selection struct {
	OrderPeriods    []string `json:"orderPeriods"`
	Trips           []string `json:"trips"`
	DeliveryPeriods []string `json:"deliveryPeriods"`
}

// FilterOptions 各维度可选值（下拉框内容，同时作为默认选择）
type FilterOptions struct {
	OrderPeriods    []string `json:"orderPeriods"`
	Trips           []string `json:"trips"`
	DeliveryPeriods []string `json:"deliveryPeriods"`
	Fabrics         []string `json:"fabrics"` // 按字母排序
}

// UsageRow 面料用量
type UsageRow struct {
	Fabric string          `json:"fabric"`
	Total  decimal.Decimal `json:"total"`
}

// MonthlyUsageRow 指定面料的月度用量
type MonthlyUsageRow struct {
	Period string          `json:"period"`
	Total  decimal.Decimal `json:"total"`
}

// AggregateResult 筛选 + 面料用量汇总结果
type AggregateResult struct {
	Columns  []string            `json:"columns"`
	Rows     []map[string]string `json:"rows"`
	RowCount int                 `json:"rowCount"`
	Usage    []UsageRow          `json:"usage"`
	Warnings []Warning           `json:"warnings,omitempty"`
}

// MonthlyResult 月度用量结果
type MonthlyResult struct {
	Fabric  string            `json:"fabric"`
	Periods []MonthlyUsageRow `json:"periods"`
	Total   decimal.Decimal   `json:"total"`
}

// SnapshotInfo 当前数据快照信息
type SnapshotInfo struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loadedAt"`
	Rows     int       `json:"rows"`
	Pairs    int       `json:"pairs"`
	Warnings []Warning `json:"warnings,omitempty"`
}

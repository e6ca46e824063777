package calculator

import (
	"github.com/samber/lo"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// View 数据集的行索引视图（不复制数据）
type View []int

// All 全量视图
func (ds *Dataset) All() View {
	v := make(View, ds.Len())
	for i := range v {
		v[i] = i
	}
	return v
}

// acceptSet 单一维度的筛选集合；nil 表示不限
type acceptSet map[string]struct{}

func (s acceptSet) accepts(value string, valid bool) bool {
	if s == nil {
		return true
	}
	if !valid {
		return false
	}
	_, ok := s[value]
	return ok
}

// newAcceptSet 构建筛选集合
// 选择为 nil，或已包含该维度的全部可选值时视为不限（保留缺失值的行）
func newAcceptSet(selected, all []string) acceptSet {
	if selected == nil {
		return nil
	}
	set := lo.SliceToMap(selected, func(v string) (string, struct{}) { return v, struct{}{} })
	if len(all) > 0 && lo.EveryBy(all, func(v string) bool { _, ok := set[v]; return ok }) {
		return nil
	}
	return set
}

// ApplyFilters 按 下单月份 / 车次 / 交货月份 三个维度筛选
// 维度之间为 AND，同一维度内的多个值为 OR；结果保持原行顺序
func ApplyFilters(ds *Dataset, view View, sel model.Selection) View {
	orders := newAcceptSet(sel.OrderPeriods, ds.options.OrderPeriods)
	trips := newAcceptSet(sel.Trips, ds.options.Trips)
	deliveries := newAcceptSet(sel.DeliveryPeriods, ds.options.DeliveryPeriods)

	out := make(View, 0, len(view))
	for _, i := range view {
		op := ds.OrderPeriod(i)
		if !orders.accepts(op.Label, op.Valid()) {
			continue
		}
		if !trips.accepts(ds.Trip(i)) {
			continue
		}
		dp := ds.DeliveryPeriod(i)
		if !deliveries.accepts(dp.Label, dp.Valid()) {
			continue
		}
		out = append(out, i)
	}
	return out
}

package parser

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

const (
	// DefaultFabricMarker 面料列名标识
	DefaultFabricMarker = "FABRIC"
	// DefaultQtyMarker 数量列名标识（含尾随空格，避免匹配到无关列）
	DefaultQtyMarker = "QTY "
)

// Markers 列名标识
type Markers struct {
	Fabric string
	Qty    string
}

// DefaultMarkers 默认列名标识
func DefaultMarkers() Markers {
	return Markers{Fabric: DefaultFabricMarker, Qty: DefaultQtyMarker}
}

func (m Markers) withDefaults() Markers {
	defaults := DefaultMarkers()
	if m.Fabric == "" {
		m.Fabric = defaults.Fabric
	}
	if m.Qty == "" {
		m.Qty = defaults.Qty
	}
	return m
}

// ClassifyColumns 按列名子串识别面料列与数量列，保持源列顺序
func ClassifyColumns(columns []string, markers Markers) (fabric, qty []string) {
	markers = markers.withDefaults()
	for _, col := range columns {
		if strings.Contains(col, markers.Fabric) {
			fabric = append(fabric, col)
		}
		if strings.Contains(col, markers.Qty) {
			qty = append(qty, col)
		}
	}
	return fabric, qty
}

// InferPairing 按位置将第 i 个面料列与第 i 个数量列配对
// 两者数量不一致时截断到较短长度并给出告警
func InferPairing(columns []string, markers Markers) model.Pairing {
	fabric, qty := ClassifyColumns(columns, markers)

	n := min(len(fabric), len(qty))
	pairing := model.Pairing{
		Pairs:         make([]model.ColumnPair, 0, n),
		FabricColumns: fabric,
		Inferred:      true,
	}
	for i := 0; i < n; i++ {
		pairing.Pairs = append(pairing.Pairs, model.ColumnPair{Fabric: fabric[i], Qty: qty[i]})
	}

	if len(fabric) != len(qty) {
		pairing.Warnings = append(pairing.Warnings, model.Warning{
			Code: model.WarnShapeMismatch,
			Message: fmt.Sprintf("发现 %d 个面料列、%d 个数量列，仅使用前 %d 对",
				len(fabric), len(qty), n),
		})
	}

	return pairing
}

// ResolvePairing 确定列配对
// 优先使用显式声明的配对；未声明时按列名子串 + 位置推断
func ResolvePairing(columns []string, declared []model.ColumnPair, markers Markers) model.Pairing {
	if len(declared) == 0 {
		pairing := InferPairing(columns, markers)
		pairing.Warnings = append(pairing.Warnings, model.Warning{
			Code:    model.WarnInferredPairing,
			Message: fmt.Sprintf("未声明列配对，按列顺序推断出 %d 对", len(pairing.Pairs)),
		})
		if len(pairing.Pairs) == 0 {
			pairing.Warnings = append(pairing.Warnings, noPairsWarning())
		}
		return pairing
	}

	present := lo.SliceToMap(columns, func(c string) (string, struct{}) { return c, struct{}{} })

	pairing := model.Pairing{
		Pairs: make([]model.ColumnPair, 0, len(declared)),
	}
	for _, p := range declared {
		_, hasFabric := present[p.Fabric]
		_, hasQty := present[p.Qty]
		if !hasFabric || !hasQty {
			missing := lo.Filter([]string{p.Fabric, p.Qty}, func(c string, _ int) bool {
				_, ok := present[c]
				return !ok
			})
			pairing.Warnings = append(pairing.Warnings, model.Warning{
				Code:    model.WarnMissingColumn,
				Message: fmt.Sprintf("配对 %s/%s 缺少列: %s", p.Fabric, p.Qty, strings.Join(missing, ", ")),
			})
			continue
		}
		pairing.Pairs = append(pairing.Pairs, p)
	}

	pairing.FabricColumns = lo.Uniq(lo.Map(pairing.Pairs, func(p model.ColumnPair, _ int) string { return p.Fabric }))
	if len(pairing.Pairs) == 0 {
		pairing.Warnings = append(pairing.Warnings, noPairsWarning())
	}

	return pairing
}

func noPairsWarning() model.Warning {
	return model.Warning{
		Code:    model.WarnNoPairs,
		Message: "没有可用的面料/数量列配对，用量结果均为 0",
	}
}

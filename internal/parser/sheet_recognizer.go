package parser

import (
	"strings"
)

// SheetRecognition 工作表识别结果
type SheetRecognition struct {
	SheetName     string   `json:"sheetName"`
	Score         float64  `json:"score"` // 匹配度 0-1
	MissingFields []string `json:"missingFields,omitempty"`
}

// SheetRecognizer 订单数据表识别器
// 当工作簿里找不到配置的表名时，按表头特征挑选最像订单表的 sheet
type SheetRecognizer struct {
	keyColumns []string
	markers    Markers
}

// NewSheetRecognizer 创建识别器，keyColumns 为日期/车次等必需列名
func NewSheetRecognizer(keyColumns []string, markers Markers) *SheetRecognizer {
	return &SheetRecognizer{
		keyColumns: keyColumns,
		markers:    markers.withDefaults(),
	}
}

// Recognize 计算单个 sheet 的匹配度
func (r *SheetRecognizer) Recognize(sheetName string, header []string) SheetRecognition {
	result := SheetRecognition{SheetName: sheetName}

	total := len(r.keyColumns) + 2
	matched := 0

	for _, key := range r.keyColumns {
		if containsColumn(header, key) {
			matched++
		} else {
			result.MissingFields = append(result.MissingFields, key)
		}
	}

	fabric, qty := ClassifyColumns(header, r.markers)
	if len(fabric) > 0 {
		matched++
	} else {
		result.MissingFields = append(result.MissingFields, r.markers.Fabric+"*")
	}
	if len(qty) > 0 {
		matched++
	} else {
		result.MissingFields = append(result.MissingFields, r.markers.Qty+"*")
	}

	result.Score = float64(matched) / float64(total)
	return result
}

// Best 从多个 sheet 中选出匹配度最高者（相同分数取靠前的 sheet）
// 匹配度低于 0.5 视为无法识别
func (r *SheetRecognizer) Best(sheets []string, headers map[string][]string) (SheetRecognition, bool) {
	var best SheetRecognition
	found := false
	for _, name := range sheets {
		rec := r.Recognize(name, headers[name])
		if !found || rec.Score > best.Score {
			best = rec
			found = true
		}
	}
	if !found || best.Score < 0.5 {
		return best, false
	}
	return best, true
}

func containsColumn(header []string, name string) bool {
	for _, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

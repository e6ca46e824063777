package parser

import (
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// PeriodLayout 月份标签格式，如 "Jan 2024"
const PeriodLayout = "Jan 2006"

// 表格序列号日期的合理范围（1900-01-01 ~ 2199-12-31）
const (
	minSerialDate = 1
	maxSerialDate = 109574
)

// dateLayouts 支持的日期文本格式（按顺序尝试）
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06",
	"1/2/06 15:04",
	"2006/01/02",
	"2006/1/2",
	"2006/01/02 15:04:05",
	"01-02-06",
	"1-2-06",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02-Jan-2006",
	"2-Jan-06",
	"Jan 2006",
	"January 2006",
}

// ParseDate 将单元格解析为日期，失败返回 false（不会 panic）
func ParseDate(c model.Cell) (time.Time, bool) {
	switch c.Kind {
	case model.CellDate:
		return c.AsDate()
	case model.CellNumber:
		serial := c.Number.InexactFloat64()
		if serial < minSerialDate || serial > maxSerialDate {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case model.CellText:
		return parseDateText(c.Text)
	default:
		return time.Time{}, false
	}
}

func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateCellOf 可解析为日期的单元格转为日期值（按秒取整），其余原样返回
func DateCellOf(c model.Cell) model.Cell {
	t, ok := ParseDate(c)
	if !ok {
		return c
	}
	return model.DateCell(t.Round(time.Second))
}

// PeriodOf 由日期得到月份标签
func PeriodOf(t time.Time) model.Period {
	return model.Period{
		Label: t.Format(PeriodLayout),
		Year:  t.Year(),
		Month: int(t.Month()),
	}
}

// PeriodOfCell 单元格 -> 月份标签，无法解析时返回零值（缺失）
func PeriodOfCell(c model.Cell) model.Period {
	t, ok := ParseDate(c)
	if !ok {
		return model.Period{}
	}
	return PeriodOf(t)
}

// ParsePeriodLabel 解析 "Jan 2024" 形式的月份标签
func ParsePeriodLabel(label string) (model.Period, bool) {
	t, err := time.Parse(PeriodLayout, strings.TrimSpace(label))
	if err != nil {
		return model.Period{}, false
	}
	return PeriodOf(t), true
}

// SortPeriodLabels 按年月先后排序标签；无法解析的标签排在最后并保持原顺序
func SortPeriodLabels(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	sort.SliceStable(out, func(i, j int) bool {
		pi, okI := ParsePeriodLabel(out[i])
		pj, okJ := ParsePeriodLabel(out[j])
		if okI != okJ {
			return okI
		}
		if !okI {
			return false
		}
		return pi.Before(pj)
	})
	return out
}

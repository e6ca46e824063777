package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CellKind 单元格值类型
type CellKind int

const (
	CellMissing CellKind = iota // 空值/缺失
	CellText                    // 文本
	CellNumber                  // 数值
	CellDate                    // 日期
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	case CellDate:
		return "date"
	default:
		return "missing"
	}
}

// Cell 单元格值（带类型标签）
type Cell struct {
	Kind   CellKind
	Text   string
	Number decimal.Decimal
	Date   time.Time
}

// plainNumberPattern 仅接受普通十进制数字（可带正负号、小数、科学计数法）
var plainNumberPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?$`)

// MissingCell 缺失值
func MissingCell() Cell {
	return Cell{Kind: CellMissing}
}

// TextCell 文本值
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell 数值
func NumberCell(d decimal.Decimal) Cell {
	return Cell{Kind: CellNumber, Number: d}
}

// DateCell 日期值
func DateCell(t time.Time) Cell {
	return Cell{Kind: CellDate, Date: t}
}

// ParseCell 将原始单元格文本归类为带类型的值
// 空白 -> Missing；普通数字 -> Number；其余 -> Text
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return MissingCell()
	}
	if plainNumberPattern.MatchString(s) {
		if d, err := decimal.NewFromString(s); err == nil {
			return NumberCell(d)
		}
	}
	return TextCell(s)
}

// IsMissing 是否缺失
func (c Cell) IsMissing() bool {
	return c.Kind == CellMissing
}

// AsNumber 转为数值，无法转换时返回 false（不会 panic）
func (c Cell) AsNumber() (decimal.Decimal, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Number, true
	case CellText:
		s := strings.TrimSpace(c.Text)
		if !plainNumberPattern.MatchString(s) {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// AsDate 仅日期类型直接返回；文本/序列号日期的解析见 parser.ParseDate
func (c Cell) AsDate() (time.Time, bool) {
	if c.Kind == CellDate {
		return c.Date, true
	}
	return time.Time{}, false
}

// String 显示值，缺失为空串
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return c.Number.String()
	case CellDate:
		if c.Date.Hour() == 0 && c.Date.Minute() == 0 && c.Date.Second() == 0 {
			return c.Date.Format("2006-01-02")
		}
		return c.Date.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

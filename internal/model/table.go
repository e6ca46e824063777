package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Row 单行数据，单元格与 Table.Columns 一一对应
type Row struct {
	Cells []Cell
}

// IsEmpty 整行均为缺失值
func (r Row) IsEmpty() bool {
	for _, c := range r.Cells {
		if !c.IsMissing() {
			return false
		}
	}
	return true
}

// Table 订单记录表（只读使用）
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// NewTable 创建记录表
// 整行为空的数据行会被剔除；重复列名追加 .1/.2 后缀，空列名记为 "Unnamed: N"
func NewTable(columns []string, rows [][]Cell) *Table {
	cols := uniqueColumnNames(columns)

	t := &Table{
		Columns: cols,
		Rows:    make([]Row, 0, len(rows)),
		index:   make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		t.index[c] = i
	}

	for _, cells := range rows {
		aligned := make([]Cell, len(cols))
		copy(aligned, cells)
		row := Row{Cells: aligned}
		if row.IsEmpty() {
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

func uniqueColumnNames(columns []string) []string {
	out := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	for i, raw := range columns {
		name := strings.TrimRight(raw, "\r\n")
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// Len 行数
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex 获取列索引
func (t *Table) ColumnIndex(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[name]
	return i, ok
}

// HasColumn 是否包含指定列
func (t *Table) HasColumn(name string) bool {
	_, ok := t.ColumnIndex(name)
	return ok
}

// Value 按列名取值，列不存在时返回缺失值
func (t *Table) Value(row int, column string) Cell {
	idx, ok := t.ColumnIndex(column)
	if !ok || row < 0 || row >= len(t.Rows) {
		return MissingCell()
	}
	return t.Rows[row].Cells[idx]
}

// At 按列索引取值
func (t *Table) At(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row].Cells) {
		return MissingCell()
	}
	return t.Rows[row].Cells[col]
}

// MapColumns 返回指定列经 fn 转换后的新表，原表不变
// 不存在的列被忽略；一个都不存在时直接返回原表
func (t *Table) MapColumns(names []string, fn func(Cell) Cell) *Table {
	var idx []int
	for _, name := range names {
		if i, ok := t.ColumnIndex(name); ok {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return t
	}

	out := &Table{Columns: t.Columns, Rows: make([]Row, len(t.Rows)), index: t.index}
	for r, row := range t.Rows {
		cells := make([]Cell, len(row.Cells))
		copy(cells, row.Cells)
		for _, i := range idx {
			cells[i] = fn(cells[i])
		}
		out.Rows[r] = Row{Cells: cells}
	}
	return out
}

// RowMap 以 列名 -> 显示值 的形式导出一行
func (t *Table) RowMap(row int) map[string]string {
	m := make(map[string]string, len(t.Columns))
	for i, col := range t.Columns {
		m[col] = t.At(row, i).String()
	}
	return m
}

// Fingerprint 表头与全部单元格（含类型）的内容摘要，内容相同的表摘要相同
func (t *Table) Fingerprint() string {
	h := sha256.New()
	if t != nil {
		for _, col := range t.Columns {
			fmt.Fprintf(h, "%s\x1f", col)
		}
		h.Write([]byte{'\x1e'})
		for _, row := range t.Rows {
			for _, c := range row.Cells {
				fmt.Fprintf(h, "%d:%s\x1f", c.Kind, c.String())
			}
			h.Write([]byte{'\x1e'})
		}
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16])
}

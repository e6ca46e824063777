package excel

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
	"github.com/GoldenArt-IT/fabric-analysis/internal/parser"
)

// ErrEmptyWorkbook 工作簿没有任何可读的 sheet
var ErrEmptyWorkbook = errors.New("workbook has no readable sheet")

// ReadOptions 读取选项
type ReadOptions struct {
	Sheet      string         // 期望的 sheet 名
	KeyColumns []string       // 找不到 Sheet 时用于识别订单表的列名
	Markers    parser.Markers // 面料/数量列标识
}

// ReadResult 读取结果
type ReadResult struct {
	Table       *model.Table
	Sheet       string
	Recognition *parser.SheetRecognition // 通过表头识别选中 sheet 时非空
}

// Reader Excel 订单表读取器
type Reader struct {
	opts ReadOptions
}

// NewReader 创建读取器
func NewReader(opts ReadOptions) *Reader {
	return &Reader{opts: opts}
}

// ReadFile 打开并读取工作簿文件
func (r *Reader) ReadFile(path string) (*ReadResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()
	return r.Read(f)
}

// ReadFrom 从数据流读取工作簿
func (r *Reader) ReadFrom(reader io.Reader) (*ReadResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel: %w", err)
	}
	defer f.Close()
	return r.Read(f)
}

// Read 读取已打开的工作簿
// 第一行为表头；单元格按原始值读取，日期单元格得到表格序列号，由归一化阶段转换
func (r *Reader) Read(f *excelize.File) (*ReadResult, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}

	result := &ReadResult{}

	sheet, rec, err := r.resolveSheet(f, sheets)
	if err != nil {
		return nil, err
	}
	result.Sheet = sheet
	result.Recognition = rec

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		result.Table = model.NewTable(nil, nil)
		return result, nil
	}

	header := rows[0]
	cells := make([][]model.Cell, 0, len(rows)-1)
	for _, raw := range rows[1:] {
		row := make([]model.Cell, len(raw))
		for i, v := range raw {
			row[i] = model.ParseCell(v)
		}
		cells = append(cells, row)
	}

	result.Table = model.NewTable(header, cells)
	return result, nil
}

// resolveSheet 优先使用配置的 sheet 名，其次按表头特征识别，最后取第一个 sheet
func (r *Reader) resolveSheet(f *excelize.File, sheets []string) (string, *parser.SheetRecognition, error) {
	if r.opts.Sheet != "" {
		for _, s := range sheets {
			if s == r.opts.Sheet {
				return s, nil, nil
			}
		}
	}

	headers := make(map[string][]string, len(sheets))
	for _, s := range sheets {
		rows, err := f.Rows(s)
		if err != nil {
			continue
		}
		if rows.Next() {
			cols, err := rows.Columns()
			if err == nil {
				headers[s] = cols
			}
		}
		_ = rows.Close()
	}

	recognizer := parser.NewSheetRecognizer(r.opts.KeyColumns, r.opts.Markers)
	if best, ok := recognizer.Best(sheets, headers); ok {
		return best.SheetName, &best, nil
	}

	return sheets[0], nil, nil
}

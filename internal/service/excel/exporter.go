package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/GoldenArt-IT/fabric-analysis/internal/model"
)

// 导出报表的 sheet 名
const (
	UsageSheet   = "Fabric Usage"
	MonthlySheet = "Usage by Month"
)

// Exporter 面料用量报表导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export 导出面料用量与月度用量（含柱状图）
// 调用方负责关闭返回的文件
func (e *Exporter) Export(usage []model.UsageRow, monthly model.MonthlyResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", UsageSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(MonthlySheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create style: %w", err)
	}

	// 面料用量
	_ = f.SetSheetRow(UsageSheet, "A1", &[]interface{}{"FABRIC", "USAGE BASED ON ORDERS"})
	for i, u := range usage {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(UsageSheet, cell, &[]interface{}{u.Fabric, u.Total.InexactFloat64()})
	}
	_ = f.SetRowStyle(UsageSheet, 1, 1, headerStyle)
	_ = f.SetColWidth(UsageSheet, "A", "A", 30)
	_ = f.SetColWidth(UsageSheet, "B", "B", 24)

	// 月度用量
	_ = f.SetSheetRow(MonthlySheet, "A1", &[]interface{}{"MONTH", "USAGE"})
	for i, p := range monthly.Periods {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetSheetRow(MonthlySheet, cell, &[]interface{}{p.Period, p.Total.InexactFloat64()})
	}
	_ = f.SetRowStyle(MonthlySheet, 1, 1, headerStyle)
	_ = f.SetColWidth(MonthlySheet, "A", "B", 16)

	if n := len(monthly.Periods); n > 0 {
		last := n + 1
		err := f.AddChart(MonthlySheet, "D2", &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{
				{
					Name:       fmt.Sprintf("'%s'!$B$1", MonthlySheet),
					Categories: fmt.Sprintf("'%s'!$A$2:$A$%d", MonthlySheet, last),
					Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", MonthlySheet, last),
				},
			},
			Title: []excelize.RichTextRun{
				{Text: fmt.Sprintf("Usage of %s by Month", monthly.Fabric)},
			},
			Legend: excelize.ChartLegend{Position: "none"},
		})
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("add chart: %w", err)
		}
	}

	return f, nil
}

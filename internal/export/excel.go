package export

import (
	"github.com/xuri/excelize/v2"

	"github.com/pagelift/pagelift/internal/domain"
)

// ImageTables holds the tables recognized in a single source image.
type ImageTables struct {
	Image  string
	Tables []domain.Table
}

var tablePlaceholder = [][]string{
	{"No tables were recognized"},
	{""},
	{"Possible causes:"},
	{"1. The run used the embedded source and the embedded images contain no tables"},
	{"2. The image quality is too low for the model to read"},
	{""},
	{"Suggestions:"},
	{"- For native PDF documents set the source to page or both"},
	{"- For scanned PDFs check the image quality or raise the DPI"},
}

// WriteExcel writes every table from every image into a single
// worksheet, with one blank row separating images. When no image
// produced any table, a placeholder sheet explains the likely causes.
func WriteExcel(images []ImageTables, outPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	empty := true
	for _, img := range images {
		if len(img.Tables) > 0 {
			empty = false
			break
		}
	}

	if empty {
		writeRows(f, sheet, 1, tablePlaceholder)
		return f.SaveAs(outPath)
	}

	row := 1
	for _, img := range images {
		for _, table := range img.Tables {
			row = writeRows(f, sheet, row, table.Rows)
		}
		// blank row between images
		row++
	}

	return f.SaveAs(outPath)
}

func writeRows(f *excelize.File, sheet string, row int, rows [][]string) int {
	for _, r := range rows {
		for col, v := range r {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		row++
	}
	return row
}

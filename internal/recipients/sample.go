package recipients

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"recruitmail/internal/types"
)

// SampleFilename is the download name of the example workbook.
const SampleFilename = "sample_recruiters.xlsx"

const sampleSheet = "Recruiters"

// SampleRecipients is the fixed example data offered to new users.
var SampleRecipients = []types.Recipient{
	{ID: 0, Name: "John Smith", Email: "john.smith@techcorp.com", Company: "TechCorp", Position: "Software Engineer"},
	{ID: 1, Name: "Sarah Johnson", Email: "sarah.j@innovate.com", Company: "Innovate Inc", Position: "Frontend Developer"},
	{ID: 2, Name: "Michael Chen", Email: "mchen@startupxyz.com", Company: "Startup XYZ", Position: "Full Stack Developer"},
}

// SampleWorkbook builds the example workbook. The caller must Close it.
func SampleWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sampleSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []any{"Name", "Email", "Company", "Position"}
	if err := f.SetSheetRow(sampleSheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, r := range SampleRecipients {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		row := []any{r.Name, r.Email, r.Company, r.Position}
		if err := f.SetSheetRow(sampleSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	return f, nil
}

// WriteSample streams the example workbook to w.
func WriteSample(w io.Writer) error {
	f, err := SampleWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

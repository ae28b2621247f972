package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/ranking"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet    = "Summary"
	candidatesSheet = "Ranked Candidates"
	skillsSheet     = "Missing Skills"
)

// Report is the ranking snapshot written to a workbook
type Report struct {
	Job       models.JobPosting
	Rows      []ranking.Row
	Queue     *models.QueueStatus // nil when the queue status failed to load
	Generated time.Time
}

// SkillGap counts how many ranked candidates miss one skill
type SkillGap struct {
	Skill      string
	Candidates int
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]+`)

// DefaultFilename builds "rankings_<title>_<date>.xlsx" for a job posting
func DefaultFilename(job models.JobPosting, now time.Time) string {
	title := strings.Trim(unsafeName.ReplaceAllString(job.Title, "_"), "_")
	if title == "" {
		title = fmt.Sprintf("job_%d", job.ID)
	}
	return fmt.Sprintf("rankings_%s_%s.xlsx", title, now.Format("20060102_1504"))
}

// ExportRankings writes the report to outputPath and returns the path
// actually written (".xlsx" is appended when missing)
func ExportRankings(report Report, outputPath string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	// Ensure output path has .xlsx extension
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}

	// Clean the path for cross-platform compatibility (Windows paths)
	outputPath = filepath.Clean(outputPath)

	if report.Generated.IsZero() {
		report.Generated = time.Now()
	}

	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(candidatesSheet)
	f.NewSheet(skillsSheet)

	s, err := newStyles(f)
	if err != nil {
		return "", fmt.Errorf("failed to create styles: %w", err)
	}

	if err := createSummarySheet(f, s, report); err != nil {
		return "", fmt.Errorf("failed to create summary sheet: %w", err)
	}

	if err := createRankedCandidatesSheet(f, s, report.Rows); err != nil {
		return "", fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}

	if err := createMissingSkillsSheet(f, s, report.Rows); err != nil {
		return "", fmt.Errorf("failed to create missing skills sheet: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	// Try to save the file directly
	if err := f.SaveAs(outputPath); err != nil {
		// If direct save fails, try buffer write fallback
		var buf bytes.Buffer
		if writeErr := f.Write(&buf); writeErr != nil {
			return "", fmt.Errorf("failed to save Excel file: direct save failed (%v), buffer write also failed: %w", err, writeErr)
		}

		if fileErr := os.WriteFile(outputPath, buf.Bytes(), 0644); fileErr != nil {
			return "", fmt.Errorf("failed to save Excel file: direct save failed (%v), file write failed: %w", err, fileErr)
		}
	}

	return outputPath, nil
}

type styles struct {
	title  int
	header int
	label  int
	wrap   int
	bands  map[ranking.ScoreBand]int
}

func newStyles(f *excelize.File) (*styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	s := &styles{bands: map[ranking.ScoreBand]int{}}
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	}); err != nil {
		return nil, err
	}

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return nil, err
	}

	if s.label, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return nil, err
	}

	if s.wrap, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
		Border:    border,
	}); err != nil {
		return nil, err
	}

	// Row colors follow the score band shown in the ranking view
	for band, color := range map[ranking.ScoreBand]string{
		ranking.BandStrong:   "C6EFCE",
		ranking.BandModerate: "FFEB9C",
		ranking.BandWeak:     "FFC7CE",
		ranking.BandNone:     "EDEDED",
	} {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
			Border:    border,
		})
		if err != nil {
			return nil, err
		}
		s.bands[band] = id
	}

	return s, nil
}

func setLabel(f *excelize.File, s *styles, sheet string, row int, label string, value any) {
	cell := fmt.Sprintf("A%d", row)
	f.SetCellValue(sheet, cell, label)
	f.SetCellStyle(sheet, cell, cell, s.label)
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), value)
}

func setSection(f *excelize.File, s *styles, sheet string, row int, title string) {
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), title)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), s.title)
	f.MergeCell(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
}

// createSummarySheet writes job details, queue status and verdict counts
func createSummarySheet(f *excelize.File, s *styles, report Report) error {
	sheet := summarySheet
	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", "B", 50)

	row := 1
	setSection(f, s, sheet, row, "Candidate Ranking Report")
	row += 2

	setLabel(f, s, sheet, row, "Job Title:", report.Job.Title)
	row++
	setLabel(f, s, sheet, row, "Company:", report.Job.Company)
	row++
	setLabel(f, s, sheet, row, "Location:", report.Job.Location)
	row++
	setLabel(f, s, sheet, row, "Generated:", report.Generated.Format("2006-01-02 15:04:05"))
	row++
	setLabel(f, s, sheet, row, "Candidates Ranked:", len(report.Rows))
	row += 2

	setSection(f, s, sheet, row, "Processing Queue:")
	row++
	if report.Queue == nil {
		setLabel(f, s, sheet, row, "Status:", "Unavailable")
		row++
	} else {
		q := report.Queue
		setLabel(f, s, sheet, row, "Pending:", q.Pending)
		row++
		setLabel(f, s, sheet, row, "Processing:", q.Processing)
		row++
		setLabel(f, s, sheet, row, "Completed:", q.Completed)
		row++
		setLabel(f, s, sheet, row, "Total In Queue:", q.TotalInQueue)
		row++
		if q.ShowWaitTime() {
			setLabel(f, s, sheet, row, "Estimated Wait:", fmt.Sprintf("%d min", q.EstimatedWaitTime))
			row++
		}
	}
	row++

	setSection(f, s, sheet, row, "Verdicts:")
	row++
	counts := ranking.VerdictCounts(report.Rows)
	for _, v := range []models.Verdict{models.VerdictHigh, models.VerdictMedium, models.VerdictLow} {
		setLabel(f, s, sheet, row, string(v)+":", counts[v])
		row++
	}
	row++

	if avg, ok := averageScore(report.Rows); ok {
		setLabel(f, s, sheet, row, "Average Score:", fmt.Sprintf("%.1f", avg))
	}

	return nil
}

// createRankedCandidatesSheet writes one color-coded row per candidate
func createRankedCandidatesSheet(f *excelize.File, s *styles, rows []ranking.Row) error {
	sheet := candidatesSheet
	widths := map[string]float64{"A": 8, "B": 25, "C": 30, "D": 12, "E": 12, "F": 40, "G": 60}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	headers := []string{"Rank", "Candidate", "Resume", "Score", "Verdict", "Missing Skills", "Suggestions"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, s.header)
	}

	for i, r := range rows {
		row := i + 2
		a := r.Analysis
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r.RankLabel)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r.CandidateName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), r.ResumeName)
		if score, ok := a.Score(); ok {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), score)
		} else {
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), ranking.ScoreLabel(a))
		}
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), string(a.Verdict))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), strings.Join(a.MissingSkills, ", "))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), a.ImprovementSuggestions)

		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("G%d", row), s.bands[ranking.Band(a)])
	}

	// Enable auto-filter
	if len(rows) > 0 {
		f.AutoFilter(sheet, fmt.Sprintf("A1:G%d", len(rows)+1), []excelize.AutoFilterOptions{})
	}

	// Freeze top row
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// createMissingSkillsSheet lists skills by how many candidates miss them
func createMissingSkillsSheet(f *excelize.File, s *styles, rows []ranking.Row) error {
	sheet := skillsSheet
	f.SetColWidth(sheet, "A", "A", 35)
	f.SetColWidth(sheet, "B", "B", 20)
	f.SetColWidth(sheet, "C", "C", 15)

	headers := []string{"Skill", "Candidates Missing", "Share"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, s.header)
	}

	for i, gap := range MissingSkills(rows) {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), gap.Skill)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), gap.Candidates)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("%.0f%%", float64(gap.Candidates)*100/float64(len(rows))))
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("C%d", row), s.wrap)
	}

	return nil
}

// MissingSkills counts each skill once per candidate, most common first.
// Skills are matched case-insensitively and reported with the first
// spelling seen.
func MissingSkills(rows []ranking.Row) []SkillGap {
	index := map[string]int{}
	var gaps []SkillGap

	for _, r := range rows {
		seen := map[string]bool{}
		for _, skill := range r.Analysis.MissingSkills {
			skill = strings.TrimSpace(skill)
			key := strings.ToLower(skill)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true

			if i, ok := index[key]; ok {
				gaps[i].Candidates++
				continue
			}
			index[key] = len(gaps)
			gaps = append(gaps, SkillGap{Skill: skill, Candidates: 1})
		}
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		if gaps[i].Candidates != gaps[j].Candidates {
			return gaps[i].Candidates > gaps[j].Candidates
		}
		return strings.ToLower(gaps[i].Skill) < strings.ToLower(gaps[j].Skill)
	})
	return gaps
}

func averageScore(rows []ranking.Row) (float64, bool) {
	var total float64
	n := 0
	for _, r := range rows {
		if score, ok := r.Analysis.Score(); ok {
			total += score
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / float64(n), true
}

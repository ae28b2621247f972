package ranking

import (
	"reflect"
	"testing"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func named(id int, name string, rank *int, score *float64) models.Analysis {
	status := models.AnalysisPending
	if score != nil {
		status = models.AnalysisCompleted
	}
	return models.Analysis{
		ID:             id,
		ResumeID:       id,
		JobID:          7,
		Status:         status,
		Rank:           rank,
		RelevanceScore: score,
		Resume:         &models.Resume{ID: id, OriginalFilename: name},
	}
}

func names(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ResumeName
	}
	return out
}

// TestRankServerRanks tests ranked records first, unranked appended in fetch order
func TestRankServerRanks(t *testing.T) {
	input := []models.Analysis{
		named(1, "A", intp(2), floatp(70)),
		named(2, "B", intp(1), floatp(90)),
		named(3, "C", nil, nil),
		named(4, "D", nil, nil),
	}

	rows := Rank(input)

	if got, want := names(rows), []string{"B", "A", "C", "D"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	wantLabels := []int{1, 2, 3, 4}
	for i, r := range rows {
		if r.RankLabel != wantLabels[i] {
			t.Errorf("row %d label = %d, want %d", i, r.RankLabel, wantLabels[i])
		}
		if r.TopCandidate != (i == 0) {
			t.Errorf("row %d top = %v", i, r.TopCandidate)
		}
	}
	if input[0].ID != 1 {
		t.Error("input was reordered")
	}
}

// TestRankLabelsKeepServerValue tests that gaps in server ranks are shown as is
func TestRankLabelsKeepServerValue(t *testing.T) {
	rows := Rank([]models.Analysis{
		named(1, "A", intp(5), nil),
		named(2, "B", nil, nil),
		named(3, "C", intp(3), nil),
	})
	got := []int{rows[0].RankLabel, rows[1].RankLabel, rows[2].RankLabel}
	if want := []int{3, 5, 3}; !reflect.DeepEqual(got, want) {
		t.Errorf("labels = %v, want %v", got, want)
	}
}

// TestRankByScore tests the fallback ordering when no rank is assigned
func TestRankByScore(t *testing.T) {
	rows := Rank([]models.Analysis{
		named(1, "A", nil, nil),
		named(2, "B", nil, floatp(60)),
		named(3, "C", nil, floatp(91.5)),
		named(4, "D", nil, floatp(60)),
		named(5, "E", nil, nil),
	})

	if got, want := names(rows), []string{"C", "B", "D", "A", "E"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if rows[0].RankLabel != 1 || rows[4].RankLabel != 5 {
		t.Errorf("labels should be positional: %d, %d", rows[0].RankLabel, rows[4].RankLabel)
	}
}

// TestRankStable tests that equal keys keep fetch order and reruns agree
func TestRankStable(t *testing.T) {
	input := []models.Analysis{
		named(1, "A", intp(1), nil),
		named(2, "B", intp(1), nil),
		named(3, "C", intp(1), nil),
		named(4, "D", nil, nil),
	}

	first := names(Rank(input))
	if want := []string{"A", "B", "C", "D"}; !reflect.DeepEqual(first, want) {
		t.Fatalf("order = %v, want %v", first, want)
	}
	for i := 0; i < 5; i++ {
		if again := names(Rank(input)); !reflect.DeepEqual(again, first) {
			t.Fatalf("run %d order = %v, want %v", i, again, first)
		}
	}
}

// TestRankZeroRankIsUnranked tests that rank 0 is not treated as assigned
func TestRankZeroRankIsUnranked(t *testing.T) {
	rows := Rank([]models.Analysis{
		named(1, "A", intp(0), floatp(40)),
		named(2, "B", intp(0), floatp(95)),
	})
	if got, want := names(rows), []string{"B", "A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

// TestRankDuplicatesAndOrphans tests duplicate resumes and missing projections
func TestRankDuplicatesAndOrphans(t *testing.T) {
	a := named(1, "A", intp(1), floatp(80))
	dup := named(2, "A", intp(2), floatp(70))
	dup.ResumeID = a.ResumeID
	orphan := models.Analysis{ID: 3, ResumeID: 99, Rank: intp(3)}

	rows := Rank([]models.Analysis{orphan, dup, a})
	if len(rows) != 3 {
		t.Fatalf("rows = %d, duplicates must be kept", len(rows))
	}
	last := rows[2]
	if last.ResumeName != "Resume" || last.CandidateName != "Unknown User" {
		t.Errorf("orphan row = %q/%q", last.ResumeName, last.CandidateName)
	}
}

// TestRankEmpty tests that an empty input has no rows
func TestRankEmpty(t *testing.T) {
	if rows := Rank(nil); len(rows) != 0 {
		t.Errorf("rows = %v", rows)
	}
}

// TestTruncate tests display truncation
func TestTruncate(t *testing.T) {
	rows := Rank([]models.Analysis{named(1, "A", intp(1), nil), named(2, "B", intp(2), nil), named(3, "C", intp(3), nil)})

	if got := Truncate(rows, 2); len(got) != 2 || !got[0].TopCandidate {
		t.Errorf("Truncate(2) = %v", names(got))
	}
	if got := Truncate(rows, 0); len(got) != 3 {
		t.Errorf("Truncate(0) kept %d rows", len(got))
	}
}

// TestSkillsPreview tests the missing skills presentation rule
func TestSkillsPreview(t *testing.T) {
	skills := []string{"Go", "SQL", "Docker", "Kubernetes", "gRPC", "Kafka", "Terraform"}

	shown, overflow := SkillsPreview(skills)
	if len(shown) != 5 || overflow != 2 {
		t.Errorf("shown %d overflow %d, want 5/2", len(shown), overflow)
	}
	if OverflowLabel(overflow) != "+2 more" {
		t.Errorf("label = %q", OverflowLabel(overflow))
	}
	if len(skills) != 7 {
		t.Error("source list was truncated")
	}

	shown = append(shown, "extra")
	if skills[5] != "Kafka" {
		t.Error("appending to the preview must not write into the source")
	}

	few, overflow := SkillsPreview([]string{"Go"})
	if len(few) != 1 || overflow != 0 || OverflowLabel(overflow) != "" {
		t.Errorf("short list = %v/%d", few, overflow)
	}
}

// TestScoreLabelAndBand tests score presentation
func TestScoreLabelAndBand(t *testing.T) {
	tests := []struct {
		score     *float64
		wantLabel string
		wantBand  ScoreBand
	}{
		{nil, "N/A", BandNone},
		{floatp(82.34), "82.3", BandStrong},
		{floatp(80), "80.0", BandStrong},
		{floatp(79.99), "80.0", BandModerate},
		{floatp(60), "60.0", BandModerate},
		{floatp(12.5), "12.5", BandWeak},
	}

	for _, tt := range tests {
		t.Run(tt.wantLabel, func(t *testing.T) {
			a := models.Analysis{RelevanceScore: tt.score}
			if got := ScoreLabel(a); got != tt.wantLabel {
				t.Errorf("ScoreLabel = %q, want %q", got, tt.wantLabel)
			}
			if got := Band(a); got != tt.wantBand {
				t.Errorf("Band = %v, want %v", got, tt.wantBand)
			}
		})
	}
}

// TestVerdictCounts tests verdict tallies for the export summary
func TestVerdictCounts(t *testing.T) {
	high := named(1, "A", nil, floatp(90))
	high.Verdict = models.VerdictHigh
	low := named(2, "B", nil, floatp(20))
	low.Verdict = models.VerdictLow
	pending := named(3, "C", nil, nil)

	counts := VerdictCounts(Rank([]models.Analysis{high, low, pending}))
	if counts[models.VerdictHigh] != 1 || counts[models.VerdictLow] != 1 || counts[models.VerdictMedium] != 0 {
		t.Errorf("counts = %v", counts)
	}
}

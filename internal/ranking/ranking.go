// Package ranking orders a job's analyses into display rows.
package ranking

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/aggregate"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// MaxSkillsShown is how many missing skills a row lists before collapsing
// the rest into an overflow count
const MaxSkillsShown = 5

// Row is one candidate line of a ranking
type Row struct {
	Analysis models.Analysis
	// Position is the 1-based index in the ordered output
	Position int
	// RankLabel is the server rank when assigned, otherwise Position
	RankLabel    int
	TopCandidate bool

	ResumeName    string
	CandidateName string
}

// Rank orders analyses for display. When any record has a server rank, ranked
// records come first in ascending rank and unranked ones follow in fetch
// order. When none has a rank, records are ordered by descending score with
// missing scores last. Equal keys keep their fetch order. The first row is
// the top candidate. The input is not modified.
func Rank(analyses []models.Analysis) []Row {
	ordered := append([]models.Analysis(nil), analyses...)

	if anyRanked(ordered) {
		sort.SliceStable(ordered, func(i, j int) bool {
			ri, iok := rankOf(ordered[i])
			rj, jok := rankOf(ordered[j])
			switch {
			case iok && jok:
				return ri < rj
			case iok:
				return true
			default:
				return false
			}
		})
	} else {
		sort.SliceStable(ordered, func(i, j int) bool {
			si, iok := ordered[i].Score()
			sj, jok := ordered[j].Score()
			switch {
			case iok && jok:
				return si > sj
			case iok:
				return true
			default:
				return false
			}
		})
	}

	rows := make([]Row, len(ordered))
	for i, a := range ordered {
		label := i + 1
		if r, ok := rankOf(a); ok {
			label = r
		}
		rows[i] = Row{
			Analysis:      a,
			Position:      i + 1,
			RankLabel:     label,
			TopCandidate:  i == 0,
			ResumeName:    aggregate.ResumeName(a),
			CandidateName: aggregate.CandidateName(a),
		}
	}
	return rows
}

// Truncate keeps the first n rows; n <= 0 keeps everything
func Truncate(rows []Row, n int) []Row {
	if n <= 0 || len(rows) <= n {
		return rows
	}
	return rows[:n]
}

func anyRanked(analyses []models.Analysis) bool {
	for _, a := range analyses {
		if _, ok := rankOf(a); ok {
			return true
		}
	}
	return false
}

func rankOf(a models.Analysis) (int, bool) {
	if a.Rank == nil || *a.Rank <= 0 {
		return 0, false
	}
	return *a.Rank, true
}

// SkillsPreview returns the skills to show and how many were hidden. The
// input slice is not modified.
func SkillsPreview(skills []string) (shown []string, overflow int) {
	if len(skills) <= MaxSkillsShown {
		return skills, 0
	}
	return skills[:MaxSkillsShown:MaxSkillsShown], len(skills) - MaxSkillsShown
}

// OverflowLabel renders the hidden skill count, or "" when nothing is hidden
func OverflowLabel(overflow int) string {
	if overflow <= 0 {
		return ""
	}
	return fmt.Sprintf("+%d more", overflow)
}

// ScoreLabel renders a score to one decimal, or "N/A" when absent
func ScoreLabel(a models.Analysis) string {
	s, ok := a.Score()
	if !ok {
		return "N/A"
	}
	return strconv.FormatFloat(s, 'f', 1, 64)
}

// ScoreBand groups scores for colouring
type ScoreBand int

const (
	BandNone ScoreBand = iota
	BandWeak
	BandModerate
	BandStrong
)

func (b ScoreBand) String() string {
	switch b {
	case BandStrong:
		return "strong"
	case BandModerate:
		return "moderate"
	case BandWeak:
		return "weak"
	default:
		return "none"
	}
}

// Band classifies a score: 80 and above is strong, 60 and above moderate
func Band(a models.Analysis) ScoreBand {
	s, ok := a.Score()
	switch {
	case !ok:
		return BandNone
	case s >= 80:
		return BandStrong
	case s >= 60:
		return BandModerate
	default:
		return BandWeak
	}
}

// VerdictCounts tallies the verdicts of the given rows
func VerdictCounts(rows []Row) map[models.Verdict]int {
	counts := map[models.Verdict]int{
		models.VerdictHigh:   0,
		models.VerdictMedium: 0,
		models.VerdictLow:    0,
	}
	for _, r := range rows {
		if r.Analysis.Verdict != "" {
			counts[r.Analysis.Verdict]++
		}
	}
	return counts
}

package analytics

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"lessonloop/internal/domain"
)

// ExportTimeLayout formats the export timestamp line.
const ExportTimeLayout = "2006-01-02 15:04:05 MST"

const notAvailable = "N/A"

// Report is the fully resolved input of a class export.
type Report struct {
	Class       domain.Class
	TeacherName string
	Roster      []domain.User
	Quizzes     []domain.Quiz
	Results     []domain.QuizResult
	ExportedAt  time.Time
}

// ReportFilename is the attachment name for a class export.
func ReportFilename(className string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, className)
	return name + "_Class_Report.csv"
}

// WriteReport renders the class overview, the mastery summary and the
// per-student score matrix as CSV. Only ExportedAt varies between calls
// with equal inputs.
func WriteReport(w io.Writer, r Report) error {
	bw := bufio.NewWriter(w)

	line(bw, "Class Name:", field(r.Class.Name))
	line(bw, "Teacher:", field(r.TeacherName))
	line(bw, "Invite Code:", field(r.Class.InviteCode))
	line(bw, "Export Date:", r.ExportedAt.UTC().Format(ExportTimeLayout))
	bw.WriteString("\n")

	bw.WriteString("Class Performance Summary\n")
	line(bw, "Category", "Topic", "Average Score (%)")
	mastery := Analyze(r.Quizzes, r.Results)
	for _, tier := range []struct {
		label string
		stats []TopicStat
	}{
		{"Strongest", mastery.Strongest},
		{"Weakest", mastery.Weakest},
		{"Almost Mastered", mastery.AlmostMastered},
	} {
		for _, s := range tier.stats {
			line(bw, tier.label, field(s.Topic), fixed2(s.Average))
		}
	}
	bw.WriteString("\n")

	bw.WriteString("Individual Student Performance\n")
	header := []string{"Student Name", "Student Email"}
	for _, q := range r.Quizzes {
		header = append(header, field(q.Title+" ("+q.Topic+")"))
	}
	header = append(header, "Overall Average (%)")
	line(bw, header...)

	idx := quizIndex(r.Quizzes)
	scores := make(map[string]map[string]float64)
	totals := make(map[string]points)
	for _, res := range r.Results {
		if _, ok := idx[res.QuizID]; !ok {
			continue
		}
		perQuiz, ok := scores[res.StudentID]
		if !ok {
			perQuiz = make(map[string]float64)
			scores[res.StudentID] = perQuiz
		}
		perQuiz[res.QuizID] = ResultPercentage(res)
		t := totals[res.StudentID]
		t.scored += res.Score
		t.possible += res.TotalQuestions
		totals[res.StudentID] = t
	}

	for _, student := range r.Roster {
		row := []string{quoted(student.Name), quoted(student.Email)}
		perQuiz := scores[student.ID]
		for _, q := range r.Quizzes {
			if pct, ok := perQuiz[q.ID]; ok {
				row = append(row, fixed2(pct))
			} else {
				row = append(row, notAvailable)
			}
		}
		if t := totals[student.ID]; t.possible > 0 {
			row = append(row, fixed2(Percentage(t.scored, t.possible)))
		} else {
			row = append(row, notAvailable)
		}
		line(bw, row...)
	}

	return bw.Flush()
}

func line(w *bufio.Writer, cells ...string) {
	w.WriteString(strings.Join(cells, ","))
	w.WriteString("\n")
}

func fixed2(v float64) string {
	return strconv.FormatFloat(Round2(v), 'f', 2, 64)
}

// field quotes s only when it would otherwise break the row.
func field(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quoted(s)
	}
	return s
}

func quoted(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

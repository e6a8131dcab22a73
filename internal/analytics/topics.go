package analytics

import (
	"sort"

	"lessonloop/internal/domain"
)

// Tier thresholds, in percent.
const (
	StrongThreshold = 80.0
	AlmostThreshold = 50.0
)

// TopicStat is the mean percentage of all submissions under one topic.
type TopicStat struct {
	Topic   string  `json:"topic"`
	Average float64 `json:"average"`
	Count   int     `json:"quizzes"`
}

// Mastery partitions topics into the three tiers.
type Mastery struct {
	Strongest      []TopicStat `json:"strongest"`
	Weakest        []TopicStat `json:"weakest"`
	AlmostMastered []TopicStat `json:"almostMastered"`
}

// AggregateTopics groups results by their quiz's topic (exact, case-sensitive)
// and averages the per-result percentages. Results whose quiz is not in
// quizzes are dropped. Topics are returned in first-seen order.
func AggregateTopics(quizzes []domain.Quiz, results []domain.QuizResult) []TopicStat {
	idx := quizIndex(quizzes)

	type acc struct {
		sum   float64
		count int
	}
	var order []string
	groups := make(map[string]*acc)
	for _, r := range results {
		quiz, ok := idx[r.QuizID]
		if !ok {
			continue
		}
		g, ok := groups[quiz.Topic]
		if !ok {
			g = &acc{}
			groups[quiz.Topic] = g
			order = append(order, quiz.Topic)
		}
		g.sum += ResultPercentage(r)
		g.count++
	}

	stats := make([]TopicStat, 0, len(order))
	for _, topic := range order {
		g := groups[topic]
		stats = append(stats, TopicStat{
			Topic:   topic,
			Average: g.sum / float64(g.count),
			Count:   g.count,
		})
	}
	return stats
}

// Classify buckets stats by average: >= 80 strongest, [50, 80) almost mastered,
// < 50 weakest. Strongest and almost mastered sort best-first, weakest worst-first.
// All three slices are non-nil.
func Classify(stats []TopicStat) Mastery {
	m := Mastery{
		Strongest:      []TopicStat{},
		Weakest:        []TopicStat{},
		AlmostMastered: []TopicStat{},
	}
	for _, s := range stats {
		switch {
		case s.Average >= StrongThreshold:
			m.Strongest = append(m.Strongest, s)
		case s.Average >= AlmostThreshold:
			m.AlmostMastered = append(m.AlmostMastered, s)
		default:
			m.Weakest = append(m.Weakest, s)
		}
	}
	sort.SliceStable(m.Strongest, func(i, j int) bool { return m.Strongest[i].Average > m.Strongest[j].Average })
	sort.SliceStable(m.AlmostMastered, func(i, j int) bool { return m.AlmostMastered[i].Average > m.AlmostMastered[j].Average })
	sort.SliceStable(m.Weakest, func(i, j int) bool { return m.Weakest[i].Average < m.Weakest[j].Average })
	return m
}

// Analyze is AggregateTopics followed by Classify.
func Analyze(quizzes []domain.Quiz, results []domain.QuizResult) Mastery {
	return Classify(AggregateTopics(quizzes, results))
}

// Package scoring turns a raw answer plus timing data into points.
// All functions are pure; callers recompute results whenever the answer
// set for a question changes, since time-bonus ranks shift as answers arrive.
package scoring

import (
	"sort"
	"strconv"
	"strings"

	"pubquiz-service/internal/domain"
)

// Result is the outcome of scoring a single submission.
type Result struct {
	IsCorrect   bool `json:"isCorrect"`
	BasePoints  int  `json:"basePoints"`
	TimeBonus   int  `json:"timeBonus"`
	TotalPoints int  `json:"totalPoints"`
}

const mcBasePoints = 10

// BasePoints evaluates correctness and base points for a submission.
//
// Multiple choice compares the submitted letter against the correct letter,
// trimmed and case-insensitive. Estimation parses both values as numbers and
// awards banded points by percentage difference; a non-numeric value or a
// zero correct answer is simply incorrect.
func BasePoints(kind domain.AnswerKind, submitted, correct string) (bool, int) {
	if kind != domain.AnswerEstimation {
		equal := strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(correct))
		if equal {
			return true, mcBasePoints
		}
		return false, 0
	}

	submittedNum, err1 := strconv.ParseFloat(strings.TrimSpace(submitted), 64)
	correctNum, err2 := strconv.ParseFloat(strings.TrimSpace(correct), 64)
	if err1 != nil || err2 != nil || correctNum == 0 {
		return false, 0
	}

	diff := submittedNum - correctNum
	if diff < 0 {
		diff = -diff
	}
	abs := correctNum
	if abs < 0 {
		abs = -abs
	}
	percentDiff := diff / abs * 100

	// Bands are upper-bound inclusive, evaluated ascending, first match wins.
	switch {
	case percentDiff == 0:
		return true, 10
	case percentDiff <= 10:
		return true, 8
	case percentDiff <= 25:
		return true, 5
	case percentDiff <= 50:
		return true, 2
	}
	return false, 0
}

// TimeBonus awards points for being among the fastest correct responders.
// correctTimes must contain only times of correct answers to the question,
// including the current submission's own time. Rank is the 1-based position
// of the first occurrence of timeTaken in the ascending-sorted set.
func TimeBonus(timeTaken float64, correctTimes []float64) int {
	if len(correctTimes) == 0 {
		return 0
	}
	sorted := make([]float64, len(correctTimes))
	copy(sorted, correctTimes)
	sort.Float64s(sorted)

	rank := 0
	for i, t := range sorted {
		if t == timeTaken {
			rank = i + 1
			break
		}
	}

	switch {
	case rank == 1:
		return 5
	case rank == 2:
		return 3
	case rank == 3:
		return 2
	case rank >= 4 && rank <= 10:
		return 1
	}
	return 0
}

// Score combines base points and time bonus for one submission. The time
// bonus is granted only when the answer is correct, ranked against the
// other correct answers' times.
func Score(kind domain.AnswerKind, submitted, correct string, timeTaken float64, correctTimes []float64) Result {
	isCorrect, base := BasePoints(kind, submitted, correct)

	bonus := 0
	if isCorrect {
		bonus = TimeBonus(timeTaken, correctTimes)
	}

	return Result{
		IsCorrect:   isCorrect,
		BasePoints:  base,
		TimeBonus:   bonus,
		TotalPoints: base + bonus,
	}
}

// Package scoring maps a question and a submitted answer to a correctness
// verdict and awarded points. Evaluation is pure: no I/O, no clock, no
// persistence.
package scoring

import (
	"github.com/classhub/scoring-api/internal/models"
)

// SubmittedAnswer carries a student's response to a single question.
type SubmittedAnswer struct {
	QuestionID      uint
	SelectedOptions []uint
	TextAnswer      string
}

// Outcome is the result of evaluating one answer.
type Outcome struct {
	Correct bool
	Points  float64
}

type rule func(models.Question, SubmittedAnswer) Outcome

var rules = map[string]rule{
	models.QuestionTypeMultipleChoice:    evaluateSingleChoice,
	models.QuestionTypeTrueFalse:         evaluateSingleChoice,
	models.QuestionTypeMultipleSelection: evaluateMultipleSelection,
	models.QuestionTypeShortAnswer:       evaluateShortAnswer,
}

// Evaluate scores a submitted answer against its question. Unknown question
// types and questions without options score as incorrect.
func Evaluate(question models.Question, answer SubmittedAnswer) Outcome {
	evaluate, ok := rules[question.Type]
	if !ok {
		return Outcome{}
	}
	return evaluate(question, answer)
}

func evaluateSingleChoice(question models.Question, answer SubmittedAnswer) Outcome {
	correct := question.CorrectOptionIDs()
	if len(correct) != 1 || len(answer.SelectedOptions) != 1 {
		return Outcome{}
	}
	if answer.SelectedOptions[0] != correct[0] {
		return Outcome{}
	}
	return Outcome{Correct: true, Points: question.Points}
}

// evaluateMultipleSelection is all-or-nothing: the submitted set must equal
// the correct set exactly. Partial overlap scores zero.
func evaluateMultipleSelection(question models.Question, answer SubmittedAnswer) Outcome {
	correct := toSet(question.CorrectOptionIDs())
	submitted := toSet(answer.SelectedOptions)
	if len(correct) == 0 || len(submitted) != len(correct) {
		return Outcome{}
	}
	for id := range submitted {
		if _, ok := correct[id]; !ok {
			return Outcome{}
		}
	}
	return Outcome{Correct: true, Points: question.Points}
}

// evaluateShortAnswer never awards points automatically; a grader may later
// set a manual override on the answer row.
func evaluateShortAnswer(models.Question, SubmittedAnswer) Outcome {
	return Outcome{}
}

func toSet(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

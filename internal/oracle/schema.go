package oracle

import "adaptive-quiz-service/internal/llm"

// QuestionSchema is the shape of a generated question.
var QuestionSchema = &llm.Schema{
	Name:        "assessment-question",
	Description: "A single open-ended assessment question",
	Fields: []llm.Field{
		{Name: "question", Kind: llm.KindString, Description: "The question text shown to the learner, self-contained and answerable in a few sentences"},
	},
}

// GradeSchema is the shape of a grading verdict.
var GradeSchema = &llm.Schema{
	Name:        "assessment-grade",
	Description: "A verdict on a learner's answer with a suggested difficulty move",
	Fields: []llm.Field{
		{Name: "correct", Kind: llm.KindBoolean, Description: "Whether the answer is substantially correct"},
		{Name: "explanation", Kind: llm.KindString, Description: "One or two sentences explaining the verdict"},
		{Name: "difficulty_delta", Kind: llm.KindInteger, Description: "Suggested move on the difficulty ladder: -1, 0 or 1"},
	},
}

// SummarySchema is the shape of end-of-session feedback.
var SummarySchema = &llm.Schema{
	Name:        "assessment-summary",
	Description: "Feedback on a finished session and a difficulty rating for the learner",
	Fields: []llm.Field{
		{Name: "feedback", Kind: llm.KindString, Description: "A short paragraph of feedback addressed to the learner"},
		{Name: "rating", Kind: llm.KindString, Description: "The ladder label that best matches the learner's demonstrated level"},
	},
}

// ModerationSchema is the shape of a username verdict.
var ModerationSchema = &llm.Schema{
	Name:        "username-moderation",
	Description: "Whether a public username is acceptable",
	Fields: []llm.Field{
		{Name: "allowed", Kind: llm.KindBoolean, Description: "True when the username is appropriate for a public leaderboard"},
		{Name: "reason", Kind: llm.KindString, Description: "Short reason when the username is rejected, empty otherwise"},
	},
}

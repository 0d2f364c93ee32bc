package oracle

import (
	"fmt"
	"strings"

	"adaptive-quiz-service/internal/domain"
)

const questionSystemPrompt = `You write assessment questions for an adaptive quiz.

Rules:
- Write exactly one open-ended question on the given topic at the given difficulty.
- The difficulty ladder runs from novice-1 (easiest) through novice-4, resident-1 to resident-5, up to attending (hardest).
- The question must be self-contained and answerable in a few sentences.
- Do not repeat or rephrase any question from the "already asked" list.
- When the topic is "random", pick any topic suited to the difficulty.`

const gradingSystemPrompt = `You grade answers in an adaptive quiz.

Rules:
- Decide whether the answer is substantially correct for the question at the stated difficulty.
- Explain the verdict in one or two sentences addressed to the learner.
- Suggest a difficulty move: 1 when the answer shows mastery, 0 when it is adequate or wrong but close, -1 when it shows the question was too hard.`

const summarySystemPrompt = `You review finished sessions of an adaptive quiz.

Rules:
- Write a short paragraph of feedback on the learner's strengths and gaps.
- Rate the learner with exactly one ladder label: novice-1, novice-2, novice-3, novice-4, resident-1, resident-2, resident-3, resident-4, resident-5 or attending.`

const moderationSystemPrompt = `You moderate usernames shown on a public leaderboard.

Reject names that are offensive, hateful, sexual, impersonate staff, or contain personal data. Accept everything else.`

func questionMessage(topic string, difficulty domain.Difficulty, avoid []string, max int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Difficulty: %s\n", difficulty)
	b.WriteString("\nAlready asked:\n")
	b.WriteString(buildAvoid(avoid, max))
	return b.String()
}

// buildAvoid lists the most recent max questions, or "None".
func buildAvoid(avoid []string, max int) string {
	if len(avoid) == 0 {
		return "None"
	}
	if max > 0 && len(avoid) > max {
		avoid = avoid[len(avoid)-max:]
	}
	var b strings.Builder
	for i, q := range avoid {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return strings.TrimRight(b.String(), "\n")
}

func gradingMessage(question, answer string, difficulty domain.Difficulty) string {
	return fmt.Sprintf("Difficulty: %s\nQuestion: %s\nAnswer: %s", difficulty, question, answer)
}

func summaryMessage(transcript []domain.SessionItem, start domain.Difficulty) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Starting difficulty: %s\n\n", start)
	if len(transcript) == 0 {
		b.WriteString("No questions were asked.")
		return b.String()
	}
	for _, item := range transcript {
		fmt.Fprintf(&b, "%d. [%s] %s\n", item.Ordinal, item.StartingDifficulty, item.Question)
		if item.Grade == nil {
			b.WriteString("   Not answered.\n")
			continue
		}
		verdict := "wrong"
		if item.Grade.Correct {
			verdict = "correct"
		}
		fmt.Fprintf(&b, "   Answer (%s): %s\n", verdict, item.Grade.UserAnswer)
	}
	return strings.TrimRight(b.String(), "\n")
}

func moderationMessage(username string) string {
	return fmt.Sprintf("Username: %s", username)
}

package domain

// Difficulty is one rung of the fixed ten-tier ladder.
type Difficulty string

const (
	Novice1   Difficulty = "novice-1"
	Novice2   Difficulty = "novice-2"
	Novice3   Difficulty = "novice-3"
	Novice4   Difficulty = "novice-4"
	Resident1 Difficulty = "resident-1"
	Resident2 Difficulty = "resident-2"
	Resident3 Difficulty = "resident-3"
	Resident4 Difficulty = "resident-4"
	Resident5 Difficulty = "resident-5"
	Attending Difficulty = "attending"
)

const defaultIdx = 2

// Ladder lists every tier from easiest to hardest.
var Ladder = [...]Difficulty{
	Novice1, Novice2, Novice3, Novice4,
	Resident1, Resident2, Resident3, Resident4, Resident5,
	Attending,
}

var ladderIndex = func() map[Difficulty]int {
	m := make(map[Difficulty]int, len(Ladder))
	for i, d := range Ladder {
		m[d] = i
	}
	return m
}()

// DefaultDifficulty is what unknown labels resolve to.
const DefaultDifficulty = Novice3

// Valid reports whether d is a ladder member.
func (d Difficulty) Valid() bool {
	_, ok := ladderIndex[d]
	return ok
}

// Index returns the 0-based ladder position; unknown labels map to 2.
func (d Difficulty) Index() int {
	if i, ok := ladderIndex[d]; ok {
		return i
	}
	return defaultIdx
}

// Tier is the 1-based tier used for scoring.
func (d Difficulty) Tier() int {
	return d.Index() + 1
}

// ParseDifficulty resolves raw to a ladder member, falling back to the default tier.
func ParseDifficulty(raw string) Difficulty {
	d := Difficulty(raw)
	if d.Valid() {
		return d
	}
	return Ladder[defaultIdx]
}

// Bump moves current by delta rungs, clamped to the ends of the ladder.
func Bump(current Difficulty, delta int) Difficulty {
	next := current.Index() + delta
	if next < 0 {
		next = 0
	}
	if last := len(Ladder) - 1; next > last {
		next = last
	}
	return Ladder[next]
}

// CorrectPoints is awarded for a correct answer at d.
func CorrectPoints(d Difficulty) int {
	return 10 * d.Tier()
}

// WrongPoints is deducted for a wrong answer at d.
func WrongPoints(d Difficulty) int {
	return 5 * d.Tier()
}

// PointsFor returns the signed score delta for an answer at d.
func PointsFor(d Difficulty, correct bool) int {
	if correct {
		return CorrectPoints(d)
	}
	return -WrongPoints(d)
}

// ClampDelta accepts only -1, 0 or +1 from an oracle suggestion. Anything else,
// including a missing value, falls back to +1 when correct and 0 otherwise.
func ClampDelta(suggested *int, correct bool) int {
	if suggested != nil {
		switch *suggested {
		case -1, 0, 1:
			return *suggested
		}
	}
	if correct {
		return 1
	}
	return 0
}

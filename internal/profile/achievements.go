package profile

import "slices"

// Progress holds the counters achievements are judged on.
type Progress struct {
	Laps         int
	CO2SavedKg   float64
	BestStreak   int
	QuizzesDone  int
	QuizzesTotal int
	Friends      int
}

type achievement struct {
	id          string
	name        string
	description string
	goal        func(Progress) float64
	value       func(Progress) float64
}

func fixed(n float64) func(Progress) float64 { return func(Progress) float64 { return n } }

var achievements = []achievement{
	{"rookie-racer", "Rookie Racer", "Complete your first race", fixed(1), func(p Progress) float64 { return float64(p.Laps) }},
	{"green-starter", "Green Starter", "Save 10kg of CO2", fixed(10), func(p Progress) float64 { return p.CO2SavedKg }},
	{"week-warrior", "Week Warrior", "Maintain a 7-day streak", fixed(7), func(p Progress) float64 { return float64(p.BestStreak) }},
	{"eco-champion", "Eco Champion", "Save 50kg of CO2", fixed(50), func(p Progress) float64 { return p.CO2SavedKg }},
	{"speed-demon", "Speed Demon", "Complete 100 races", fixed(100), func(p Progress) float64 { return float64(p.Laps) }},
	{"green-guru", "Green Guru", "Complete all academy quizzes", func(p Progress) float64 { return float64(p.QuizzesTotal) }, func(p Progress) float64 { return float64(p.QuizzesDone) }},
	{"social-butterfly", "Social Butterfly", "Add 10 friends", fixed(10), func(p Progress) float64 { return float64(p.Friends) }},
	{"century-club", "Century Club", "Save 100kg of CO2", fixed(100), func(p Progress) float64 { return p.CO2SavedKg }},
}

// Evaluate reports every achievement against pr. IDs in earned stay earned
// even if the counter behind them has since dropped (streaks, friends).
func Evaluate(pr Progress, earned []string) []AchievementStatus {
	out := make([]AchievementStatus, 0, len(achievements))
	for _, a := range achievements {
		goal := a.goal(pr)
		st := AchievementStatus{ID: a.id, Name: a.name, Description: a.description}
		if goal > 0 {
			st.Progress = min(a.value(pr)/goal, 1)
		}
		st.Earned = st.Progress >= 1 || slices.Contains(earned, a.id)
		if st.Earned {
			st.Progress = 1
		}
		out = append(out, st)
	}
	return out
}

// unlock appends newly earned achievement IDs to p and returns them.
func unlock(p *Profile, pr Progress) []string {
	var fresh []string
	for _, st := range Evaluate(pr, p.Achievements) {
		if st.Earned && !slices.Contains(p.Achievements, st.ID) {
			p.Achievements = append(p.Achievements, st.ID)
			fresh = append(fresh, st.ID)
		}
	}
	return fresh
}

func progressOf(p Profile, quizzesTotal, friends int) Progress {
	return Progress{
		Laps:         p.Laps,
		CO2SavedKg:   p.CO2SavedKg,
		BestStreak:   p.BestStreak,
		QuizzesDone:  len(p.CompletedQuizzes),
		QuizzesTotal: quizzesTotal,
		Friends:      friends,
	}
}

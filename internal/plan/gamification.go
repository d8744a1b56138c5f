package plan

import "math"

// Badge is one achievement in the gamification panel. Locked badges carry a
// Requirement string telling the user how to unlock them.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	Requirement string `json:"requirement,omitempty"`
}

// Gamification holds the level, XP, streak, and badge state derived from the
// weekly stats.
type Gamification struct {
	Level         int     `json:"level"`
	XPCurrent     int     `json:"xpCurrent"`
	XPToNextLevel int     `json:"xpToNextLevel"`
	XPProgress    float64 `json:"xpProgress"`
	Streak        int     `json:"streak"`
	Badges        []Badge `json:"badges"`
}

const xpPerLevel = 500

// Gamify derives the gamification panel from weekly stats. The streak here
// is an activity proxy bounded by the window length; the true consecutive-day
// streak lives on daily check-ins.
func Gamify(stats *WeeklyStats) *Gamification {
	total := stats.TotalExercises

	streak := total
	if streak > 7 {
		streak = 7
	}

	level := total/5 + 1
	xpCurrent := (total%5)*100 + stats.AvgScore
	xpProgress := math.Min(float64(xpCurrent)/xpPerLevel*100, 100)

	return &Gamification{
		Level:         level,
		XPCurrent:     xpCurrent,
		XPToNextLevel: xpPerLevel,
		XPProgress:    xpProgress,
		Streak:        streak,
		Badges:        badges(total, stats.ExcellentCount, streak),
	}
}

// badges builds the badge list with at most one entry per badge id: every
// earned badge in unlock order, then locked placeholders for the next
// motivational targets.
func badges(total, excellent, streak int) []Badge {
	var out []Badge

	if total >= 1 {
		out = append(out, Badge{ID: "first_analysis", Name: "Primeiro Passo", Icon: "🎯", Unlocked: true})
	}
	if total >= 5 {
		out = append(out, Badge{ID: "dedicated", Name: "Dedicado", Icon: "💪", Unlocked: true})
	}
	if excellent >= 1 {
		out = append(out, Badge{ID: "perfectionist", Name: "Perfeccionista", Icon: "⭐", Unlocked: true})
	}
	if streak >= 3 {
		out = append(out, Badge{ID: "consistent", Name: "Consistente", Icon: "🔥", Unlocked: true})
	}
	if streak >= 7 {
		out = append(out, Badge{ID: "unstoppable", Name: "Imparável", Icon: "🚀", Unlocked: true})
	}

	if total < 5 {
		out = append(out, Badge{ID: "dedicated", Name: "Dedicado", Icon: "💪", Unlocked: false, Requirement: "Complete 5 análises"})
	}
	if excellent < 1 {
		out = append(out, Badge{ID: "perfectionist", Name: "Perfeccionista", Icon: "⭐", Unlocked: false, Requirement: "Obtenha 80%+ em uma análise"})
	}

	return out
}

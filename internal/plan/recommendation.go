package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Plan types a recommendation can carry.
const (
	PlanRecovery    = "recovery"
	PlanProgression = "progression"
	PlanMaintenance = "maintenance"
)

// Challenge is the weekly challenge inside a recommendation.
type Challenge struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Reward      string `json:"reward"`
}

// DailyTip is one per-day coaching tip.
type DailyTip struct {
	Day   string `json:"day"`
	Tip   string `json:"tip"`
	Focus string `json:"focus"`
}

// Milestone is the next long-term goal shown to the user with its progress.
type Milestone struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Progress    float64 `json:"progress"`
}

// Recommendation is the model-produced weekly plan. Payloads that fail to
// parse or validate are replaced wholesale by FallbackRecommendation; a
// partially valid object is never propagated.
type Recommendation struct {
	PlanType          string     `json:"planType"`
	Headline          string     `json:"headline"`
	Subheadline       string     `json:"subheadline"`
	WeeklyChallenge   Challenge  `json:"weeklyChallenge"`
	DailyTips         []DailyTip `json:"dailyTips"`
	MotivationalQuote string     `json:"motivationalQuote"`
	NextMilestone     Milestone  `json:"nextMilestone"`
}

// ParseRecommendation strips code-fence wrapping from the model output and
// parses it as a Recommendation, rejecting payloads with missing or invalid
// fields.
func ParseRecommendation(content string) (*Recommendation, error) {
	clean := strings.ReplaceAll(content, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var rec Recommendation
	if err := json.Unmarshal([]byte(clean), &rec); err != nil {
		return nil, fmt.Errorf("plan: parse recommendation: %w", err)
	}
	if err := rec.validate(); err != nil {
		return nil, fmt.Errorf("plan: invalid recommendation: %w", err)
	}
	return &rec, nil
}

func (r *Recommendation) validate() error {
	switch r.PlanType {
	case PlanRecovery, PlanProgression, PlanMaintenance:
	default:
		return fmt.Errorf("unknown planType %q", r.PlanType)
	}
	if r.Headline == "" || r.Subheadline == "" {
		return fmt.Errorf("missing headline")
	}
	if r.WeeklyChallenge.Title == "" || r.WeeklyChallenge.Description == "" {
		return fmt.Errorf("missing weekly challenge")
	}
	if len(r.DailyTips) != 5 {
		return fmt.Errorf("expected 5 daily tips, got %d", len(r.DailyTips))
	}
	for i, tip := range r.DailyTips {
		if tip.Day == "" || tip.Tip == "" {
			return fmt.Errorf("daily tip %d incomplete", i)
		}
	}
	if r.MotivationalQuote == "" {
		return fmt.Errorf("missing motivational quote")
	}
	if r.NextMilestone.Name == "" {
		return fmt.Errorf("missing next milestone")
	}
	if r.NextMilestone.Progress < 0 || r.NextMilestone.Progress > 100 {
		return fmt.Errorf("milestone progress %v out of range", r.NextMilestone.Progress)
	}
	return nil
}

// FallbackRecommendation builds the canned plan served when the model output
// is unusable. Its plan type follows the same recovery-first classification
// as the prompt, and the milestone progress is computed from the user's own
// stats so the default still feels personal.
func FallbackRecommendation(stats *WeeklyStats) *Recommendation {
	planType := PlanMaintenance
	headline := "Continue no Ritmo! 💪"
	subheadline := "Mantenha a consistência e evolua gradualmente"
	challengeDesc := "Aumente sua média de pontuação em 5%"

	switch {
	case stats.NeedsRecovery:
		planType = PlanRecovery
		headline = "Hora de Recarregar as Energias! 🔋"
		subheadline = "Foque em recuperação ativa e técnica perfeita"
		challengeDesc = "Complete 3 análises com foco em postura perfeita"
	case stats.IsExcelling:
		planType = PlanProgression
		headline = "Você Está em Chamas! 🔥"
		subheadline = "Hora de subir o nível e quebrar recordes"
	}

	return &Recommendation{
		PlanType:    planType,
		Headline:    headline,
		Subheadline: subheadline,
		WeeklyChallenge: Challenge{
			Title:       "Desafio da Semana",
			Description: challengeDesc,
			Reward:      "+150 XP",
		},
		DailyTips: []DailyTip{
			{Day: "Segunda", Tip: "Aquecimento completo de 10 minutos", Focus: "Mobilidade"},
			{Day: "Terça", Tip: "Foco na respiração durante os exercícios", Focus: "Técnica"},
			{Day: "Quarta", Tip: "Dia de exercícios leves ou descanso ativo", Focus: "Recuperação"},
			{Day: "Quinta", Tip: "Trabalhe os pontos fracos identificados", Focus: "Correção"},
			{Day: "Sexta", Tip: "Teste seu progresso com uma análise completa", Focus: "Avaliação"},
		},
		MotivationalQuote: "O único treino ruim é aquele que não acontece. Mas lembre-se: qualidade supera quantidade!",
		NextMilestone: Milestone{
			Name:        "Atleta Consistente",
			Description: "Complete 10 análises com pontuação acima de 70%",
			Progress:    stats.MilestoneProgress(),
		},
	}
}

package plan

import (
	"fmt"
	"strings"

	"github.com/formcoach/formcoach/internal/models"
)

// The coaching prompts are in Portuguese because the product ships to a
// Brazilian audience; the model is instructed to answer with a single JSON
// object matching the Recommendation shape.
const weeklyPlanSystemPrompt = `Você é um coach de fitness gamificado, motivacional e inspirador.
Seu tom é energético, positivo e encorajador, como um personal trainer que realmente se importa com o sucesso do aluno.
Use emojis moderadamente para dar vida às mensagens.
Seja específico e prático nas recomendações.

Você deve retornar um JSON com a seguinte estrutura:
{
  "planType": "recovery" | "progression" | "maintenance",
  "headline": "string (frase motivacional curta e impactante)",
  "subheadline": "string (resumo do plano em uma frase)",
  "weeklyChallenge": {
    "title": "string",
    "description": "string",
    "reward": "string (ex: +100 XP)"
  },
  "dailyTips": [
    { "day": "Segunda", "tip": "string", "focus": "string" },
    { "day": "Terça", "tip": "string", "focus": "string" },
    { "day": "Quarta", "tip": "string", "focus": "string" },
    { "day": "Quinta", "tip": "string", "focus": "string" },
    { "day": "Sexta", "tip": "string", "focus": "string" }
  ],
  "motivationalQuote": "string",
  "nextMilestone": {
    "name": "string",
    "description": "string",
    "progress": number (0-100)
  }
}`

// ComposePrompt builds the system and user prompts for the weekly plan
// generation call. Exactly one coaching directive is included: recovery wins
// over progression when both classifications hold.
func ComposePrompt(profile *models.Profile, stats *WeeklyStats, gam *Gamification) (systemPrompt, userPrompt string) {
	objective := profile.Objective
	if objective == "" {
		objective = "Condicionamento geral"
	}
	level := profile.ExperienceLevel
	if level == "" {
		level = "Intermediário"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `
Dados do usuário:
- Nome: %s
- Objetivo: %s
- Nível: %s
- Exercícios esta semana: %d
- Pontuação média: %d%%
- Análises excelentes (80%%+): %d
- Análises com risco alto: %d
- Streak atual: %d dias
- Level atual: %d

`, profile.DisplayName(), objective, level,
		stats.TotalExercises, stats.AvgScore, stats.ExcellentCount,
		stats.HighRiskCount, gam.Streak, gam.Level)

	switch {
	case stats.NeedsRecovery:
		b.WriteString("O usuário precisa de um PLANO DE RECUPERAÇÃO porque teve muitas análises com risco alto ou pontuação baixa. Foque em recuperação ativa, correção de postura, e redução de intensidade.")
	case stats.IsExcelling:
		b.WriteString("O usuário está EXCELENTE! Crie um PLANO DE PROGRESSÃO com desafios mais intensos e metas ambiciosas para manter a motivação alta.")
	default:
		b.WriteString("O usuário está em um nível INTERMEDIÁRIO. Crie um plano balanceado focando em melhoria gradual e consistência.")
	}

	b.WriteString("\n\nCrie um plano personalizado e motivacional para a próxima semana.")

	return weeklyPlanSystemPrompt, b.String()
}

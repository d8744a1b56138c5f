// Package analyze implements exercise video scoring: it asks the configured
// AI provider for a biomechanical assessment of a submitted exercise, parses
// the structured result, and persists it onto the analysis record. Unusable
// model output is replaced with a conservative canned assessment; provider
// transport errors propagate to the caller.
package analyze

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/formcoach/formcoach/internal/llm"
	"github.com/formcoach/formcoach/internal/models"
)

const analysisTemperature = 0.7

const analysisSystemPrompt = `Você é um especialista em análise de movimento e biomecânica para exercícios físicos.
Sua tarefa é analisar a execução de exercícios e fornecer feedback detalhado.

Você deve retornar um JSON com a seguinte estrutura:
{
  "overallScore": number (0-100),
  "status": "success" | "warning" | "error",
  "riskLevel": "low" | "medium" | "high",
  "feedback": [
    { "type": "success" | "warning" | "error", "message": "string" }
  ],
  "recommendations": ["string"],
  "jointAngles": {
    "joelho": number,
    "quadril": number,
    "tornozelo": number
  }
}

Seja específico e técnico nas suas análises. Considere:
- Alinhamento postural
- Amplitude de movimento
- Simetria bilateral
- Padrões de compensação
- Riscos de lesão`

// FeedbackItem is one line of coaching feedback with its severity.
type FeedbackItem struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Result is the structured scoring outcome for one exercise analysis.
type Result struct {
	OverallScore    int                `json:"overallScore"`
	Status          string             `json:"status"`
	RiskLevel       string             `json:"riskLevel"`
	Feedback        []FeedbackItem     `json:"feedback"`
	Recommendations []string           `json:"recommendations"`
	JointAngles     map[string]float64 `json:"jointAngles"`
}

// Run scores a pending analysis: it calls the provider with the biomechanics
// prompt, normalizes the response, and writes the result onto the record.
func Run(ctx context.Context, db *sql.DB, provider llm.Provider, analysis *models.ExerciseAnalysis) (*Result, error) {
	userPrompt := composeUserPrompt(analysis.ExerciseType)

	resp, err := provider.Generate(ctx, analysisSystemPrompt, userPrompt, llm.Options{
		Temperature: analysisTemperature,
	})
	if err != nil {
		return nil, err
	}

	result, err := parseResult(resp.Content)
	if err != nil {
		log.Printf("analyze: falling back to canned result for analysis %s: %v", analysis.ID, err)
		result = fallbackResult()
	}

	if err := persist(db, analysis.ID, result, resp.Content); err != nil {
		return nil, err
	}
	return result, nil
}

func composeUserPrompt(exerciseType string) string {
	return fmt.Sprintf(`Analise o exercício "%s" com base nas seguintes informações:

O usuário enviou um vídeo de treino realizando %s.

Gere uma análise realista e personalizada considerando erros comuns neste exercício:

Para %s, considere pontos como:
- Posição inicial e final do movimento
- Alinhamento de joelhos, quadris e coluna
- Profundidade adequada do movimento
- Velocidade e controle da execução
- Padrões de respiração

Retorne APENAS o JSON, sem markdown ou explicações adicionais.`,
		exerciseType, exerciseType, exerciseType)
}

func parseResult(content string) (*Result, error) {
	clean := strings.ReplaceAll(content, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	clean = strings.TrimSpace(clean)

	var r Result
	if err := json.Unmarshal([]byte(clean), &r); err != nil {
		return nil, fmt.Errorf("analyze: parse result: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("analyze: invalid result: %w", err)
	}
	return &r, nil
}

func (r *Result) validate() error {
	if r.OverallScore < 0 || r.OverallScore > 100 {
		return fmt.Errorf("overallScore %d out of range", r.OverallScore)
	}
	switch r.Status {
	case "success", "warning", "error":
	default:
		return fmt.Errorf("unknown status %q", r.Status)
	}
	switch r.RiskLevel {
	case models.RiskLow, models.RiskMedium, models.RiskHigh:
	default:
		return fmt.Errorf("unknown riskLevel %q", r.RiskLevel)
	}
	if len(r.Feedback) == 0 {
		return fmt.Errorf("missing feedback")
	}
	for i, f := range r.Feedback {
		if f.Message == "" {
			return fmt.Errorf("feedback %d missing message", i)
		}
	}
	return nil
}

func fallbackResult() *Result {
	return &Result{
		OverallScore: 75,
		Status:       "warning",
		RiskLevel:    models.RiskMedium,
		Feedback: []FeedbackItem{
			{Type: "success", Message: "Vídeo processado com sucesso"},
			{Type: "warning", Message: "Análise automática com dados limitados"},
		},
		Recommendations: []string{
			"Continue praticando com atenção à postura",
			"Considere gravar em melhor iluminação para análises mais precisas",
		},
		JointAngles: map[string]float64{"joelho": 90, "quadril": 85, "tornozelo": 70},
	}
}

func persist(db *sql.DB, id string, r *Result, raw string) error {
	feedback, err := json.Marshal(r.Feedback)
	if err != nil {
		return fmt.Errorf("analyze: marshal feedback: %w", err)
	}
	recommendations, err := json.Marshal(r.Recommendations)
	if err != nil {
		return fmt.Errorf("analyze: marshal recommendations: %w", err)
	}
	jointAngles, err := json.Marshal(r.JointAngles)
	if err != nil {
		return fmt.Errorf("analyze: marshal joint angles: %w", err)
	}

	return models.CompleteAnalysis(db, id, r.OverallScore, r.RiskLevel,
		string(feedback), string(recommendations), string(jointAngles), raw)
}

// Package symptom returns a fixed symptom assessment. No model is consulted.
package symptom

import (
	"context"
	"strings"
)

type Condition struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Description string  `json:"description"`
}

type Analysis struct {
	Symptoms           []string    `json:"symptoms"`
	PossibleConditions []Condition `json:"possibleConditions"`
	Recommendations    []string    `json:"recommendations"`
	Severity           string      `json:"severity"`
	SeeDoctor          bool        `json:"seeDoctor"`
	Disclaimer         string      `json:"disclaimer"`
}

type AnalyzeRequest struct {
	Symptoms []string `json:"symptoms" binding:"required,min=1,dive,min=1,max=200"`
	Age      *int     `json:"age" binding:"omitempty,gte=0,lte=130"`
	Gender   string   `json:"gender" binding:"omitempty,max=20"`
}

type Analyzer interface {
	Analyze(ctx context.Context, req *AnalyzeRequest) (*Analysis, error)
}

type cannedAnalyzer struct{}

func NewCannedAnalyzer() Analyzer {
	return cannedAnalyzer{}
}

func (cannedAnalyzer) Analyze(_ context.Context, req *AnalyzeRequest) (*Analysis, error) {
	symptoms := make([]string, 0, len(req.Symptoms))
	for _, s := range req.Symptoms {
		if s = strings.TrimSpace(s); s != "" {
			symptoms = append(symptoms, s)
		}
	}

	return &Analysis{
		Symptoms: symptoms,
		PossibleConditions: []Condition{
			{Name: "Common Cold or Flu", Probability: 0.6, Description: "A viral infection of the nose and throat."},
			{Name: "General Fatigue", Probability: 0.3, Description: "Tiredness often linked to rest, diet or stress."},
		},
		Recommendations: []string{
			"Get plenty of rest and stay hydrated",
			"Monitor your temperature regularly",
			"Consult a doctor if symptoms persist beyond 3 days",
		},
		Severity:   "mild",
		SeeDoctor:  len(symptoms) >= 3,
		Disclaimer: "This is not a medical diagnosis. Please consult a qualified doctor.",
	}, nil
}

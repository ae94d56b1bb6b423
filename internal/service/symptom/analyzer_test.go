package symptom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCannedAnalysis(t *testing.T) {
	a, err := NewCannedAnalyzer().Analyze(context.Background(), &AnalyzeRequest{Symptoms: []string{" fever ", "", "cough"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"fever", "cough"}, a.Symptoms)
	require.Len(t, a.PossibleConditions, 2)
	assert.Equal(t, "Common Cold or Flu", a.PossibleConditions[0].Name)
	assert.Contains(t, a.Recommendations, "Get plenty of rest and stay hydrated")
	assert.False(t, a.SeeDoctor)
}

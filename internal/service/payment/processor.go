package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Processor charges patients for consultations.
type Processor interface {
	// Charge returns a provider reference for the payment.
	Charge(ctx context.Context, payerID uuid.UUID, amount float64) (string, error)
	Refund(ctx context.Context, reference string) error
}

// MockProcessor accepts every charge.
type MockProcessor struct{}

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{}
}

func (p *MockProcessor) Charge(_ context.Context, payerID uuid.UUID, amount float64) (string, error) {
	if amount < 0 {
		return "", fmt.Errorf("invalid amount %.2f", amount)
	}
	ref := "mock_" + uuid.NewString()
	log.Debug().Str("payer_id", payerID.String()).Float64("amount", amount).Str("ref", ref).Msg("mock charge")
	return ref, nil
}

func (p *MockProcessor) Refund(_ context.Context, reference string) error {
	log.Debug().Str("ref", reference).Msg("mock refund")
	return nil
}

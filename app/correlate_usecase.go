package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wardenlabs/warden/domain"
)

// CorrelateUseCase links an operational alert to previously stored findings
type CorrelateUseCase struct {
	service domain.CorrelationService
}

// NewCorrelateUseCase creates a new correlate use case
func NewCorrelateUseCase(service domain.CorrelationService) *CorrelateUseCase {
	return &CorrelateUseCase{service: service}
}

// Execute validates the alert, runs correlation, and writes the record as
// JSON when a writer is supplied
func (uc *CorrelateUseCase) Execute(ctx context.Context, alert domain.Alert, writer io.Writer) (*domain.CorrelationRecord, error) {
	if err := uc.validateAlert(&alert); err != nil {
		return nil, err
	}

	record := uc.service.Correlate(ctx, alert)

	if writer != nil {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(record); err != nil {
			return nil, fmt.Errorf("failed to write correlation record: %w", err)
		}
	}
	return record, nil
}

func (uc *CorrelateUseCase) validateAlert(alert *domain.Alert) error {
	if alert.Message == "" && alert.FilePath == "" {
		return fmt.Errorf("alert has neither a message nor a file path")
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}
	return nil
}

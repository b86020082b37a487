package services

import (
	"encoding/json"
	"fmt"

	"github.com/ntdung97/spacebook/internal/core/domain"
)

func unmarshalJob(job domain.Job, into any) error {
	if err := json.Unmarshal(job.Payload, into); err != nil {
		return fmt.Errorf("decode %s job %s: %w", job.Kind, job.ID, err)
	}
	return nil
}

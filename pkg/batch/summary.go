package batch

import (
	"fmt"
	"time"

	"github.com/agentstation/curator/pkg/errors"
	"github.com/agentstation/curator/pkg/reconciler"
)

// Status is the outcome of one batch item.
type Status string

const (
	// StatusWritten means the payload was written.
	StatusWritten Status = "written"
	// StatusValidated means the payload passed a validate-only write.
	StatusValidated Status = "validated"
	// StatusUnchanged means the resource already reflects the proposal.
	StatusUnchanged Status = "unchanged"
	// StatusSkipped means there was no proposal or no generative template.
	StatusSkipped Status = "skipped"
	// StatusFailed means the item errored.
	StatusFailed Status = "failed"
)

// ItemResult is the outcome of one resource.
type ItemResult struct {
	ResourceID  int64            `json:"resource_id" yaml:"resource_id"`
	Status      Status           `json:"status" yaml:"status"`
	Stats       reconciler.Stats `json:"stats" yaml:"stats"`
	Fingerprint string           `json:"fingerprint,omitempty" yaml:"fingerprint,omitempty"`
	Reason      string           `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Summary is the outcome of a batch run.
type Summary struct {
	Processed int           `json:"processed" yaml:"processed"`
	Written   int           `json:"written" yaml:"written"`
	Skipped   int           `json:"skipped" yaml:"skipped"`
	Failed    int           `json:"failed" yaml:"failed"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Items     []ItemResult  `json:"items" yaml:"items"`

	// Errors holds per-resource errors keyed by resource id.
	Errors *errors.Collector `json:"-" yaml:"-"`

	start time.Time
}

func newSummary(n int) *Summary {
	return &Summary{
		Items:  make([]ItemResult, n),
		Errors: errors.NewCollector(),
		start:  time.Now(),
	}
}

// finalize counts the item results and sets the duration.
func (s *Summary) finalize() {
	s.Processed = len(s.Items)
	for _, item := range s.Items {
		switch item.Status {
		case StatusWritten, StatusValidated:
			s.Written++
		case StatusFailed:
			s.Failed++
		default:
			s.Skipped++
		}
	}
	s.Duration = time.Since(s.start)
}

// HasFailures reports whether any item failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

// String returns a human-readable summary.
func (s *Summary) String() string {
	return fmt.Sprintf("%d processed: %d written, %d skipped, %d failed in %s",
		s.Processed, s.Written, s.Skipped, s.Failed, s.Duration.Round(time.Millisecond))
}

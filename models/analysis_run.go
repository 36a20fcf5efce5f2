package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisRunStatus represents the status of a submission
type AnalysisRunStatus string

const (
	RunStatusPending    AnalysisRunStatus = "pending"
	RunStatusInProgress AnalysisRunStatus = "in_progress"
	RunStatusCompleted  AnalysisRunStatus = "completed"
	RunStatusFailed     AnalysisRunStatus = "failed"
)

// AnalysisRun is the audit record of one submission.
// It holds counts and outcome only, never document contents.
type AnalysisRun struct {
	ID                 uuid.UUID         `json:"id"`
	Topic              string            `json:"topic"`
	Model              string            `json:"model"`
	LawCount           int               `json:"law_count"`
	DoctrineCount      int               `json:"doctrine_count"`
	JurisprudenceCount int               `json:"jurisprudence_count"`
	Status             AnalysisRunStatus `json:"status"`
	ErrorKind          *string           `json:"error_kind,omitempty"`
	ErrorMessage       *string           `json:"error_message,omitempty"`
	ArticleCount       int               `json:"article_count"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
}

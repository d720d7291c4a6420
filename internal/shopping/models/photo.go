package models

import (
	"strings"
	"time"

	id "listsnap/pkg/domain"
	dErrors "listsnap/pkg/domain-errors"
)

// Photo is a captured list image. Lists keep a nullable reference to it.
type Photo struct {
	ID        id.PhotoID `json:"id"`
	FilePath  string     `json:"file_path"`
	Timestamp time.Time  `json:"timestamp"`
	OCRStatus OCRStatus  `json:"ocr_status"`
}

// NewPhoto creates a pending photo captured at now.
func NewPhoto(filePath string, now time.Time) (*Photo, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "photo file path is required")
	}
	return &Photo{
		FilePath:  filePath,
		Timestamp: now,
		OCRStatus: OCRPending,
	}, nil
}

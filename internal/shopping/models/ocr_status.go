package models

import (
	dErrors "listsnap/pkg/domain-errors"
)

// OCRStatus tracks recognition progress for a photo.
type OCRStatus int

const (
	OCRPending OCRStatus = iota
	OCRProcessing
	OCRCompleted
	OCRFailed
)

// ocrStatusNames is the persisted form of each status.
var ocrStatusNames = map[OCRStatus]string{
	OCRPending:    "PENDING",
	OCRProcessing: "PROCESSING",
	OCRCompleted:  "COMPLETED",
	OCRFailed:     "FAILED",
}

var ocrStatusByName = func() map[string]OCRStatus {
	m := make(map[string]OCRStatus, len(ocrStatusNames))
	for s, name := range ocrStatusNames {
		m[name] = s
	}
	return m
}()

// ocrTransitions lists the statuses reachable from each status. FAILED may go
// back to PROCESSING when the user retries recognition.
var ocrTransitions = map[OCRStatus][]OCRStatus{
	OCRPending:    {OCRProcessing},
	OCRProcessing: {OCRCompleted, OCRFailed},
	OCRFailed:     {OCRProcessing},
}

func (s OCRStatus) String() string {
	if name, ok := ocrStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseOCRStatus maps a persisted name back to its status.
func ParseOCRStatus(name string) (OCRStatus, error) {
	if s, ok := ocrStatusByName[name]; ok {
		return s, nil
	}
	return 0, dErrors.New(dErrors.CodeInvalidInput, "unknown ocr status: "+name)
}

// CanTransitionTo reports whether a photo in status s may move to next.
// Re-applying the current status is always allowed.
func (s OCRStatus) CanTransitionTo(next OCRStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range ocrTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether recognition has finished.
func (s OCRStatus) Terminal() bool {
	return s == OCRCompleted || s == OCRFailed
}

func (s OCRStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *OCRStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseOCRStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

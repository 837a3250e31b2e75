package plate

import (
	"time"
)

// UnknownCity is stored when neither the recognized text nor the caller
// supplied a city.
const UnknownCity = "Unknown"

type Outcome string

const (
	OutcomeRegistered         Outcome = "REGISTERED"
	OutcomeRecognitionFailed  Outcome = "RECOGNITION_FAILED"
	OutcomeUnrecognizedFormat Outcome = "UNRECOGNIZED_FORMAT"
	OutcomeStorageFailed      Outcome = "STORAGE_FAILED"
	OutcomeNotFound           Outcome = "NOT_FOUND"
	OutcomeFound              Outcome = "FOUND"
)

type ParsedPlate struct {
	State       string `json:"state"`
	City        string `json:"city"`
	PlateNumber string `json:"plate_number"`
}

type UploadInfo struct {
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
	UploadedBy  string `json:"uploaded_by,omitempty"`
}

type Record struct {
	ID         int64       `json:"id"`
	Number     string      `json:"numero"`
	State      string      `json:"estado,omitempty"`
	City       string      `json:"cidade"`
	RecordedAt time.Time   `json:"data_hora"`
	Source     *UploadInfo `json:"source,omitempty"`
}

type RegistrationResult struct {
	Outcome Outcome `json:"outcome"`
	Record  *Record `json:"record,omitempty"`
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterUserPayload struct {
	Name     string `json:"nome"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required,min=6,max=72"`
}

type LoginPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
}

type Report struct {
	FileName    string
	ContentType string
	Content     []byte
	Records     int
}

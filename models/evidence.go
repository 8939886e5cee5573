package models

import (
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Evidence is a file attached to a response in support of its outcome.
type Evidence struct {
	ID              int            `gorm:"primary_key" json:"id"`
	AuditResponseId int            `gorm:"not null;index" json:"audit_response_id"`
	AuditResponse   *AuditResponse `gorm:"foreignKey:AuditResponseId;constraint:OnDelete:CASCADE" json:"-"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	EvidenceType    EvidenceType   `gorm:"size:20;not null;default:document" json:"evidence_type"`
	Description     string         `gorm:"type:text" json:"description"`
	ObjectKey       string         `gorm:"size:255;not null" json:"object_key"`
	FileUrl         string         `gorm:"size:500" json:"file_url"`
	ThumbnailKey    string         `gorm:"size:255" json:"-"`
	ThumbnailUrl    string         `gorm:"size:500" json:"thumbnail_url,omitempty"`
	MimeType        string         `gorm:"size:100" json:"mime_type"`
	Size            int64          `json:"size"`
	UploadedById    *int           `gorm:"index" json:"uploaded_by_id"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Evidence) TableName() string {
	return "evidence"
}

type NewEvidence struct {
	Title        string       `form:"title" binding:"required,max=255"`
	EvidenceType EvidenceType `form:"evidence_type"`
	Description  string       `form:"description"`
}

// EvidenceFile is the uploaded content.
type EvidenceFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

var evidenceMimeTypes = map[string]bool{
	"application/pdf":          true,
	"application/msword":       true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"image/jpeg": true,
	"image/png":  true,
	"text/plain": true,
	"text/csv":   true,
}

func isImage(mimeType string) bool {
	return mimeType == "image/jpeg" || mimeType == "image/png"
}

func (input *NewEvidence) validate(file *EvidenceFile) error {
	if input.EvidenceType == "" {
		input.EvidenceType = EvidenceTypeDocument
	}
	if !input.EvidenceType.IsValid() {
		return newValidationError("evidence_type", "invalid evidence type")
	}
	if file == nil || len(file.Data) == 0 {
		return newValidationError("file", "file is required")
	}
	if int64(len(file.Data)) > config.GetSettings().MaxUploadBytes {
		return newValidationError("file", "file is too large")
	}
	file.ContentType = strings.TrimSpace(strings.Split(file.ContentType, ";")[0])
	if !evidenceMimeTypes[file.ContentType] {
		return newValidationError("file", "unsupported file type")
	}
	return nil
}

func evidenceObjectKey(fileName string, mimeType string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = utils.ExtensionFromMimeType(mimeType)
	}
	return path.Join("evidence", now.Format("2006"), now.Format("01"), uuid.New().String()+ext)
}

// UploadEvidence stores the file and records it against the response. Images also get a thumbnail.
// Stored objects are removed again when the row cannot be written.
func UploadEvidence(ctx context.Context, user *User, responseId int, input *NewEvidence, file *EvidenceFile) (*Evidence, error) {
	response, _, err := getResponseInAudit(ctx, user, responseId, EntityEvidence, ActionCreate)
	if err != nil {
		return nil, err
	}
	if err := input.validate(file); err != nil {
		return nil, err
	}

	objectKey := evidenceObjectKey(file.FileName, file.ContentType, time.Now())
	fileUrl, err := utils.StoreObject(ctx, objectKey, file.Data, file.ContentType)
	if err != nil {
		return nil, err
	}

	evidence := Evidence{
		AuditResponseId: response.ID,
		Title:           input.Title,
		EvidenceType:    input.EvidenceType,
		Description:     input.Description,
		ObjectKey:       objectKey,
		FileUrl:         fileUrl,
		MimeType:        file.ContentType,
		Size:            int64(len(file.Data)),
		UploadedById:    &user.ID,
	}

	logger := config.GetLogger()
	if isImage(file.ContentType) {
		thumbnail, err := utils.MakeThumbnail(file.Data)
		if err != nil {
			// keep the evidence, a thumbnail is cosmetic
			config.LogError(logger, "evidence.go", "UploadEvidence", "MakeThumbnail", objectKey, err)
		} else {
			thumbnailKey := utils.ThumbnailObjectKey(objectKey)
			thumbnailUrl, err := utils.StoreObject(ctx, thumbnailKey, thumbnail, "image/jpeg")
			if err != nil {
				config.LogError(logger, "evidence.go", "UploadEvidence", "StoreObject thumbnail", thumbnailKey, err)
			} else {
				evidence.ThumbnailKey = thumbnailKey
				evidence.ThumbnailUrl = thumbnailUrl
			}
		}
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&evidence).Error; err != nil {
		for _, key := range []string{evidence.ObjectKey, evidence.ThumbnailKey} {
			if key == "" {
				continue
			}
			if delErr := utils.DeleteObject(ctx, key); delErr != nil {
				config.LogError(logger, "evidence.go", "UploadEvidence", "DeleteObject", key, delErr)
			}
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"object_key":  objectKey,
		"mime_type":   file.ContentType,
		"size":        evidence.Size,
		"response_id": response.ID,
	}).Info("[evidence.upload]")
	return &evidence, nil
}

func ListEvidence(ctx context.Context, user *User, responseId int) ([]*Evidence, error) {
	if _, _, err := getResponseInAudit(ctx, user, responseId, EntityEvidence, ActionView); err != nil {
		return nil, err
	}
	db := config.GetDB()
	var results []*Evidence
	err := db.WithContext(ctx).
		Where("audit_response_id = ?", responseId).
		Order("created_at DESC, id DESC").
		Find(&results).Error
	return results, err
}

// GetEvidence loads one evidence record if its audit is visible to user.
func GetEvidence(ctx context.Context, user *User, id int) (*Evidence, error) {
	evidence, err := utils.FetchModel[Evidence](ctx, id)
	if err != nil {
		return nil, err
	}
	if _, _, err := getResponseInAudit(ctx, user, evidence.AuditResponseId, EntityEvidence, ActionView); err != nil {
		return nil, err
	}
	return evidence, nil
}

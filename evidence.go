package main

import (
	"io"
	"net/http"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/models"
	"github.com/dpcompass/compass_backend/utils"
	"github.com/gin-gonic/gin"
)

const signedDownloadTTL = 15 * time.Minute

func listEvidenceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		responseId, ok := pathId(c, "id")
		if !ok {
			return
		}
		evidence, err := models.ListEvidence(c.Request.Context(), currentUser(c), responseId)
		if err != nil {
			respondError(c, "listEvidenceHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"evidence": evidence, "evidence_types": models.EvidenceTypes})
	}
}

func uploadEvidenceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		responseId, ok := pathId(c, "id")
		if !ok {
			return
		}
		var input models.NewEvidence
		if err := c.ShouldBind(&input); err != nil {
			bindError(c, err)
			return
		}

		maxBytes := config.GetSettings().MaxUploadBytes
		header, err := c.FormFile("file")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "file is required", "fields": map[string]string{"file": "required"}})
			return
		}
		if header.Size > maxBytes {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "file is too large", "fields": map[string]string{"file": "max"}})
			return
		}
		f, err := header.Open()
		if err != nil {
			respondError(c, "uploadEvidenceHandler", err)
			return
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
		if err != nil {
			respondError(c, "uploadEvidenceHandler", err)
			return
		}

		file := models.EvidenceFile{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}
		if file.ContentType == "" || file.ContentType == "application/octet-stream" {
			file.ContentType = http.DetectContentType(data)
		}
		evidence, err := models.UploadEvidence(c.Request.Context(), currentUser(c), responseId, &input, &file)
		if err != nil {
			respondError(c, "uploadEvidenceHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"evidence": evidence, "message": "Evidence uploaded successfully."})
	}
}

// downloadEvidenceHandler redirects to a signed URL on GCS and serves the file from disk otherwise.
func downloadEvidenceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathId(c, "id")
		if !ok {
			return
		}
		evidence, err := models.GetEvidence(c.Request.Context(), currentUser(c), id)
		if err != nil {
			respondError(c, "downloadEvidenceHandler", err)
			return
		}

		if utils.GetStorageProvider() == config.StorageProviderGCS {
			url, err := utils.SignDownload(c.Request.Context(), evidence.ObjectKey, signedDownloadTTL)
			if err != nil {
				respondError(c, "downloadEvidenceHandler", err)
				return
			}
			c.Redirect(http.StatusFound, url)
			return
		}

		filePath, err := utils.LocalObjectPath(evidence.ObjectKey)
		if err != nil {
			respondError(c, "downloadEvidenceHandler", err)
			return
		}
		c.Header("Content-Type", evidence.MimeType)
		c.FileAttachment(filePath, evidence.Title+utils.ExtensionFromMimeType(evidence.MimeType))
	}
}

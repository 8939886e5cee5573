package utils

import (
	"net/url"
	"os"
	"strings"
)

func BuildObjectAccessURL(objectKey string) string {
	base := strings.TrimSpace(os.Getenv("STORAGE_ACCESS_BASE_URL"))
	if base != "" {
		if strings.Contains(base, "{objectKey}") {
			escaped := objectKey
			if strings.Contains(base, "?") {
				escaped = url.QueryEscape(objectKey)
			}
			return strings.ReplaceAll(base, "{objectKey}", escaped)
		}
		return strings.TrimRight(base, "/") + "/" + objectKey
	}

	gcsBucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if gcsBucket != "" {
		return "https://storage.googleapis.com/" + gcsBucket + "/" + objectKey
	}

	return objectKey
}

package utils

import (
	"bytes"
	"path"

	"github.com/disintegration/imaging"
)

const thumbnailWidth = 200

// MakeThumbnail decodes an image and returns a 200px wide JPEG rendition.
func MakeThumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	thumbnail := imaging.Resize(img, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ThumbnailObjectKey(objectKey string) string {
	dir := path.Dir(objectKey)
	filename := path.Base(objectKey)
	return path.Join(dir, "thumbnails", filename)
}

func ExtensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	case "application/msword":
		return ".doc"
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return ".docx"
	case "application/vnd.ms-excel":
		return ".xls"
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return ".xlsx"
	case "text/plain":
		return ".txt"
	case "text/csv":
		return ".csv"
	default:
		return ""
	}
}

package utils

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dpcompass/compass_backend/config"
)

func GetStorageProvider() string {
	return config.GetSettings().StorageProvider
}

// StoreObject writes data under objectKey with the configured provider and returns its access URL.
func StoreObject(ctx context.Context, objectKey string, data []byte, contentType string) (string, error) {
	switch GetStorageProvider() {
	case config.StorageProviderGCS:
		if err := UploadBytesToGCS(ctx, objectKey, data, contentType); err != nil {
			return "", err
		}
		return BuildObjectAccessURL(objectKey), nil
	case config.StorageProviderLocal:
		if err := saveLocalObject(objectKey, data); err != nil {
			return "", err
		}
		return "/media/" + objectKey, nil
	default:
		return "", fmt.Errorf("storage provider %q is not supported", GetStorageProvider())
	}
}

// DeleteObject removes objectKey from the configured provider. Missing objects are ignored.
func DeleteObject(ctx context.Context, objectKey string) error {
	switch GetStorageProvider() {
	case config.StorageProviderGCS:
		return DeleteObjectFromGCS(ctx, objectKey)
	default:
		path, err := LocalObjectPath(objectKey)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
}

// LocalObjectPath resolves objectKey inside MEDIA_ROOT, rejecting traversal.
func LocalObjectPath(objectKey string) (string, error) {
	if objectKey == "" || strings.Contains(objectKey, "..") || strings.HasPrefix(objectKey, "/") {
		return "", errors.New("invalid object key")
	}
	return filepath.Join(config.GetSettings().MediaRoot, filepath.FromSlash(objectKey)), nil
}

func saveLocalObject(objectKey string, data []byte) error {
	path, err := LocalObjectPath(objectKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

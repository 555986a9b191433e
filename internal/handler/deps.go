package handler

import (
	"errors"
	"strings"

	"duochat/internal/app/chat"
	"duochat/internal/app/message"
	"duochat/internal/app/storage"
	"duochat/internal/app/user"
	"duochat/internal/configs"
)

// AppDeps bundles the wired application services the handlers depend on.
// StorageService is nil when avatar storage is not configured.
type AppDeps struct {
	Hub            *chat.Hub
	Relay          *chat.Relay
	Config         *configs.AppConfig
	Users          *user.Store
	Messages       message.Store
	StorageService storage.StorageService
}

// FullAssetURL expands a stored avatar key to its public address. Keys that
// are already absolute URLs pass through unchanged.
func (d *AppDeps) FullAssetURL(key string) string {
	if key == "" {
		return ""
	}
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	if d.StorageService == nil {
		return key
	}
	return d.StorageService.PublicURL(key)
}

// NormalizeAssetKey reduces a client-submitted avatar URL back to the stored
// object key, rejecting addresses outside the configured public base.
func (d *AppDeps) NormalizeAssetKey(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	base := strings.TrimSuffix(d.Config.S3PublicBaseURL, "/") + "/"
	if strings.HasPrefix(raw, base) {
		return strings.TrimPrefix(raw, base), nil
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return "", errors.New("avatar URL outside the configured storage base")
	}

	// Already a bare key.
	return strings.TrimPrefix(raw, "/"), nil
}

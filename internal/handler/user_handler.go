/*
Package handler provides HTTP handler functions for user profile management.
*/
package handler

import (
	"context"
	"net/http"
	"time"

	"duochat/internal/app/db"
	"duochat/internal/app/storage"
	"duochat/internal/pkg/auth/jwt"
	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/logx"
	"duochat/internal/pkg/req"
	"duochat/internal/pkg/resp"
)

const (
	// maxAvatarBytes caps avatar uploads at 2 MiB.
	maxAvatarBytes = 2 << 20

	// presignedURLDuration is the lifetime of an avatar upload URL.
	presignedURLDuration = 15 * time.Minute
)

// PresignAvatarInput defines the JSON input structure for generating an
// avatar upload URL.
type PresignAvatarInput struct {
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// HandlePresignAvatarURL generates a time-limited, pre-signed URL for
// uploading an avatar image to object storage.
func HandlePresignAvatarURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := requireIdentity(w, r)
		if identity == nil {
			return
		}

		if deps.StorageService == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageDisabled))
			return
		}

		var input PresignAvatarInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !storage.IsAllowedAvatarType(input.MimeType) {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileTypeInvalid))
			return
		}

		if input.FileSize <= 0 || input.FileSize > maxAvatarBytes {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileSizeTooLarge))
			return
		}

		fileKey := storage.AvatarKey(identity.ID, input.MimeType)

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			fileKey,
			input.MimeType,
			input.FileSize,
			presignedURLDuration,
		)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		data := map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"publicUrl":    deps.StorageService.PublicURL(fileKey),
		}
		resp.RespondSuccess(w, r, data)
	}
}

type UpdateProfileInput struct {
	Name      string `json:"name"`
	AvatarUrl string `json:"avatarUrl"`
}

// HandleUpdateUserProfile updates the caller's display name and avatar,
// returning the refreshed record and a re-issued token.
func HandleUpdateUserProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := requireIdentity(w, r)
		if identity == nil {
			return
		}

		var input UpdateProfileInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Name == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		avatarKey, err := deps.NormalizeAssetKey(input.AvatarUrl)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		oldUser, err := deps.Users.GetByID(r.Context(), identity.ID)
		if err != nil {
			if db.IsNotFound(err) {
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		updatedUser, err := deps.Users.UpdateProfile(r.Context(), identity.ID, input.Name, avatarKey)
		if err != nil {
			logx.Error(err, "update_profile: database update failed", "user_id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		// The replaced avatar object is garbage once the record points away
		// from it.
		oldKey := oldUser.Avatar
		if deps.StorageService != nil && avatarKey != "" && oldKey != "" && oldKey != avatarKey {
			go func(k string) {
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = deps.StorageService.Delete(ctx, k)
			}(oldKey)
		}

		avatarURL := deps.FullAssetURL(updatedUser.Avatar)

		finalResponse := map[string]any{
			"user": userView(deps, updatedUser),
		}

		newPayload := &jwt.Payload{
			ID:     identity.ID,
			Name:   updatedUser.Name,
			Avatar: avatarURL,
		}

		newToken, err := jwt.GenerateToken(newPayload, deps.Config.JWTSecret, jwt.UserIdentityExpiration)
		if err != nil {
			logx.Error(err, "update_profile: token generation failed, fallback to old token")
		} else {
			finalResponse["token"] = newToken
		}

		resp.RespondSuccess(w, r, finalResponse)
	}
}

package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/mxbot/MXBot_Go/internal/domain"
	"github.com/mxbot/MXBot_Go/internal/logger"
	"github.com/mxbot/MXBot_Go/internal/repository"
	"github.com/mxbot/MXBot_Go/internal/session"
)

// SessionAdmin is the slice of the session manager the ops surface drives.
type SessionAdmin interface {
	Status() session.Status
	Revalidate(ctx context.Context) error
	DeleteSession(ctx context.Context) error
	UploadBlob(ctx context.Context, blob []byte) (string, error)
}

// StatsResponse is the admin stats payload.
type StatsResponse struct {
	Users           int64                      `json:"users"`
	Downloads       int64                      `json:"downloads"`
	DownloadsByKind map[domain.MediaKind]int64 `json:"downloads_by_kind"`
}

// HandleGetStats reports usage totals
// @Summary Usage statistics
// @Tags admin
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /api/v1/admin/stats [get]
func HandleGetStats(users repository.User, downloads repository.Download) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		totalUsers, err := users.TotalUsers(ctx)
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		totalDownloads, err := downloads.TotalDownloads(ctx)
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		byKind, err := downloads.DownloadsByKind(ctx)
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		respondJSON(w, http.StatusOK, StatsResponse{
			Users:           totalUsers,
			Downloads:       totalDownloads,
			DownloadsByKind: byKind,
		})
	}
}

// HandleGetSessionStatus reports the provider session state
// @Summary Provider session status
// @Tags admin
// @Produce json
// @Success 200 {object} session.Status
// @Router /api/v1/admin/session [get]
func HandleGetSessionStatus(sessions SessionAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, sessions.Status())
	}
}

// HandleRevalidateSession re-runs load-and-validate for the active username
// @Summary Revalidate provider session
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/session/revalidate [post]
func HandleRevalidateSession(sessions SessionAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.Revalidate(r.Context()); err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "session revalidated"})
	}
}

// HandleDeleteSession drops the persisted credential blob
// @Summary Delete provider session
// @Tags admin
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /api/v1/admin/session [delete]
func HandleDeleteSession(sessions SessionAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions.DeleteSession(r.Context()); err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "session deleted"})
	}
}

// HandleUploadSessionBlob accepts a credential blob as the request body
// @Summary Upload provider credential blob
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/admin/session/blob [post]
func HandleUploadSessionBlob(sessions SessionAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blob, err := io.ReadAll(r.Body)
		if err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}

		username, err := sessions.UploadBlob(r.Context(), blob)
		if err != nil {
			logger.FromContext(r.Context()).Warn("Session blob upload rejected", "error", err)
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: "session uploaded for " + username})
	}
}

// BanRequest selects the identity to ban or unban.
type BanRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
}

// HandleBanUser adds an identity to the ban list
// @Summary Ban an identity
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/admin/ban [post]
func HandleBanUser(users repository.User) http.HandlerFunc {
	return banHandler(users, true)
}

// HandleUnbanUser removes an identity from the ban list
// @Summary Unban an identity
// @Tags admin
// @Accept json
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/admin/unban [post]
func HandleUnbanUser(users repository.User) http.HandlerFunc {
	return banHandler(users, false)
}

func banHandler(users repository.User, ban bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestError)
			return
		}
		if err := GetValidator().ValidateStruct(req); err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error":  ErrMsgInvalidRequestError,
				"fields": FormatValidationError(err),
			})
			return
		}

		var err error
		if ban {
			err = users.BanUser(r.Context(), req.UserID)
		} else {
			err = users.UnbanUser(r.Context(), req.UserID)
		}
		if err != nil {
			status, msg := mapServiceErrorToUserMessage(err)
			respondError(w, status, msg)
			return
		}

		msg := "user unbanned"
		if ban {
			msg = "user banned"
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: msg})
	}
}

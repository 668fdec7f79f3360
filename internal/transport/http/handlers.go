package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"mafia/internal/app"
	"mafia/internal/domain"
)

const qrSize = 256

// Response is a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CreateRoomResponse is the response for room creation
type CreateRoomResponse struct {
	RoomID     string `json:"roomId"`
	InviteLink string `json:"inviteLink"`
	QRCodeURL  string `json:"qrCodeUrl"`
}

// HealthResponse is the response for health check
type HealthResponse struct {
	Status string `json:"status"`
}

// handleCreateRoom handles POST /api/rooms. The room itself comes into
// existence when the first player joins with the returned code.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	code, err := s.rooms.NewRoomCode(ctx)
	if err != nil {
		s.logger.Error("failed to generate room code", "error", err)
		s.sendError(w, http.StatusInternalServerError, "CREATION_FAILED", "Failed to create room")
		return
	}

	s.sendSuccess(w, &CreateRoomResponse{
		RoomID:     code,
		InviteLink: s.inviteLink(r, code),
		QRCodeURL:  "/api/rooms/" + code + "/qr",
	})
}

// handleGetRoom handles GET /api/rooms/{roomID}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	info, err := s.rooms.RoomInfo(ctx, chi.URLParam(r, "roomID"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &info)
}

// handleRoomQR handles GET /api/rooms/{roomID}/qr
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request) {
	roomID, err := domain.NormalizeRoomID(chi.URLParam(r, "roomID"))
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	png, err := qrcode.Encode(s.inviteLink(r, roomID), qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("failed to encode qr code", "roomID", roomID, "error", err)
		s.sendError(w, http.StatusInternalServerError, domain.CodeInternal, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, &HealthResponse{
		Status: "ok",
	})
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	stats, err := s.rooms.Stats(ctx)
	if err != nil {
		s.sendDomainError(w, err)
		return
	}

	s.sendSuccess(w, &stats)
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.requestTimeout)
}

// inviteLink builds the shareable join URL, preferring the configured public URL
func (s *Server) inviteLink(r *http.Request, roomID string) string {
	base := strings.TrimRight(s.config.Server.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join/" + roomID
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendDomainError maps a room error onto an HTTP status
func (s *Server) sendDomainError(w http.ResponseWriter, err error) {
	code := domain.ErrorCode(err)
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		s.sendError(w, http.StatusNotFound, code, "Room not found")
	case errors.Is(err, domain.ErrValidation):
		s.sendError(w, http.StatusBadRequest, code, err.Error())
	case errors.Is(err, app.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		s.sendError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Server is busy")
	default:
		s.logger.Error("request failed", "error", err)
		s.sendError(w, http.StatusInternalServerError, domain.CodeInternal, "Internal server error")
	}
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

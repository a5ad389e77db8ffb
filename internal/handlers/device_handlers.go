package handlers

// Device registry and linking-coordinator handlers, rebuilt from the
// teacher's internal/handlers/device_handlers.go against internal/devices
// and internal/linking.

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/devices"
	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/linking"
	"github.com/hakimino/vyry/internal/logging"
)

// ListDevices godoc
// @Summary List the caller's active devices
// @Router /devices [get]
func ListDevices(svc *devices.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		list, err := svc.List(r.Context(), userID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"devices": list})
	}
}

// UnlinkDevice godoc
// @Summary Unlink one of the caller's devices
// @Router /devices/{device_id} [delete]
func UnlinkDevice(svc *devices.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, deviceID, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		targetID, err := strconv.ParseInt(mux.Vars(r)["device_id"], 10, 64)
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "device_id must be an integer"))
			return
		}
		if err := svc.Unlink(r.Context(), userID, deviceID, targetID); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"message": "device unlinked"})
	}
}

// CreateLinkingSession godoc
// @Summary Start a QR-code device-linking session
// @Router /devices/link/create [post]
func CreateLinkingSession(svc *linking.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, deviceID, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		result, err := svc.Create(r.Context(), deviceID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{
			"session_id":     result.SessionID,
			"qr_code_data":   result.QRBlob,
			"qr_code_token":  result.QRBlob,
			"expires_at":     result.ExpiresAt,
		})
	}
}

type completeLinkingRequest struct {
	QRCodeToken string `json:"qr_code_token"`
	DeviceUUID  string `json:"device_uuid"`
	DeviceName  string `json:"device_name"`
	Platform    string `json:"platform"`
}

// CompleteLinkingSession godoc
// @Summary Scan a linking QR code from the new device
// @Router /devices/link/complete [post]
func CompleteLinkingSession(svc *linking.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completeLinkingRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		deviceUUID, err := uuid.Parse(req.DeviceUUID)
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "device_uuid must be a valid UUID"))
			return
		}

		sessionID, err := svc.Complete(r.Context(), req.QRCodeToken, deviceUUID, req.DeviceName)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{
			"session_id": sessionID,
			"status":     "pending",
			"message":    "waiting for primary device approval",
		})
	}
}

type approveLinkingRequest struct {
	SessionID uuid.UUID `json:"session_id"`
	Approve   bool      `json:"approve"`
}

// ApproveLinkingSession godoc
// @Summary Approve or reject a pending linking session
// @Router /devices/link/approve [post]
func ApproveLinkingSession(svc *linking.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, deviceID, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req approveLinkingRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		if !req.Approve {
			if err := svc.Reject(r.Context(), req.SessionID, deviceID); err != nil {
				httpkit.WriteError(w, log, err)
				return
			}
			httpkit.WriteJSON(w, http.StatusOK, map[string]any{"status": "rejected"})
			return
		}

		result, err := svc.Approve(r.Context(), req.SessionID, deviceID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{
			"status":        "approved",
			"new_device_id": result.NewDeviceID,
		})
	}
}

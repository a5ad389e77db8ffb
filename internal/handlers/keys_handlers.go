package handlers

// Prekey store handlers: bundle issuance and key upload, rebuilt from the
// teacher's security/signal.go bundle-serving logic against
// internal/prekeys.

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/prekeys"
	"github.com/hakimino/vyry/internal/signalkeys"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// GetPreKeyBundle godoc
// @Summary Fetch a prekey bundle for (user, device), consuming a one-time key
// @Router /keys/{user_id}/devices/{device_id} [get]
func GetPreKeyBundle(svc *prekeys.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "user_id")
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "user_id must be a valid UUID"))
			return
		}
		deviceID, err := pathInt64(r, "device_id")
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "device_id must be an integer"))
			return
		}

		bundle, err := svc.GetBundle(r.Context(), userID, deviceID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		resp := map[string]any{
			"device_id":           bundle.DeviceID,
			"identity_public_key": base64.StdEncoding.EncodeToString(bundle.IdentityPublicKey),
			"registration_id":     bundle.RegistrationID,
			"signed_pre_key": map[string]any{
				"id":        bundle.SignedPreKeyID,
				"public":    base64.StdEncoding.EncodeToString(bundle.SignedPreKeyPublic),
				"signature": base64.StdEncoding.EncodeToString(bundle.SignedPreKeySig),
			},
		}
		if bundle.OneTimePreKeyID != nil {
			resp["one_time_pre_key"] = map[string]any{
				"id":     *bundle.OneTimePreKeyID,
				"public": base64.StdEncoding.EncodeToString(bundle.OneTimePreKeyPublic),
			}
		} else {
			resp["one_time_pre_key"] = nil
		}
		httpkit.WriteJSON(w, http.StatusOK, resp)
	}
}

// ListDeviceKeys godoc
// @Summary List a user's active device ids and registration ids
// @Router /keys/{user_id}/devices [get]
func ListDeviceKeys(svc *prekeys.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathUUID(r, "user_id")
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "user_id must be a valid UUID"))
			return
		}
		keys, err := svc.ListDeviceKeys(r.Context(), userID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"devices": keys})
	}
}

type uploadKeysRequest struct {
	IdentityPublicKey  string   `json:"identity_public_key"`
	RegistrationID     int      `json:"registration_id"`
	SignedPreKeyID     int64    `json:"signed_pre_key_id"`
	SignedPreKeyPublic string   `json:"signed_pre_key_public"`
	SignedPreKeySig    string   `json:"signed_pre_key_signature"`
	OneTimePreKeys     []string `json:"one_time_pre_keys"`
}

// UploadKeys godoc
// @Summary Replace the caller device's key material
// @Router /keys [post]
func UploadKeys(svc *prekeys.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, deviceID, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req uploadKeysRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		identityPub, err := base64.StdEncoding.DecodeString(req.IdentityPublicKey)
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "identity_public_key must be base64"))
			return
		}
		spkPub, err := base64.StdEncoding.DecodeString(req.SignedPreKeyPublic)
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "signed_pre_key_public must be base64"))
			return
		}
		spkSig, err := base64.StdEncoding.DecodeString(req.SignedPreKeySig)
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "signed_pre_key_signature must be base64"))
			return
		}

		otks := make([]signalkeys.OneTimePreKey, 0, len(req.OneTimePreKeys))
		for i, encoded := range req.OneTimePreKeys {
			raw, err := base64.StdEncoding.DecodeString(encoded)
			if err != nil || len(raw) != signalkeys.X25519KeySize {
				httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "one_time_pre_keys entries must be base64-encoded 32-byte keys"))
				return
			}
			var otk signalkeys.OneTimePreKey
			otk.KeyID = int64(i) + 1
			copy(otk.PublicKey[:], raw)
			otks = append(otks, otk)
		}

		if err := svc.Upload(r.Context(), deviceID, prekeys.UploadRequest{
			IdentityPublicKey:  identityPub,
			RegistrationID:     req.RegistrationID,
			SignedPreKeyID:     req.SignedPreKeyID,
			SignedPreKeyPublic: spkPub,
			SignedPreKeySig:    spkSig,
			OneTimePreKeys:     otks,
		}); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"message": "keys uploaded"})
	}
}

package handlers

// Authentication handlers: OTP issuance/verification, token refresh,
// profile, and PIN/registration-lock management. Rebuilt from the
// teacher's internal/handlers/auth_handlers.go against internal/identity.

import (
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/hakimino/vyry/internal/apperr"
	"github.com/hakimino/vyry/internal/credentials"
	"github.com/hakimino/vyry/internal/httpkit"
	"github.com/hakimino/vyry/internal/identity"
	"github.com/hakimino/vyry/internal/logging"
	"github.com/hakimino/vyry/internal/pinlock"
)

// SafetyNumber godoc
// @Summary Compute the key-verification code between the caller and another user
// @Router /users/{user_id}/safety-number [get]
func SafetyNumber(svc *identity.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callerID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		peerID, err := pathUUID(r, "user_id")
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "user_id must be a valid UUID"))
			return
		}

		number, err := svc.SafetyNumber(r.Context(), callerID, peerID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		httpkit.WriteJSON(w, http.StatusOK, map[string]any{
			"safety_number":           number,
			"safety_number_formatted": identity.FormatSafetyNumber(number),
		})
	}
}

type requestOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// RequestOTP godoc
// @Summary Request a phone OTP code
// @Router /auth/request-otp [post]
func RequestOTP(svc *identity.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req requestOTPRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		if req.PhoneNumber == "" {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "phone_number is required"))
			return
		}

		code, err := svc.RequestOTP(r.Context(), req.PhoneNumber)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		resp := map[string]any{"message": "verification code sent", "expires_in_seconds": 180}
		// SECURITY: only echo the code outside production, mirroring the
		// teacher's DEV_MODE gate.
		if os.Getenv("DEV_MODE") == "true" {
			resp["code"] = code
		}
		httpkit.WriteJSON(w, http.StatusOK, resp)
	}
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
	DeviceUUID  string `json:"device_uuid"`
	DeviceName  string `json:"device_name"`
	Platform    string `json:"platform"`
}

// VerifyOTP godoc
// @Summary Verify a phone OTP and mint tokens
// @Router /auth/verify-otp [post]
func VerifyOTP(svc *identity.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req verifyOTPRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		deviceUUID, err := uuid.Parse(req.DeviceUUID)
		if err != nil {
			httpkit.WriteError(w, log, apperr.New(apperr.KindValidation, "device_uuid must be a valid UUID"))
			return
		}

		result, err := svc.VerifyOTP(r.Context(), req.PhoneNumber, req.OTP, deviceUUID, req.DeviceName, platformFromString(req.Platform))
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		httpkit.WriteJSON(w, http.StatusOK, map[string]any{
			"access_token":           result.Tokens.AccessToken,
			"refresh_token":          result.Tokens.RefreshToken,
			"user_id":                result.UserID,
			"device_id":              result.DeviceID,
			"is_new_user":            result.IsNewUser,
			"requires_profile_setup": result.RequiresProfileSetup,
			"requires_pin":           result.RequiresPIN,
		})
	}
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken godoc
// @Summary Mint a new access token from a refresh token
// @Router /auth/refresh-token [post]
func RefreshToken(issuer *credentials.Issuer, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req refreshTokenRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		pair, err := issuer.RefreshAccessToken(r.Context(), req.RefreshToken)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		httpkit.WriteJSON(w, http.StatusOK, map[string]any{
			"access_token":  pair.AccessToken,
			"refresh_token": pair.RefreshToken,
		})
	}
}

// Profile godoc
// @Summary Fetch the caller's profile
// @Router /auth/profile [get]
func Profile(svc *identity.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		profile, err := svc.FetchProfile(r.Context(), userID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, profile)
	}
}

type setupProfileRequest struct {
	DisplayName   *string `json:"display_name"`
	Username      *string `json:"username"`
	Bio           *string `json:"bio"`
	AvatarURL     *string `json:"avatar_url"`
	BackgroundURL *string `json:"background_url"`
}

// SetupProfile godoc
// @Summary Update the caller's profile
// @Router /auth/setup-profile [post]
func SetupProfile(svc *identity.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req setupProfileRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		if err := svc.UpdateProfile(r.Context(), userID, identity.ProfileUpdateRequest{
			DisplayName:   req.DisplayName,
			Username:      req.Username,
			Bio:           req.Bio,
			AvatarURL:     req.AvatarURL,
			BackgroundURL: req.BackgroundURL,
		}); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		profile, err := svc.FetchProfile(r.Context(), userID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, profile)
	}
}

type setupPINRequest struct {
	PIN                    string `json:"pin"`
	ConfirmPIN             string `json:"confirm_pin"`
	EnableRegistrationLock bool   `json:"enable_registration_lock"`
}

// SetupPIN godoc
// @Summary Set the caller's registration-lock PIN
// @Router /auth/setup-pin [post]
func SetupPIN(svc *identity.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req setupPINRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		if err := svc.SetupPIN(r.Context(), nil, userID, identity.PINSetupRequest{
			PIN:                    req.PIN,
			ConfirmPIN:             req.ConfirmPIN,
			EnableRegistrationLock: req.EnableRegistrationLock,
		}); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"message": "pin set"})
	}
}

type verifyPINRequest struct {
	PIN string `json:"pin"`
}

// VerifyPIN godoc
// @Summary Verify the caller's registration-lock PIN
// @Router /auth/verify-pin [post]
func VerifyPIN(svc *identity.Service, lockout *pinlock.Lockout, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		var req verifyPINRequest
		if err := httpkit.DecodeJSON(r, &req); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		result, err := svc.VerifyPIN(r.Context(), lockout, userID, req.PIN)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}

		resp := map[string]any{
			"verified":          result.Verified,
			"has_pin":           result.HasPIN,
			"attempts_remaining": result.AttemptsRemaining,
		}
		if result.LockoutRemainingSeconds > 0 {
			resp["lockout_remaining_seconds"] = result.LockoutRemainingSeconds
		}
		httpkit.WriteJSON(w, http.StatusOK, resp)
	}
}

// PINStatus godoc
// @Summary Report whether the caller has a PIN set
// @Router /auth/pin-status [get]
func PINStatus(svc *identity.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		hasPIN, err := svc.PINStatus(r.Context(), userID)
		if err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"has_pin": hasPIN})
	}
}

// SkipPINSetup godoc
// @Summary Skip PIN setup
// @Router /auth/skip-pin-setup [post]
func SkipPINSetup(svc *identity.Service, log *logging.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, ok := callerIdentity(w, r, log)
		if !ok {
			return
		}
		if err := svc.SkipPIN(r.Context(), userID); err != nil {
			httpkit.WriteError(w, log, err)
			return
		}
		httpkit.WriteJSON(w, http.StatusOK, map[string]any{"message": "pin setup skipped"})
	}
}

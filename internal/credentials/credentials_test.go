package credentials

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeDeviceLookup lets tests control device-active status without a
// database, matching the interface *store.DB satisfies in production.
type fakeDeviceLookup struct {
	active bool
	err    error
}

func (f fakeDeviceLookup) IsDeviceActive(ctx context.Context, deviceID int64) (bool, error) {
	return f.active, f.err
}

func TestIssueAndValidateAccessToken(t *testing.T) {
	issuer := NewIssuer("secret-1", time.Minute, time.Hour, nil)

	pair, err := issuer.Issue("user-1", "device-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := issuer.Validate(pair.AccessToken, "access")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "device-1", claims.DeviceID)
}

func TestValidateRejectsWrongTokenType(t *testing.T) {
	issuer := NewIssuer("secret-1", time.Minute, time.Hour, nil)
	pair, err := issuer.Issue("user-1", "device-1")
	require.NoError(t, err)

	_, err = issuer.Validate(pair.AccessToken, "refresh")
	require.Error(t, err)
}

func TestRotateSecretAcceptsOldTokensDuringWindow(t *testing.T) {
	issuer := NewIssuer("secret-1", time.Minute, time.Hour, nil)
	pair, err := issuer.Issue("user-1", "device-1")
	require.NoError(t, err)

	issuer.RotateSecret("secret-2")

	claims, err := issuer.Validate(pair.AccessToken, "access")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)

	newPair, err := issuer.Issue("user-1", "device-1")
	require.NoError(t, err)
	_, err = issuer.Validate(newPair.AccessToken, "access")
	require.NoError(t, err)
}

func TestRefreshAccessTokenMintsNewPairWithoutDeviceCheck(t *testing.T) {
	issuer := NewIssuer("secret-1", time.Minute, time.Hour, nil)
	pair, err := issuer.Issue("user-1", "device-1")
	require.NoError(t, err)

	newPair, err := issuer.RefreshAccessToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, newPair.AccessToken)
	require.NotEmpty(t, newPair.RefreshToken)
}

func TestRefreshAccessTokenRejectsAccessToken(t *testing.T) {
	issuer := NewIssuer("secret-1", time.Minute, time.Hour, nil)
	pair, err := issuer.Issue("user-1", "device-1")
	require.NoError(t, err)

	_, err = issuer.RefreshAccessToken(context.Background(), pair.AccessToken)
	require.Error(t, err)
}

func TestRefreshAccessTokenRotatesRefreshToken(t *testing.T) {
	issuer := NewIssuer("secret-1", time.Minute, time.Hour, fakeDeviceLookup{active: true})
	pair, err := issuer.Issue("user-1", "1")
	require.NoError(t, err)

	newPair, err := issuer.RefreshAccessToken(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, newPair.RefreshToken)

	claims, err := issuer.Validate(newPair.RefreshToken, "refresh")
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestRefreshAccessTokenRejectsInactiveDevice(t *testing.T) {
	issuer := NewIssuer("secret-1", time.Minute, time.Hour, fakeDeviceLookup{active: false})
	pair, err := issuer.Issue("user-1", "1")
	require.NoError(t, err)

	_, err = issuer.RefreshAccessToken(context.Background(), pair.RefreshToken)
	require.Error(t, err)
}

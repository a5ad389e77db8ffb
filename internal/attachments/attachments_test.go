package attachments

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("minio.internal:9000", "test-access-key", "test-secret-key", "vyry-attachments", false)
	require.NoError(t, err)
	return svc
}

func TestUploadURLScopesObjectKeyToOwner(t *testing.T) {
	svc := newTestService(t)
	owner := uuid.New()

	url, objectKey, err := svc.UploadURL(context.Background(), owner)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(objectKey, owner.String()+"/"))
	require.Contains(t, url, "vyry-attachments")
}

func TestDownloadURLReferencesGivenObjectKey(t *testing.T) {
	svc := newTestService(t)

	url, err := svc.DownloadURL(context.Background(), "some-owner/some-object")
	require.NoError(t, err)
	require.Contains(t, url, "some-owner")
}

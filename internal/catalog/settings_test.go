package catalog

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquahimiya/catalogd/internal/auth"
	"github.com/aquahimiya/catalogd/internal/domain"
)

func TestSettingsDefaultedOnFirstRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.False(t, f.store.Exists(domain.TableSettings))

	pub, err := f.settings.Public(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPublicSettings(), pub)
	assert.True(t, f.store.Exists(domain.TableSettings))

	full, err := f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, full.AdminPasswordHash)
	assert.Nil(t, full.AuthToken)
}

func TestSettingsSaveMergesAndKeepsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tok := &domain.AuthToken{Token: "abc", ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, f.settings.SaveToken(ctx, tok))

	pub, err := f.settings.Save(ctx, map[string]interface{}{
		"siteName":       " Aqua ",
		"whatsappNumber": "+996 (700) 11-22-33",
		"unknown":        "dropped",
	})
	require.NoError(t, err)
	assert.Equal(t, "Aqua", pub.SiteName)
	assert.Equal(t, "996700112233", pub.WhatsappNumber)
	assert.Equal(t, domain.DefaultPublicSettings().Phone, pub.Phone)

	full, err := f.settings.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, full.AuthToken)
	assert.Equal(t, "abc", full.AuthToken.Token)
	assert.True(t, tok.ExpiresAt.Equal(full.AuthToken.ExpiresAt))
	assert.Equal(t, []string{TopicSettingsUpdated}, f.events.topics())
}

func TestSettingsPasswordChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.settings.Save(ctx, map[string]interface{}{"currentPassword": "wrong", "newPassword": "new-secret"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	full, err := f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, full.AdminPasswordHash)

	_, err = f.settings.Save(ctx, map[string]interface{}{"currentPassword": "admin123", "newPassword": "short"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.settings.Save(ctx, map[string]interface{}{"currentPassword": "admin123", "newPassword": "new-secret"})
	require.NoError(t, err)
	full, err = f.settings.Get(ctx)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(full.AdminPasswordHash, "new-secret", "admin123"))
	hash := full.AdminPasswordHash

	// the bootstrap password no longer works once a hash is stored
	_, err = f.settings.Save(ctx, map[string]interface{}{"currentPassword": "admin123", "newPassword": "another-one"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	full, err = f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, hash, full.AdminPasswordHash)
}

func TestSettingsDocumentNeverLeaksInPublicView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.settings.SaveToken(ctx, &domain.AuthToken{Token: "secret-token"}))
	_, err := f.settings.Save(ctx, map[string]interface{}{"currentPassword": "admin123", "newPassword": "s3cret!!"})
	require.NoError(t, err)

	pub, err := f.settings.Public(ctx)
	require.NoError(t, err)
	assert.NotContains(t, pub.SiteName+pub.Phone+pub.Email+pub.Address+pub.WorkingHours+pub.WhatsappNumber, "secret-token")

	raw, err := os.ReadFile(f.store.Path(domain.TableSettings))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), "adminPasswordHash"))
	assert.True(t, strings.Contains(string(raw), "secret-token"))
}

func TestSettingsReadsLegacyKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hash, err := auth.HashPassword("legacy-pass")
	require.NoError(t, err)
	legacy := map[string]interface{}{
		"siteName":      "Old site",
		"adminPassword": hash,
		"_token":        "legacytoken",
		"_tokenExpires": 1900000000,
	}
	require.NoError(t, f.store.Write(ctx, domain.TableSettings, legacy))

	full, err := f.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Old site", full.SiteName)
	assert.Equal(t, domain.DefaultPublicSettings().Email, full.Email)
	assert.Equal(t, hash, full.AdminPasswordHash)
	require.NotNil(t, full.AuthToken)
	assert.Equal(t, "legacytoken", full.AuthToken.Token)
	assert.Equal(t, time.Unix(1900000000, 0).UTC(), full.AuthToken.ExpiresAt)

	// writing a token drops the legacy keys
	require.NoError(t, f.settings.SaveToken(ctx, nil))
	var doc map[string]interface{}
	require.NoError(t, f.store.Read(ctx, domain.TableSettings, &doc))
	assert.NotContains(t, doc, "_token")
	assert.NotContains(t, doc, "_tokenExpires")
	assert.Contains(t, doc, "adminPassword")
}

func TestParseExpiry(t *testing.T) {
	want := time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, want, parseExpiry(want.Format(time.RFC3339)))
	assert.Equal(t, want, parseExpiry(float64(want.Unix())))
	assert.Equal(t, want, parseExpiry(want.UnixMilli()))
	assert.Equal(t, want, parseExpiry("2030-06-01 12:00:00"))
	assert.True(t, parseExpiry(0).IsZero())
	assert.True(t, parseExpiry("").IsZero())
	assert.True(t, parseExpiry("garbage").IsZero())
}

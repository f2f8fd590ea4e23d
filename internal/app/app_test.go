package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquahimiya/catalogd/config"
	"github.com/aquahimiya/catalogd/internal/domain"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := *config.DefaultAppConfig
	cfg.System.Workdir = t.TempDir()
	cfg.System.Location = "UTC"
	cfg.Logger.FileEnable = false
	cfg.Auth.LoginFailDelay = 0
	return &cfg
}

func TestInitSeedsDocuments(t *testing.T) {
	a := NewApplication(testConfig(t))
	require.NoError(t, a.Init())
	defer a.Release()

	for _, name := range domain.Tables {
		assert.True(t, a.store.Exists(name), name)
	}
	pub, err := a.Settings().Public(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSiteName, pub.SiteName)
	assert.NotNil(t, a.WorkerPool())
	assert.NotNil(t, a.Auth())
}

func TestInitPurgesReservedCategory(t *testing.T) {
	cfg := testConfig(t)
	first := NewApplication(cfg)
	require.NoError(t, first.Init())
	ctx := context.Background()
	require.NoError(t, first.store.Write(ctx, domain.TableCategories, []domain.Category{
		{ID: "all", Name: "Все", Icon: "🗂"},
		{ID: "chemistry", Name: "Химия", Icon: "🧪"},
	}))
	first.Release()

	second := NewApplication(cfg)
	require.NoError(t, second.Init())
	defer second.Release()

	cats, err := second.Categories().List(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "chemistry", cats[0].ID)
}

func TestRepositoriesShareOneStore(t *testing.T) {
	a := NewApplication(testConfig(t))
	require.NoError(t, a.Init())
	defer a.Release()
	ctx := context.Background()

	tok, err := a.Auth().Login(ctx, "admin123")
	require.NoError(t, err)
	_, err = a.Settings().Save(ctx, map[string]interface{}{"siteName": "Aqua"})
	require.NoError(t, err)
	assert.True(t, a.Auth().Validate(ctx, tok.Token))
}

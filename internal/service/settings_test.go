package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace-api/internal/core/upload"
	"marketplace-api/internal/domain"
	"marketplace-api/internal/repo"
)

// memCache is an in-process cache.Store. Like the redis store, a load only
// fills a key that is still missing when it finishes.
type memCache struct {
	mu    sync.Mutex
	data  map[string][]byte
	loads int
}

func (m *memCache) GetOrLoad(ctx context.Context, key string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if ok {
		return b, nil
	}
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if _, ok := m.data[key]; !ok {
		m.data[key] = b
	}
	return b, nil
}

func (m *memCache) Set(_ context.Context, key string, b []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *memCache) Invalidate(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

const svgLogo = `<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" width="4" height="4"><rect width="4" height="4"/></svg>`

func TestSettings_CacheWriteThrough(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	c := &memCache{data: map[string][]byte{}}
	files, err := upload.New(t.TempDir(), "/uploads")
	require.NoError(t, err)
	svc := NewSettingsService(repo.NewSettingsRepo(db), c, time.Minute, files, 1<<20, zap.NewNop())

	_, err = svc.Get(ctx)
	require.NoError(t, err)
	_, err = svc.GetPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, c.loads)

	name, email := "ACME", "hello@acme.io"
	_, err = svc.Update(ctx, domain.SettingsPatch{CompanyName: &name, Email: &email})
	require.NoError(t, err)

	pub, err := svc.GetPublic(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ACME", pub.CompanyName)
	assert.Equal(t, "hello@acme.io", pub.Email)
	assert.Equal(t, 1, c.loads, "update writes through")
}

func TestSettings_LateFillKeepsUpdate(t *testing.T) {
	ctx := context.Background()
	settings := repo.NewSettingsRepo(newTestDB(t))
	c := &memCache{data: map[string][]byte{}}
	svc := NewSettingsService(settings, c, time.Minute, nil, 0, zap.NewNop())

	before, err := settings.Get(ctx)
	require.NoError(t, err)
	stale, err := json.Marshal(before)
	require.NoError(t, err)

	// a reader loads the old row, the update commits, then the reader fills
	name := "After"
	_, err = c.GetOrLoad(ctx, settingsCacheKey, time.Minute, func(ctx context.Context) ([]byte, error) {
		_, err := svc.Update(ctx, domain.SettingsPatch{CompanyName: &name})
		require.NoError(t, err)
		return stale, nil
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got.CompanyName)
	assert.Equal(t, "After", *got.CompanyName)
}

func TestSettings_Logo(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	files, err := upload.New(t.TempDir(), "/uploads")
	require.NoError(t, err)
	svc := NewSettingsService(repo.NewSettingsRepo(db), nil, time.Minute, files, 1<<20, zap.NewNop())

	logo := FileInput{Name: "logo.svg", Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte(svgLogo))), nil
	}}
	cs, err := svc.SetLogo(ctx, logo)
	require.NoError(t, err)
	require.NotNil(t, cs.LogoURL)
	assert.Contains(t, *cs.LogoURL, "/uploads/branding/")

	bad := FileInput{Name: "logo.txt", Open: func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader([]byte("not an image"))), nil
	}}
	_, err = svc.SetLogo(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cs, err = svc.RemoveLogo(ctx)
	require.NoError(t, err)
	assert.Nil(t, cs.LogoURL)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(repo.NewServiceRepo(newTestDB(t)))

	_, err := svc.Create(ctx, ServiceInput{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	neg := decimal.NewFromInt(-1)
	_, err = svc.Create(ctx, ServiceInput{Name: "Inspection", Price: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	price := decimal.NewFromInt(49)
	s, err := svc.Create(ctx, ServiceInput{Name: "Inspection", Price: &price})
	require.NoError(t, err)
	assert.True(t, s.IsActive)

	off := false
	_, err = svc.Update(ctx, s.ID, domain.ServicePatch{IsActive: &off})
	require.NoError(t, err)

	active, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, s.ID))
	assert.ErrorIs(t, svc.Delete(ctx, s.ID), domain.ErrNotFound)
}

func TestLeads(t *testing.T) {
	ctx := context.Background()
	svc := NewLeadService(repo.NewLeadRepo(newTestDB(t)))

	_, err := svc.CreateLead(ctx, nil, LeadInput{Name: "Rui", Email: "rui@x.io", Message: "interested"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.CreateContacto(ctx, ContactoInput{Name: "Rui"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

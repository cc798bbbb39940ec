package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/estatedesk/internal/config"
	"github.com/erazemk/estatedesk/internal/docstore"
	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/query"
	"github.com/erazemk/estatedesk/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(docstore.NewTestStore(t, store.Collections()...), nil)
}

func TestSeed(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	f, err := os.Open("testdata/seed.yaml")
	require.NoError(t, err)
	defer f.Close()

	stats, err := seed(ctx, st, f)
	require.NoError(t, err)
	assert.Equal(t, seedStats{Properties: 3, Posts: 1, Team: 2, Slides: 1}, stats)

	settings, err := st.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Addis Homes", settings.SiteName)
	assert.Equal(t, "https://t.me/addishomes", settings.Social["telegram"])

	res, err := st.Properties.List(ctx, query.Params{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total, "the draft is not publicly listed")

	p, err := st.Properties.GetBySlug(ctx, "bole-atlas-apartment")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Coordinates)
	assert.NotEmpty(t, p.Coordinates.Geohash)
	assert.Equal(t, 3, *p.Bedrooms)

	// Seeding again skips everything with a slug.
	_, err = f.Seek(0, 0)
	require.NoError(t, err)
	again, err := seed(ctx, st, f)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Properties)
	assert.Equal(t, 0, again.Posts)
	assert.Equal(t, 4, again.Skipped)
}

func TestSeedRejectsInvalidEntry(t *testing.T) {
	st := newTestStore(t)

	_, err := seed(context.Background(), st, strings.NewReader("properties:\n  - title: No type\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property 0")
}

func TestSeedEmptyFile(t *testing.T) {
	stats, err := seed(context.Background(), newTestStore(t), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, seedStats{}, stats)
}

func TestBootstrapAdmin(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, bootstrapAdmin(ctx, st, "boss@example.com", &out))
	assert.Contains(t, out.String(), "boss@example.com")

	user, err := st.Users.GetByEmail(ctx, "boss@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, model.RoleAdmin, user.Role)

	// The printed password matches the stored hash.
	var password string
	for _, line := range strings.Split(out.String(), "\n") {
		if p, ok := strings.CutPrefix(strings.TrimSpace(line), "Password: "); ok {
			password = p
		}
	}
	require.Len(t, password, 16)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)))

	// A second run is a no-op.
	out.Reset()
	require.NoError(t, bootstrapAdmin(ctx, st, "other@example.com", &out))
	assert.Empty(t, out.String())
	n, _ := st.Users.Count(ctx)
	assert.EqualValues(t, 1, n)
}

func TestParseFlagsOverrideConfig(t *testing.T) {
	cfg := &config.Config{Addr: ":8080", SQLitePath: "a.db", StoreDriver: config.DriverSQLite}

	opts, err := parseFlags([]string{"-addr", ":9090", "-db", "b.db", "-file", "demo.yaml"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "b.db", cfg.SQLitePath)
	assert.Equal(t, "demo.yaml", opts.seedFile)
	assert.Equal(t, "admin@estatedesk.local", opts.adminUser)

	_, err = parseFlags([]string{"extra"}, cfg)
	assert.Error(t, err)
}

func TestGeneratePassword(t *testing.T) {
	a, err := generatePassword(16)
	require.NoError(t, err)
	b, _ := generatePassword(16)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

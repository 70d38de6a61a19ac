package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"lit-explorer/models"
	"lit-explorer/sparql"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// dryRunStore öffnet gorm ohne Verbindung; Statements werden nur als SQL erzeugt.
func dryRunStore(t *testing.T) *PostgresStore {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=lit dbname=lit sslmode=disable"), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return &PostgresStore{db: db, now: func() time.Time { return fixedNow }}
}

func TestCacheEntryKeyColumnFitsEveryKey(t *testing.T) {
	s, err := schema.Parse(&models.CacheEntry{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := s.LookUpField("Key")
	require.NotNil(t, field)
	assert.Equal(t, "varchar(255)", postgres.Dialector{}.DataTypeOf(field))

	engine, err := sparql.NewEngine()
	require.NoError(t, err)
	ops := append(engine.Names(), "recommendations")
	for _, op := range ops {
		key := Key(op, map[string]any{"qid": "Q23434", "limit": 50})
		assert.LessOrEqual(t, len(key), field.Size, "key for %s", op)
	}
}

func TestPostgresStoreStatements(t *testing.T) {
	p := dryRunStore(t)
	key := Key("author_details", map[string]any{"qid": "Q23434"})

	sql := p.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return p.selectLive(tx, key, &models.CacheEntry{})
	})
	assert.Contains(t, sql, `FROM "cache_entries"`)
	assert.Contains(t, sql, "key = '"+key+"'")
	assert.Contains(t, sql, "expires_at > '2024-05-01 12:00:00")

	sql = p.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return p.upsert(tx, &models.CacheEntry{Key: key, Value: []byte("v"), ExpiresAt: fixedNow.Add(time.Hour), CreatedAt: fixedNow})
	})
	assert.Contains(t, sql, `INSERT INTO "cache_entries"`)
	assert.Contains(t, sql, `ON CONFLICT ("key") DO UPDATE SET`)
	assert.Contains(t, sql, `"value"="excluded"."value"`)
	assert.Contains(t, sql, `"expires_at"="excluded"."expires_at"`)

	sql = p.db.ToSQL(func(tx *gorm.DB) *gorm.DB { return p.deletePrefixed(tx) })
	assert.Contains(t, sql, `DELETE FROM "cache_entries" WHERE key LIKE 'lit:%'`)

	sql = p.db.ToSQL(func(tx *gorm.DB) *gorm.DB { return p.deleteExpired(tx) })
	assert.Contains(t, sql, `DELETE FROM "cache_entries" WHERE expires_at <= '2024-05-01 12:00:00`)
}

// TestPostgresStore läuft nur gegen eine echte Datenbank (LIT_TEST_POSTGRES_DSN).
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("LIT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LIT_TEST_POSTGRES_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	p, err := NewPostgresStore(db)
	require.NoError(t, err)
	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
	p.now = clock.Now

	ctx := context.Background()
	require.NoError(t, p.DeleteAll(ctx))
	_, err = p.PurgeExpired(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.CacheEntry{Key: "foreign:1", Value: []byte("x"), ExpiresAt: clock.t.Add(time.Hour)}).Error)
	t.Cleanup(func() { db.Where("key = ?", "foreign:1").Delete(&models.CacheEntry{}) })

	key := Key("author_details", map[string]any{"qid": "Q23434"})
	require.NoError(t, p.Set(ctx, key, []byte(`{"v":1}`), time.Minute))
	v, err := p.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":1}`), v)

	require.NoError(t, p.Set(ctx, key, []byte(`{"v":2}`), time.Hour))
	v, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), v)

	short := Key("search_books", map[string]any{"limit": 50})
	require.NoError(t, p.Set(ctx, short, []byte(`[]`), time.Minute))
	clock.Advance(2 * time.Minute)
	_, err = p.Get(ctx, short)
	assert.ErrorIs(t, err, ErrMiss)

	n, err := p.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, p.DeleteAll(ctx))
	_, err = p.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
	var foreign int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Where("key = ?", "foreign:1").Count(&foreign).Error)
	assert.Equal(t, int64(1), foreign)
}

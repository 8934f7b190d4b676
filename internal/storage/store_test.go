package storage_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/jonesrussell/company-url-collector/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(url string) domain.URLRecord {
	return domain.URLRecord{
		URL:          url,
		Title:        "title " + url,
		Timestamp:    "2025-01-01T00:00:00Z",
		IsFirstParty: false,
		IsRelevant:   true,
	}
}

func urls(records []domain.URLRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.URL
	}
	return out
}

type storeFactory func(t *testing.T) storage.Store

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) storage.Store {
			t.Helper()
			return storage.NewFileStore(t.TempDir(), nil)
		},
		"redis": func(t *testing.T) storage.Store {
			t.Helper()
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })
			return storage.NewRedisStore(client, nil)
		},
	}
}

func TestStore_Contract(t *testing.T) {
	t.Parallel()

	for name, newStore := range factories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			t.Run("load missing is empty", func(t *testing.T) {
				s := newStore(t)
				got, err := s.Load(context.Background(), "Nobody Inc")
				require.NoError(t, err)
				assert.NotNil(t, got)
				assert.Empty(t, got)
			})

			t.Run("merge is idempotent", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()
				batch := []domain.URLRecord{rec("https://a.com"), rec("https://b.com")}

				first, err := s.Merge(ctx, "Elastic", batch)
				require.NoError(t, err)
				second, err := s.Merge(ctx, "Elastic", batch)
				require.NoError(t, err)

				assert.Len(t, first, 2)
				assert.Len(t, second, 2)
			})

			t.Run("order is preserved", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()

				_, err := s.Merge(ctx, "Elastic", []domain.URLRecord{rec("https://a.com"), rec("https://b.com")})
				require.NoError(t, err)
				got, err := s.Merge(ctx, "Elastic", []domain.URLRecord{rec("https://c.com")})
				require.NoError(t, err)

				assert.Equal(t, []string{"https://a.com", "https://b.com", "https://c.com"}, urls(got))

				loaded, err := s.Load(ctx, "Elastic")
				require.NoError(t, err)
				assert.Equal(t, got, loaded)
			})

			t.Run("duplicates within a batch keep first", func(t *testing.T) {
				s := newStore(t)
				first := rec("https://a.com")
				dup := rec("https://a.com")
				dup.Title = "second copy"

				got, err := s.Merge(context.Background(), "Elastic", []domain.URLRecord{first, rec("https://b.com"), dup})
				require.NoError(t, err)
				require.Len(t, got, 2)
				assert.Equal(t, "title https://a.com", got[0].Title)
			})

			t.Run("existing records are not rewritten", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()
				original := rec("https://a.com")
				_, err := s.Merge(ctx, "Elastic", []domain.URLRecord{original})
				require.NoError(t, err)

				changed := original
				changed.IsRelevant = false
				changed.Timestamp = "2026-01-01T00:00:00Z"
				got, err := s.Merge(ctx, "Elastic", []domain.URLRecord{changed})
				require.NoError(t, err)
				require.Len(t, got, 1)
				assert.Equal(t, original, got[0])
			})

			t.Run("key normalization shares collections", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()
				_, err := s.Merge(ctx, "Acme Corp.", []domain.URLRecord{rec("https://a.com")})
				require.NoError(t, err)

				got, err := s.Load(ctx, "acme corp_")
				require.NoError(t, err)
				assert.Len(t, got, 1)
			})

			t.Run("companies", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()

				empty, err := s.Companies(ctx)
				require.NoError(t, err)
				assert.Empty(t, empty)

				_, err = s.Merge(ctx, "Zeta Labs", []domain.URLRecord{rec("https://z.com")})
				require.NoError(t, err)
				_, err = s.Merge(ctx, "Elastic", nil)
				require.NoError(t, err)

				got, err := s.Companies(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"elastic", "zeta_labs"}, got)
			})

			t.Run("concurrent merges lose nothing", func(t *testing.T) {
				s := newStore(t)
				ctx := context.Background()
				const writers = 16

				var wg sync.WaitGroup
				for i := range writers {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := s.Merge(ctx, "Elastic", []domain.URLRecord{
							rec(fmt.Sprintf("https://site%d.com", i)),
							rec("https://shared.com"),
						})
						assert.NoError(t, err)
					}()
				}
				wg.Wait()

				got, err := s.Load(ctx, "Elastic")
				require.NoError(t, err)
				assert.Len(t, got, writers+1)
			})
		})
	}
}

func TestFileStore_Layout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := storage.NewFileStore(root, nil)

	_, err := s.Merge(context.Background(), "Elastic N.V.", []domain.URLRecord{rec("https://a.com/?x=1&y=2")})
	require.NoError(t, err)

	path := filepath.Join(root, "elastic_n_v__urls.json")
	assert.Equal(t, path, s.Path("Elastic N.V."))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[\n  {\n    \"url\": \"https://a.com/?x=1&y=2\",")
	assert.Contains(t, string(data), `"is_first_party": false`)
	assert.Contains(t, string(data), `"is_relevant": true`)

	leftovers, err := filepath.Glob(filepath.Join(root, "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStore_CorruptIsEmpty(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := storage.NewFileStore(root, nil)
	require.NoError(t, os.WriteFile(s.Path("Elastic"), []byte("{not json"), 0o600))

	got, err := s.Load(context.Background(), "Elastic")
	require.NoError(t, err)
	assert.Empty(t, got)

	merged, err := s.Merge(context.Background(), "Elastic", []domain.URLRecord{rec("https://a.com")})
	require.NoError(t, err)
	assert.Len(t, merged, 1)
}

func TestFileStore_NonArrayIsEmpty(t *testing.T) {
	t.Parallel()

	s := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, os.WriteFile(s.Path("Elastic"), []byte(`{"url":"https://a.com"}`), 0o600))

	got, err := s.Load(context.Background(), "Elastic")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_Unwritable(t *testing.T) {
	t.Parallel()

	// A regular file where the root directory should be.
	blocker := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := storage.NewFileStore(blocker, nil)
	_, err := s.Merge(context.Background(), "Elastic", []domain.URLRecord{rec("https://a.com")})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestFileStore_SlashInName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := storage.NewFileStore(root, nil)

	_, err := s.Merge(context.Background(), "AC/DC", []domain.URLRecord{rec("https://acdc.com")})
	require.NoError(t, err)
	assert.Equal(t, root, filepath.Dir(s.Path("AC/DC")))
}

func TestFileStore_NamesSharingAFileMergeSerially(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := storage.NewFileStore(t.TempDir(), nil)
	names := []string{"a/b", "a_b", `a\b`, "A/B"}
	require.Equal(t, s.Path(names[0]), s.Path(names[len(names)-1]))

	const rounds = 20
	var wg sync.WaitGroup
	for i := range rounds {
		for j, name := range names {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Merge(ctx, name, []domain.URLRecord{rec(fmt.Sprintf("https://site%d-%d.com", i, j))})
				assert.NoError(t, err)
			}()
		}
	}
	wg.Wait()

	got, err := s.Load(ctx, "a_b")
	require.NoError(t, err)
	assert.Len(t, got, rounds*len(names))
}

func TestRedisStore_CorruptIsEmpty(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, mr.Set(storage.RedisKeyPrefix+"elastic", "garbage"))

	s := storage.NewRedisStore(client, nil)
	got, err := s.Load(context.Background(), "Elastic")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	s := storage.NewRedisStore(client, nil)
	_, err := s.Merge(context.Background(), "Elastic", []domain.URLRecord{rec("https://a.com")})
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)

	_, err = s.Companies(context.Background())
	require.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestFilter(t *testing.T) {
	t.Parallel()

	records := []domain.URLRecord{
		{URL: "https://a", IsFirstParty: true, IsRelevant: true},
		{URL: "https://b", IsFirstParty: false, IsRelevant: true},
		{URL: "https://c", IsFirstParty: false, IsRelevant: false},
	}
	yes, no := true, false

	assert.Len(t, storage.Filter(records, nil, nil), 3)
	assert.Equal(t, []string{"https://a"}, urls(storage.Filter(records, &yes, nil)))
	assert.Equal(t, []string{"https://b", "https://c"}, urls(storage.Filter(records, &no, nil)))
	assert.Equal(t, []string{"https://b"}, urls(storage.Filter(records, &no, &yes)))
	assert.Equal(t, []string{"https://c"}, urls(storage.Filter(records, nil, &no)))
	assert.NotNil(t, storage.Filter(nil, nil, nil))
}

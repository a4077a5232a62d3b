package favorite_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsreader/internal/domain/entity"
	"newsreader/internal/infra/adapter/persistence/memory"
	"newsreader/internal/repository"
	"newsreader/internal/resilience/retry"
	favUC "newsreader/internal/usecase/favorite"
)

var fastRetry = retry.Config{
	MaxAttempts:  2,
	InitialDelay: time.Millisecond,
	MaxDelay:     time.Millisecond,
	Multiplier:   1,
	ShouldRetry:  retry.UnlessCanceled,
}

func article(path string) entity.Article {
	return entity.Article{
		Title:       "Story " + path,
		URL:         "https://news.example.com/" + path,
		Source:      "Example",
		PublishedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Category:    entity.CategoryTechnology,
	}
}

func seed(t *testing.T, store repository.KeyValueStore, items ...entity.Article) {
	t.Helper()
	raw, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), repository.KeyFavorites, string(raw)))
}

func stored(t *testing.T, store repository.KeyValueStore) []entity.Article {
	t.Helper()
	raw, ok, err := store.Get(context.Background(), repository.KeyFavorites)
	require.NoError(t, err)
	require.True(t, ok, "favorites key missing")
	var items []entity.Article
	require.NoError(t, json.Unmarshal([]byte(raw), &items))
	return items
}

func newService(store repository.KeyValueStore) *favUC.Service {
	return favUC.NewService(store, favUC.WithRetry(fastRetry))
}

/* ───────── Load ───────── */

func TestLoad_Absent(t *testing.T) {
	svc := newService(memory.NewKVStore())

	require.NoError(t, svc.Load(context.Background()))
	assert.Zero(t, svc.Count())
	assert.Empty(t, svc.List())
}

func TestLoad_Malformed(t *testing.T) {
	store := memory.NewKVStore()
	require.NoError(t, store.Set(context.Background(), repository.KeyFavorites, "[{oops"))
	svc := newService(store)

	err := svc.Load(context.Background())

	assert.ErrorIs(t, err, favUC.ErrMalformedSnapshot)
	assert.Zero(t, svc.Count())
}

func TestLoad_StoreFailure(t *testing.T) {
	store := memory.NewKVStore()
	readErr := errors.New("io error")
	store.GetErr = func(string) error { return readErr }
	svc := newService(store)

	err := svc.Load(context.Background())

	assert.ErrorIs(t, err, readErr)
	assert.Zero(t, svc.Count())
}

func TestLoad_DropsDuplicateURLs(t *testing.T) {
	store := memory.NewKVStore()
	a, b := article("a"), article("b")
	dup := a
	dup.Title = "duplicate"
	seed(t, store, a, b, dup)
	svc := newService(store)

	require.NoError(t, svc.Load(context.Background()))

	if diff := cmp.Diff([]entity.Article{a, b}, svc.List()); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

/* ───────── Toggle ───────── */

func TestToggle_RemovesPersistedEntry(t *testing.T) {
	store := memory.NewKVStore()
	a, b := article("a"), article("b")
	seed(t, store, a, b)
	svc := newService(store)
	require.NoError(t, svc.Load(context.Background()))

	res, err := svc.Toggle(context.Background(), entity.Article{URL: a.URL})

	require.NoError(t, err)
	assert.Equal(t, favUC.ToggleResult{Favorited: false, Count: 1}, res)
	assert.Equal(t, []entity.Article{b}, svc.List())
	assert.Equal(t, []entity.Article{b}, stored(t, store))
}

func TestToggle_TwiceRestoresPriorSet(t *testing.T) {
	store := memory.NewKVStore()
	seed(t, store, article("a"), article("b"))
	svc := newService(store)
	require.NoError(t, svc.Load(context.Background()))
	before := svc.List()

	c := article("c")
	res, err := svc.Toggle(context.Background(), c)
	require.NoError(t, err)
	assert.True(t, res.Favorited)
	assert.True(t, svc.IsFavorited(c.URL))

	res, err = svc.Toggle(context.Background(), c)
	require.NoError(t, err)
	assert.False(t, res.Favorited)
	assert.False(t, svc.IsFavorited(c.URL))

	assert.Equal(t, before, svc.List())
	assert.Equal(t, before, stored(t, store))
}

func TestToggle_LazyLoads(t *testing.T) {
	store := memory.NewKVStore()
	seed(t, store, article("a"))
	svc := newService(store)

	res, err := svc.Toggle(context.Background(), article("b"))

	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Len(t, stored(t, store), 2)
}

func TestToggle_InvalidURL(t *testing.T) {
	store := memory.NewKVStore()
	svc := newService(store)

	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "news.example.com/a"},
		{"ftp", "ftp://news.example.com/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Toggle(context.Background(), entity.Article{URL: tt.url})
			assert.ErrorIs(t, err, entity.ErrValidationFailed)
		})
	}
	assert.Zero(t, store.SetCalls())
}

func TestToggle_RetriesLoadAfterReadFailure(t *testing.T) {
	store := memory.NewKVStore()
	a, b, c, d := article("a"), article("b"), article("c"), article("d")
	seed(t, store, a, b, c)
	failures := 1
	store.GetErr = func(string) error {
		if failures > 0 {
			failures--
			return errors.New("io error")
		}
		return nil
	}
	svc := newService(store)
	require.Error(t, svc.Load(context.Background()))
	assert.Zero(t, svc.Count())

	res, err := svc.Toggle(context.Background(), d)

	require.NoError(t, err)
	assert.Equal(t, favUC.ToggleResult{Favorited: true, Count: 4}, res)
	if diff := cmp.Diff([]entity.Article{a, b, c, d}, stored(t, store)); diff != "" {
		t.Errorf("stored favorites mismatch (-want +got):\n%s", diff)
	}
}

func TestToggle_RefusesWhenStoreUnreadable(t *testing.T) {
	store := memory.NewKVStore()
	a, b, c := article("a"), article("b"), article("c")
	seed(t, store, a, b, c)
	store.GetErr = func(string) error { return errors.New("io error") }
	svc := newService(store)
	require.Error(t, svc.Load(context.Background()))
	writes := store.SetCalls()

	res, err := svc.Toggle(context.Background(), article("d"))

	assert.ErrorIs(t, err, favUC.ErrNotLoaded)
	assert.Equal(t, favUC.ToggleResult{}, res)
	assert.Zero(t, svc.Count())
	assert.Equal(t, writes, store.SetCalls(), "nothing written")

	store.GetErr = nil
	assert.Equal(t, []entity.Article{a, b, c}, stored(t, store))
}

func TestToggle_MalformedSnapshotStartsEmpty(t *testing.T) {
	store := memory.NewKVStore()
	require.NoError(t, store.Set(context.Background(), repository.KeyFavorites, "not json"))
	svc := newService(store)

	res, err := svc.Toggle(context.Background(), article("a"))

	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	assert.Equal(t, []entity.Article{article("a")}, stored(t, store))
}

func TestToggle_AddRequiresTitle(t *testing.T) {
	store := memory.NewKVStore()
	svc := newService(store)
	require.NoError(t, svc.Load(context.Background()))

	_, err := svc.Toggle(context.Background(), entity.Article{URL: "https://news.example.com/untitled"})

	var ve *entity.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)
	assert.Zero(t, svc.Count())
	assert.Zero(t, store.SetCalls())
}

func TestToggle_RemovesEntryWithNonHTTPURL(t *testing.T) {
	store := memory.NewKVStore()
	legacy := entity.Article{Title: "Old bookmark", URL: "ftp://archive.example.com/a"}
	seed(t, store, legacy, article("b"))
	svc := newService(store)
	require.NoError(t, svc.Load(context.Background()))

	res, err := svc.Toggle(context.Background(), entity.Article{URL: legacy.URL})

	require.NoError(t, err)
	assert.False(t, res.Favorited)
	assert.Equal(t, []entity.Article{article("b")}, stored(t, store))
}

func TestToggle_PersistFailureKeepsMemoryState(t *testing.T) {
	store := memory.NewKVStore()
	store.SetErr = func(string) error { return errors.New("disk full") }
	svc := newService(store)
	require.NoError(t, svc.Load(context.Background()))

	a := article("a")
	res, err := svc.Toggle(context.Background(), a)

	assert.ErrorIs(t, err, favUC.ErrNotPersisted)
	assert.True(t, res.Favorited)
	assert.True(t, svc.IsFavorited(a.URL))
	assert.Equal(t, fastRetry.MaxAttempts, store.SetCalls())
}

func TestToggle_ConcurrentDistinctURLs(t *testing.T) {
	store := memory.NewKVStore()
	svc := newService(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Toggle(context.Background(), article(fmt.Sprintf("n%d", i)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, svc.Count())
	assert.Len(t, stored(t, store), 20, "last write carries every toggle")
}

/* ───────── reads ───────── */

func TestGetAndIsFavorited(t *testing.T) {
	store := memory.NewKVStore()
	a := article("a")
	seed(t, store, a)
	svc := newService(store)
	require.NoError(t, svc.Load(context.Background()))

	got, ok := svc.Get(a.URL)
	require.True(t, ok)
	assert.Equal(t, a, got)
	assert.True(t, svc.IsFavorited(a.URL))
	assert.False(t, svc.IsFavorited("https://news.example.com/zzz"))
}

func TestListReturnsCopy(t *testing.T) {
	store := memory.NewKVStore()
	seed(t, store, article("a"))
	svc := newService(store)
	require.NoError(t, svc.Load(context.Background()))

	l := svc.List()
	l[0].Title = "changed"

	assert.Equal(t, "Story a", svc.List()[0].Title)
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsreader/internal/app"
	"newsreader/internal/config"
	"newsreader/internal/domain/entity"
	"newsreader/internal/infra/adapter/persistence/memory"
	"newsreader/internal/repository"
	"newsreader/internal/usecase/favorite"
)

type stubSource struct {
	err error
}

func (s stubSource) FetchCategory(_ context.Context, c entity.Category) ([]entity.Article, error) {
	if s.err != nil {
		return nil, s.err
	}
	day := 1
	if c == entity.CategoryHealth {
		day = 2
	}
	return []entity.Article{
		{
			Title:       "Go 1.26 released in " + string(c),
			URL:         "https://example.com/" + string(c) + "/go",
			ImageURL:    "https://example.com/go.png",
			Source:      "Example",
			PublishedAt: time.Date(2026, 5, day, 9, 0, 0, 0, time.UTC),
		},
		{
			Title:       "Text only " + string(c),
			URL:         "https://example.com/" + string(c) + "/text",
			Source:      "Example",
			PublishedAt: time.Date(2026, 4, day, 9, 0, 0, 0, time.UTC),
		},
	}, nil
}

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.PathEnv, "")
	t.Setenv("NEWS_SOURCE", config.SourceRSS)
	t.Setenv("NEWS_CATEGORIES", "technology,health")
	t.Setenv("STORAGE_TYPE", config.StorageMemory)
	t.Setenv("CONNECTIVITY_MODE", config.ConnectivityOnline)
	t.Setenv("CONTENT_FETCH_ENABLED", "false")
}

func run(t *testing.T, opts []app.Option, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(opts...)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

/* ───────── version ───────── */

func TestVersion(t *testing.T) {
	out, _, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "newsctl dev")
}

/* ───────── refresh / list ───────── */

func TestRefresh(t *testing.T) {
	setEnv(t)
	store := memory.NewKVStore()
	opts := []app.Option{app.WithStore(store), app.WithSource(stubSource{})}

	out, _, err := run(t, opts, "refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "fresh: 4 articles from network")

	_, ok, err := store.Get(context.Background(), repository.KeyCachedNews)
	require.NoError(t, err)
	assert.True(t, ok, "refresh saves a snapshot")
}

func TestRefresh_JSON(t *testing.T) {
	setEnv(t)
	opts := []app.Option{app.WithStore(memory.NewKVStore()), app.WithSource(stubSource{})}

	out, _, err := run(t, opts, "refresh", "--json")
	require.NoError(t, err)

	var got struct {
		Status   string `json:"status"`
		Origin   string `json:"origin"`
		Articles int    `json:"articles"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "fresh", got.Status)
	assert.Equal(t, "network", got.Origin)
	assert.Equal(t, 4, got.Articles)
}

func TestList(t *testing.T) {
	setEnv(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name:    "images only by default",
			args:    []string{"list"},
			want:    []string{"Go 1.26 released in technology", "Go 1.26 released in health"},
			notWant: []string{"Text only"},
		},
		{
			name: "all images",
			args: []string{"list", "--all-images"},
			want: []string{"Text only technology", "Text only health"},
		},
		{
			name:    "category",
			args:    []string{"list", "--category", "Health"},
			want:    []string{"Go 1.26 released in health"},
			notWant: []string{"in technology"},
		},
		{
			name:    "search",
			args:    []string{"list", "--all-images", "-s", "TEXT ONLY TECH"},
			want:    []string{"Text only technology"},
			notWant: []string{"Go 1.26", "Text only health"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := []app.Option{app.WithStore(memory.NewKVStore()), app.WithSource(stubSource{})}
			out, _, err := run(t, opts, tt.args...)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out, nw)
			}
		})
	}
}

func TestList_UnknownCategory(t *testing.T) {
	setEnv(t)
	_, _, err := run(t, nil, "list", "--category", "weather")
	assert.Error(t, err)
}

func TestList_OfflineServesSnapshot(t *testing.T) {
	setEnv(t)
	store := memory.NewKVStore()

	_, _, err := run(t, []app.Option{app.WithStore(store), app.WithSource(stubSource{})}, "refresh")
	require.NoError(t, err)

	failing := stubSource{err: errors.New("network down")}
	out, _, err := run(t, []app.Option{app.WithStore(store), app.WithSource(failing)}, "list", "--offline", "--json")
	require.NoError(t, err)

	var items []listItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "https://example.com/health/go", items[0].URL, "newest first")
}

func TestList_Empty(t *testing.T) {
	setEnv(t)
	opts := []app.Option{app.WithStore(memory.NewKVStore()), app.WithSource(stubSource{})}

	out, _, err := run(t, opts, "list", "--offline")
	require.NoError(t, err)
	assert.Contains(t, out, "no articles (empty, offline)")
}

/* ───────── show ───────── */

func TestShow(t *testing.T) {
	setEnv(t)
	opts := []app.Option{app.WithStore(memory.NewKVStore()), app.WithSource(stubSource{})}

	out, _, err := run(t, opts, "show", "https://example.com/health/go")
	require.NoError(t, err)
	assert.Contains(t, out, "Go 1.26 released in health")
	assert.Contains(t, out, "https://example.com/health/go")

	_, _, err = run(t, opts, "show", "https://example.com/missing")
	assert.ErrorIs(t, err, errNotFound)

	_, _, err = run(t, opts, "show", "not a url")
	assert.Error(t, err)
}

/* ───────── favorites ───────── */

func TestFavorites_ToggleCheckList(t *testing.T) {
	setEnv(t)
	store := memory.NewKVStore()
	opts := []app.Option{app.WithStore(store), app.WithSource(stubSource{})}
	url := "https://example.com/technology/go"

	out, _, err := run(t, opts, "favorites", "toggle", url)
	require.NoError(t, err)
	assert.Contains(t, out, "added to favorites (1 saved)")

	out, _, err = run(t, opts, "fav", "check", url)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, _, err = run(t, opts, "favorites", "list", "--json")
	require.NoError(t, err)
	var favs []entity.Article
	require.NoError(t, json.Unmarshal([]byte(out), &favs))
	require.Len(t, favs, 1)
	assert.Equal(t, "Go 1.26 released in technology", favs[0].Title, "saved from the news cache")

	out, _, err = run(t, opts, "favorites", "toggle", url)
	require.NoError(t, err)
	assert.Contains(t, out, "removed from favorites (0 saved)")

	out, _, err = run(t, opts, "favorites", "list")
	require.NoError(t, err)
	assert.Equal(t, "no favorites\n", out)
}

func TestFavorites_ToggleUnknownURLUsesTitleFlag(t *testing.T) {
	setEnv(t)
	opts := []app.Option{app.WithStore(memory.NewKVStore()), app.WithSource(stubSource{})}

	_, _, err := run(t, opts, "--offline", "favorites", "toggle", "https://blog.example.org/post", "--title", "A post")
	require.NoError(t, err)

	out, _, err := run(t, opts, "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "A post")
}

func TestFavorites_ToggleNotPersisted(t *testing.T) {
	setEnv(t)
	store := memory.NewKVStore()
	store.SetErr = func(string) error { return errors.New("disk full") }
	opts := []app.Option{app.WithStore(store), app.WithSource(stubSource{})}

	_, _, err := run(t, opts, "--offline", "favorites", "toggle", "https://example.com/a", "--title", "A")
	assert.ErrorIs(t, err, favorite.ErrNotPersisted)
}

func TestFavorites_MalformedSnapshotStartsEmpty(t *testing.T) {
	setEnv(t)
	store := memory.NewKVStore()
	require.NoError(t, store.Set(context.Background(), repository.KeyFavorites, "{not json"))
	opts := []app.Option{app.WithStore(store), app.WithSource(stubSource{})}

	out, stderr, err := run(t, opts, "--offline", "favorites", "toggle", "https://blog.example.org/post", "--title", "A post")
	require.NoError(t, err)
	assert.Contains(t, out, "added to favorites (1 saved)")
	assert.Contains(t, stderr, "malformed")

	require.NoError(t, store.Set(context.Background(), repository.KeyFavorites, "{not json"))
	out, _, err = run(t, opts, "favorites", "list")
	require.NoError(t, err)
	assert.Equal(t, "no favorites\n", out)
}

func TestFavorites_UnreadableStoreAborts(t *testing.T) {
	setEnv(t)
	store := memory.NewKVStore()
	readErr := errors.New("io error")
	store.GetErr = func(key string) error {
		if key == repository.KeyFavorites {
			return readErr
		}
		return nil
	}
	opts := []app.Option{app.WithStore(store), app.WithSource(stubSource{})}

	_, _, err := run(t, opts, "--offline", "favorites", "toggle", "https://blog.example.org/post", "--title", "A post")
	assert.ErrorIs(t, err, readErr)
	assert.Zero(t, store.SetCalls())
}

/* ───────── status / cache ───────── */

func TestStatus(t *testing.T) {
	setEnv(t)

	out, _, err := run(t, []app.Option{app.WithStore(memory.NewKVStore())}, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "online")

	out, _, err = run(t, []app.Option{app.WithStore(memory.NewKVStore())}, "status", "--offline", "--json")
	require.NoError(t, err)
	var v statusView
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, "offline", v.Connectivity)
}

func TestCacheClear(t *testing.T) {
	setEnv(t)
	store := memory.NewKVStore()
	opts := []app.Option{app.WithStore(store), app.WithSource(stubSource{})}

	_, _, err := run(t, opts, "refresh")
	require.NoError(t, err)
	_, _, err = run(t, opts, "favorites", "toggle", "https://example.com/technology/go")
	require.NoError(t, err)

	out, _, err := run(t, opts, "cache", "clear")
	require.NoError(t, err)
	assert.Equal(t, "news cache cleared\n", out)

	_, ok, err := store.Get(context.Background(), repository.KeyCachedNews)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = store.Get(context.Background(), repository.KeyFavorites)
	require.NoError(t, err)
	assert.True(t, ok, "favorites survive a cache clear")
}

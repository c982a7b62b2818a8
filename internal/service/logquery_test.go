package service

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"playlist-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore remembers which store method served the last call.
type recordingStore struct {
	called string
	filter domain.LogFilter
	order  domain.LogSort
	page   domain.Page
	limit  int
	err    error
}

func (s *recordingStore) List(_ context.Context, filter domain.LogFilter, order domain.LogSort, page domain.Page) ([]domain.LogRecord, error) {
	s.called, s.filter, s.order, s.page = "List", filter, order, page
	return nil, s.err
}

func (s *recordingStore) ListByActor(_ context.Context, _ string, page domain.Page) ([]domain.LogRecord, error) {
	s.called, s.page = "ListByActor", page
	return []domain.LogRecord{{ID: "a"}}, s.err
}

func (s *recordingStore) ListByEntity(_ context.Context, _ domain.EntityKind, _ string, limit int) ([]domain.LogRecord, error) {
	s.called, s.limit = "ListByEntity", limit
	return []domain.LogRecord{{ID: "e"}}, s.err
}

func (s *recordingStore) Count(_ context.Context, filter domain.LogFilter) (int, error) {
	s.called, s.filter = "Count", filter
	return 3, s.err
}

func (s *recordingStore) CountByActor(context.Context, string) (int, error) {
	s.called = "CountByActor"
	return 2, s.err
}

func (s *recordingStore) CountByEntity(context.Context, domain.EntityKind, string) (int, error) {
	s.called = "CountByEntity"
	return 1, s.err
}

func query(kv ...string) domain.LogQuery {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return domain.ParseLogQuery(v)
}

func TestLogQuery_Precedence(t *testing.T) {
	cases := []struct {
		name   string
		q      domain.LogQuery
		called string
	}{
		{"metadata beats everything", query("metadata", "true", "countOnly", "true", "userId", "u"), ""},
		{"count by entity", query("countOnly", "true", "entityType", "SONG", "entityId", "s", "userId", "u"), "CountByEntity"},
		{"count by actor", query("countOnly", "true", "userId", "u", "entityId", "s"), "CountByActor"},
		{"count filtered", query("countOnly", "true", "actionType", "READ"), "Count"},
		{"entity listing", query("entityType", "PLAYLIST", "entityId", "p", "userId", "u"), "ListByEntity"},
		{"actor listing", query("userId", "u", "entityType", "PLAYLIST"), "ListByActor"},
		{"general listing", query("entityType", "PLAYLIST"), "List"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &recordingStore{}
			_, err := NewLogQueryService(store, domain.UserSortByID).Query(context.Background(), tc.q)
			require.NoError(t, err)
			assert.Equal(t, tc.called, store.called)
		})
	}
}

func TestLogQuery_Results(t *testing.T) {
	ctx := context.Background()
	svc := NewLogQueryService(&recordingStore{}, domain.UserSortByID)

	res, err := svc.Query(ctx, query("metadata", "true"))
	require.NoError(t, err)
	require.NotNil(t, res.Metadata)
	assert.Len(t, res.Metadata.ActionTypes, 4)
	assert.Nil(t, res.Count)

	res, err = svc.Query(ctx, query("countOnly", "true"))
	require.NoError(t, err)
	require.NotNil(t, res.Count)
	assert.Equal(t, 3, *res.Count)

	res, err = svc.Query(ctx, query())
	require.NoError(t, err)
	assert.NotNil(t, res.Records, "an empty listing is an empty slice")
	assert.Empty(t, res.Records)
}

func TestLogQuery_PassesParametersThrough(t *testing.T) {
	store := &recordingStore{}
	svc := NewLogQueryService(store, domain.UserSortByName)

	_, err := svc.Query(context.Background(), query(
		"limit", "5000", "offset", "20", "entityType", "SONG", "actionType", "bogus",
		"sortField", "user", "sortDirection", "asc",
	))
	require.NoError(t, err)

	assert.Equal(t, domain.Page{Limit: 5000, Offset: 20}, store.page)
	require.NotNil(t, store.filter.EntityKind)
	assert.Equal(t, domain.EntitySong, *store.filter.EntityKind)
	assert.Nil(t, store.filter.ActionKind, "unknown action types do not filter")
	assert.Equal(t, domain.LogSort{Field: domain.SortByUser, Direction: domain.SortAsc, UserMode: domain.UserSortByName}, store.order)

	_, err = svc.Query(context.Background(), query("entityType", "SONG", "entityId", "s", "limit", "7", "offset", "3"))
	require.NoError(t, err)
	assert.Equal(t, 7, store.limit, "entity listings take a limit but no offset")
}

func TestLogQuery_StoreErrorsSurface(t *testing.T) {
	boom := errors.New("db down")
	svc := NewLogQueryService(&recordingStore{err: boom}, domain.UserSortByID)

	for _, q := range []domain.LogQuery{query(), query("countOnly", "true"), query("userId", "u"), query("entityType", "USER", "entityId", "x")} {
		res, err := svc.Query(context.Background(), q)
		assert.ErrorIs(t, err, boom)
		assert.Nil(t, res.Records)
		assert.Nil(t, res.Count)
	}
}

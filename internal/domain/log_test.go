package domain

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogQuery_Defaults(t *testing.T) {
	q := ParseLogQuery(url.Values{})

	assert.Equal(t, Page{Limit: 100, Offset: 0}, q.Page)
	assert.Equal(t, SortByTimestamp, q.Sort.Field)
	assert.Equal(t, SortDesc, q.Sort.Direction)
	assert.Nil(t, q.EntityKind)
	assert.Nil(t, q.ActionKind)
	assert.False(t, q.CountOnly)
	assert.False(t, q.Metadata)
	assert.False(t, q.EntityScoped())
}

func TestParseLogQuery_AllParameters(t *testing.T) {
	v := url.Values{}
	v.Set("limit", "25")
	v.Set("offset", "50")
	v.Set("userId", "u-1")
	v.Set("entityType", "SONG")
	v.Set("actionType", "DELETE")
	v.Set("entityId", "s-9")
	v.Set("countOnly", "true")
	v.Set("metadata", "true")
	v.Set("sortField", "actionType")
	v.Set("sortDirection", "asc")

	q := ParseLogQuery(v)

	assert.Equal(t, Page{Limit: 25, Offset: 50}, q.Page)
	assert.Equal(t, "u-1", q.UserID)
	require.NotNil(t, q.EntityKind)
	assert.Equal(t, EntitySong, *q.EntityKind)
	require.NotNil(t, q.ActionKind)
	assert.Equal(t, ActionDelete, *q.ActionKind)
	assert.Equal(t, "s-9", q.EntityID)
	assert.True(t, q.CountOnly)
	assert.True(t, q.Metadata)
	assert.Equal(t, SortByActionType, q.Sort.Field)
	assert.Equal(t, SortAsc, q.Sort.Direction)
	assert.True(t, q.EntityScoped())
}

func TestParseLogQuery_ExplicitLimits(t *testing.T) {
	for raw, want := range map[string]int{"0": 0, "-5": 0, "5000": 5000} {
		q := ParseLogQuery(url.Values{"limit": {raw}})
		assert.Equal(t, want, q.Page.Limit, "limit=%s", raw)
	}
}

func TestParseLogQuery_UnknownValuesAreIgnored(t *testing.T) {
	v := url.Values{}
	v.Set("limit", "lots")
	v.Set("offset", "-4")
	v.Set("entityType", "ALBUM")
	v.Set("actionType", "purge")
	v.Set("sortField", "detail")
	v.Set("sortDirection", "sideways")
	v.Set("entityId", "p-1")

	q := ParseLogQuery(v)

	assert.Equal(t, Page{Limit: DefaultLogLimit, Offset: 0}, q.Page)
	assert.Nil(t, q.EntityKind)
	assert.Nil(t, q.ActionKind)
	assert.Equal(t, SortByTimestamp, q.Sort.Field)
	assert.Equal(t, SortDesc, q.Sort.Direction)
	assert.False(t, q.EntityScoped(), "entityId without a valid entityType is not entity scoped")
}

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Limit: 0}, Page{Limit: 0}.Normalize())
	assert.Equal(t, Page{Limit: 0}, Page{Limit: -3}.Normalize())
	assert.Equal(t, Page{Limit: 5000}, Page{Limit: 5000}.Normalize(), "large limits are not capped")
	assert.Equal(t, Page{Limit: 5, Offset: 0}, Page{Limit: 5, Offset: -1}.Normalize())
	assert.Equal(t, Page{Limit: 5, Offset: 7}, Page{Limit: 5, Offset: 7}.Normalize())
}

func TestLogRecordActorLabel(t *testing.T) {
	anon := LogRecord{Actor: &ActorSnapshot{Name: "ghost"}}
	assert.Equal(t, "Anonymous", anon.ActorLabel(), "a null actor never shows a snapshot")

	id := "u-1"
	named := LogRecord{ActorID: &id, Actor: &ActorSnapshot{ID: id, Name: "Ada", Email: "ada@example.com"}}
	assert.Equal(t, "Ada", named.ActorLabel())

	emailOnly := LogRecord{ActorID: &id, Actor: &ActorSnapshot{ID: id, Email: "ada@example.com"}}
	assert.Equal(t, "ada@example.com", emailOnly.ActorLabel())

	deleted := LogRecord{ActorID: &id}
	assert.Equal(t, "Unknown", deleted.ActorLabel())
}

func TestEnumerationsAreClosed(t *testing.T) {
	m := NewLogMetadata()
	assert.Equal(t, []ActionKind{ActionCreate, ActionRead, ActionUpdate, ActionDelete}, m.ActionTypes)
	assert.Equal(t, []EntityKind{EntityPlaylist, EntitySong, EntityUser}, m.EntityTypes)

	_, ok := ParseActionKind("create")
	assert.False(t, ok, "action kinds are case sensitive")
	k, ok := ParseEntityKind("USER")
	assert.True(t, ok)
	assert.Equal(t, EntityUser, k)
}

func TestDetectorParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultDetectorParams().Validate())

	cases := []DetectorParams{
		{ScanRange: 0, BurstSize: 30, Window: DefaultWindow},
		{ScanRange: DefaultScanRange, BurstSize: 0, Window: DefaultWindow},
		{ScanRange: DefaultScanRange, BurstSize: 30, Window: 0},
	}
	for _, p := range cases {
		assert.ErrorIs(t, p.Validate(), ErrInvalidDetectorParams)
	}
}

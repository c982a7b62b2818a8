package repository

import (
	"context"
	"testing"

	"playlist-service/internal/domain"
	"playlist-service/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newPlaylistRepo(t *testing.T) (*sqlPlaylistRepository, *domain.User) {
	t.Helper()
	db := storagetest.NewDB(t)
	owner := createUser(t, NewUserRepository(db), "owner@example.com", "Owner", domain.RoleUser)
	return NewPlaylistRepository(db), owner
}

func createPlaylist(t *testing.T, repo *sqlPlaylistRepository, owner *domain.User, name, description string, songs ...string) *domain.Playlist {
	t.Helper()
	p := &domain.Playlist{OwnerID: owner.IDPtr(), Name: name, Description: description}
	for _, title := range songs {
		p.Songs = append(p.Songs, domain.Song{Title: title, Artist: "Artist", Duration: 180})
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func songTitles(p *domain.Playlist) []string {
	out := make([]string, 0, len(p.Songs))
	for _, s := range p.Songs {
		out = append(out, s.Title)
	}
	return out
}

func TestPlaylistRepository_CreateAndGet(t *testing.T) {
	repo, owner := newPlaylistRepo(t)
	created := createPlaylist(t, repo, owner, "Road Trip", "for the car", "One", "Two", "Three")

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Road Trip", got.Name)
	assert.Equal(t, owner.ID, *got.OwnerID)
	assert.Equal(t, 3, got.SongCount)
	assert.Equal(t, []string{"One", "Two", "Three"}, songTitles(got))
	assert.Equal(t, 180, got.Songs[0].Duration)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)
}

func TestPlaylistRepository_ListSearchSortAndPage(t *testing.T) {
	ctx := context.Background()
	repo, owner := newPlaylistRepo(t)
	createPlaylist(t, repo, owner, "Road Trip", "Songs for the car", "a", "b")
	createPlaylist(t, repo, owner, "chill", "Late night lofi", "a")
	createPlaylist(t, repo, owner, "Workout", "No ROAD noise 100%", "a", "b", "c")

	n, err := repo.Count(ctx, domain.ViewFilter{Query: "road"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	alpha, err := repo.List(ctx, domain.PlaylistQuery{Sort: domain.PlaylistSortAlphabetical})
	require.NoError(t, err)
	names := []string{}
	for _, p := range alpha {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"chill", "Road Trip", "Workout"}, names)

	most, err := repo.List(ctx, domain.PlaylistQuery{Sort: domain.PlaylistSortSongCountDesc, Page: domain.PageRequest{Number: 1, Size: 1}})
	require.NoError(t, err)
	require.Len(t, most, 1)
	assert.Equal(t, "Workout", most[0].Name)
	assert.Len(t, most[0].Songs, 3)

	literal, err := repo.List(ctx, domain.PlaylistQuery{Filter: domain.ViewFilter{Query: "100%"}})
	require.NoError(t, err)
	require.Len(t, literal, 1, "wildcards in the query match literally")
	assert.Equal(t, "Workout", literal[0].Name)

	beyond, err := repo.List(ctx, domain.PlaylistQuery{Page: domain.PageRequest{Number: 9, Size: 10}})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestPlaylistRepository_UpdateReconcilesSongs(t *testing.T) {
	ctx := context.Background()
	repo, owner := newPlaylistRepo(t)
	p := createPlaylist(t, repo, owner, "Mix", "desc", "Keep", "Drop")
	keep, drop := p.Songs[0], p.Songs[1]

	p.Name = "Mix v2"
	songs := []domain.SongInput{
		{Title: "Brand New", Artist: "X"},
		{ID: keep.ID, Title: "Keep (remaster)", Artist: "Artist", Duration: intPtr(200)},
		{ID: "not-a-real-id", Title: "Also New", Artist: "Y"},
	}
	require.NoError(t, repo.Update(ctx, p, &songs))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mix v2", got.Name)
	assert.Equal(t, 3, got.SongCount)
	assert.Equal(t, []string{"Brand New", "Keep (remaster)", "Also New"}, songTitles(got))
	assert.Equal(t, keep.ID, got.Songs[1].ID)
	assert.Equal(t, 200, got.Songs[1].Duration)
	assert.NotEqual(t, "not-a-real-id", got.Songs[2].ID)

	_, err = repo.GetSong(ctx, p.ID, drop.ID)
	assert.ErrorIs(t, err, domain.ErrSongNotFound)
}

func TestPlaylistRepository_UpdateWithoutSongsKeepsThem(t *testing.T) {
	ctx := context.Background()
	repo, owner := newPlaylistRepo(t)
	p := createPlaylist(t, repo, owner, "Mix", "desc", "One")

	p.Description = "changed"
	require.NoError(t, repo.Update(ctx, p, nil))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Description)
	assert.Equal(t, []string{"One"}, songTitles(got))

	missing := &domain.Playlist{ID: "missing", Name: "x", Description: "y"}
	assert.ErrorIs(t, repo.Update(ctx, missing, nil), domain.ErrPlaylistNotFound)
}

func TestPlaylistRepository_SongLifecycle(t *testing.T) {
	ctx := context.Background()
	repo, owner := newPlaylistRepo(t)
	p := createPlaylist(t, repo, owner, "Mix", "desc", "One")

	song := &domain.Song{Title: "Two", Artist: "B", Album: "Album"}
	require.NoError(t, repo.AddSong(ctx, p.ID, song))
	assert.NotEmpty(t, song.ID)

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.SongCount)
	assert.Equal(t, []string{"One", "Two"}, songTitles(got))

	stored, err := repo.GetSong(ctx, p.ID, song.ID)
	require.NoError(t, err)
	assert.Equal(t, "Album", stored.Album)

	stored.Title = "Two (live)"
	require.NoError(t, repo.UpdateSong(ctx, stored))
	again, err := repo.GetSong(ctx, p.ID, song.ID)
	require.NoError(t, err)
	assert.Equal(t, "Two (live)", again.Title)

	require.NoError(t, repo.DeleteSong(ctx, p.ID, song.ID))
	assert.ErrorIs(t, repo.DeleteSong(ctx, p.ID, song.ID), domain.ErrSongNotFound)

	got, err = repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SongCount)

	assert.ErrorIs(t, repo.AddSong(ctx, "missing", &domain.Song{Title: "t", Artist: "a"}), domain.ErrPlaylistNotFound)
}

func TestPlaylistRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo, owner := newPlaylistRepo(t)
	p := createPlaylist(t, repo, owner, "Mix", "desc", "One", "Two")

	require.NoError(t, repo.Delete(ctx, p.ID))
	_, err := repo.GetByID(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrPlaylistNotFound)
	_, err = repo.GetSong(ctx, p.ID, p.Songs[0].ID)
	assert.ErrorIs(t, err, domain.ErrSongNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, p.ID), domain.ErrPlaylistNotFound)
}

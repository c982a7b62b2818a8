package domain

import (
	"sort"
	"strings"
)

// ApplyViewTransform filters, sorts and pages an in-memory playlist slice with
// the same rules the playlist listing uses: case-insensitive substring search
// on name and description, the PlaylistSort orderings (default: most recently
// updated first) and one-based pages. It returns the requested page and the
// number of playlists that matched the filter. The input slice is not
// modified; ties keep their input order.
func ApplyViewTransform(playlists []Playlist, filter ViewFilter, order PlaylistSort, page PageRequest) ([]Playlist, int) {
	results := make([]Playlist, 0, len(playlists))

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	for _, p := range playlists {
		if query == "" ||
			strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Description), query) {
			results = append(results, p)
		}
	}

	switch order {
	case PlaylistSortAlphabetical:
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Name) < strings.ToLower(results[j].Name)
		})
	case PlaylistSortSongCountDesc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].SongCount > results[j].SongCount
		})
	case PlaylistSortSongCountAsc:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].SongCount < results[j].SongCount
		})
	default:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].UpdatedAt.After(results[j].UpdatedAt)
		})
	}

	total := len(results)
	page = page.Normalize()
	start := page.Offset()
	if start >= total {
		return []Playlist{}, total
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return results[start:end], total
}

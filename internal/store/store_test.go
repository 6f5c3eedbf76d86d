package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpenIsIdempotent(t *testing.T) {
	s, path := openTestStore(t)
	_, err := s.Upsert(context.Background(), "https://example.org/d/1", "Jan 1, 2013", "https://example.org/f/1.pdf", 2013)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening must keep existing rows and not recreate the schema.
	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Count(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestUpsertFlagsEveryReinsert(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	const page = "https://example.org/d/1"

	dup, err := s.Upsert(ctx, page, "Jan 1, 2013", "https://example.org/f/1.pdf", 2013)
	require.NoError(t, err)
	require.False(t, dup)

	rec, err := s.Get(ctx, page)
	require.NoError(t, err)
	require.Equal(t, "No", rec.Duplicate)

	// Identical payload still flips the flag.
	dup, err = s.Upsert(ctx, page, "Jan 1, 2013", "https://example.org/f/1.pdf", 2013)
	require.NoError(t, err)
	require.True(t, dup)

	rec, err = s.Get(ctx, page)
	require.NoError(t, err)
	require.Equal(t, "Yes", rec.Duplicate)

	// Third insert stays flagged; exactly one row exists throughout.
	dup, err = s.Upsert(ctx, page, "Jan 1, 2013", "https://example.org/f/1.pdf", 2013)
	require.NoError(t, err)
	require.True(t, dup)

	n, err := s.Count(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestUpsertLastWriteWinsAcrossYears(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	const page = "https://example.org/d/1"

	_, err := s.Upsert(ctx, page, "Jan 1, 2013", "https://example.org/f/1.pdf", 2013)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, page, "Jan 1, 2013", "https://example.org/f/1.pdf", 2014)
	require.NoError(t, err)

	rec, err := s.Get(ctx, page)
	require.NoError(t, err)
	require.Equal(t, "Yes", rec.Duplicate)
	require.True(t, rec.DiscoveryYear.Valid)
	require.EqualValues(t, 2014, rec.DiscoveryYear.Int64)
}

func TestGetMissingRowIsNil(t *testing.T) {
	s, _ := openTestStore(t)
	rec, err := s.Get(context.Background(), "https://example.org/absent")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestCountByYear(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for i, year := range []int{2013, 2013, 2014} {
		_, err := s.Upsert(ctx,
			"https://example.org/d/"+string(rune('a'+i)),
			"date", "https://example.org/f.pdf", year)
		require.NoError(t, err)
	}

	year := 2013
	n, err := s.Count(ctx, &year)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestDownloadableFiltersAndSorts(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, "https://example.org/d/late", "d", "https://example.org/f/late.pdf", 2015)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, "https://example.org/d/early", "d", "https://example.org/f/early.pdf", 2013)
	require.NoError(t, err)
	// No PDF link: never downloadable.
	_, err = s.Upsert(ctx, "https://example.org/d/nolink", "d", "", 2013)
	require.NoError(t, err)
	// Re-insert flags the late row as a duplicate.
	_, err = s.Upsert(ctx, "https://example.org/d/late", "d", "https://example.org/f/late.pdf", 2015)
	require.NoError(t, err)

	rows, err := s.Downloadable(ctx, false)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "https://example.org/f/early.pdf", rows[0].PDFURL)

	rows, err = s.Downloadable(ctx, true)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "https://example.org/f/early.pdf", rows[0].PDFURL, "2013 sorts before 2015")
	require.Equal(t, "https://example.org/f/late.pdf", rows[1].PDFURL)
}

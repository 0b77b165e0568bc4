package sqlite_test

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarimov/petal"
	"github.com/dkarimov/petal/database/sqlite"

	_ "modernc.org/sqlite" // SQLite driver
)

func getRandomString(t *testing.T) string {
	t.Helper()
	n, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	assert.NoError(t, err, "random string")
	return fmt.Sprintf("test%x", n.Int64())
}

// setupTestRepo creates a repo over an in-memory database with unique
// table names for test isolation.
func setupTestRepo(t *testing.T) (*sqlite.Repo, func()) {
	t.Helper()

	ctx := context.Background()

	suffix := getRandomString(t)
	tables := petal.Tables{
		Photos: fmt.Sprintf("photos_%s", suffix),
		Users:  fmt.Sprintf("users_%s", suffix),
	}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "failed to open")

	err = sqlite.Migrate(ctx, db, tables, "danial", "albina")
	require.NoError(t, err, "failed to migrate")

	repo, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err, "failed to create repo")

	cleanup := func() {
		_ = db.Close()
	}

	return repo, cleanup
}

func TestRepo_CreateAndList(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	created, err := repo.Create(ctx, petal.CreatePhoto{
		Title:     "Beach Day",
		Date:      "2024-06-01",
		Time:      "14:30",
		ImageData: "data:image/jpeg;base64,/9j/4AAQ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Beach Day", created.Title)
	assert.Equal(t, "2024-06-01", created.Date)
	assert.Equal(t, "14:30", created.Time)
	assert.Equal(t, "data:image/jpeg;base64,/9j/4AAQ", created.Image)
	assert.False(t, created.CreatedAt.IsZero())

	photos, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, created.ID, photos[0].ID)
	assert.Equal(t, created.Title, photos[0].Title)
}

func TestRepo_ListEmpty(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	photos, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, photos)
	assert.Empty(t, photos)
}

func TestRepo_ListOrdersNewestFirst(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	titles := []string{"first", "second", "third"}
	for _, title := range titles {
		_, err := repo.Create(ctx, petal.CreatePhoto{
			Title:     title,
			Date:      "2024-06-01",
			Time:      "08:00",
			ImageData: "data",
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	photos, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, photos, 3)

	assert.Equal(t, "third", photos[0].Title)
	assert.Equal(t, "second", photos[1].Title)
	assert.Equal(t, "first", photos[2].Title)
}

func TestRepo_ListOrdersSubsecondTimestamps(t *testing.T) {
	ctx := context.Background()

	suffix := getRandomString(t)
	tables := petal.Tables{
		Photos: fmt.Sprintf("photos_%s", suffix),
		Users:  fmt.Sprintf("users_%s", suffix),
	}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, sqlite.Migrate(ctx, db, tables, "", ""))

	repo, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err)

	// Stored timestamps are fixed-width text, so a whole-second value
	// must sort before one half a second later even though the latter's
	// trimmed RFC3339Nano form would compare the other way.
	insert := fmt.Sprintf(`
		INSERT INTO %q (id, title, photo_date, photo_time, image_data, created_at)
		VALUES (?, ?, '2024-06-01', '10:00', 'data', ?)
	`, tables.Photos)

	_, err = db.ExecContext(ctx, insert, "id-whole", "whole second", "2024-06-01T10:00:00.000000000Z")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "id-half", "half second later", "2024-06-01T10:00:00.500000000Z")
	require.NoError(t, err)

	photos, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, photos, 2)

	assert.Equal(t, "id-half", photos[0].ID)
	assert.Equal(t, "id-whole", photos[1].ID)
	assert.True(t, photos[0].CreatedAt.After(photos[1].CreatedAt))
}

func TestRepo_Delete(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	created, err := repo.Create(ctx, petal.CreatePhoto{
		Title:     "Sunset",
		Date:      "2024-06-02",
		Time:      "19:45",
		ImageData: "data",
	})
	require.NoError(t, err)

	err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	photos, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestRepo_DeleteNotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	err := repo.Delete(context.Background(), "nonexistent-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, petal.ErrNotFound)
}

func TestRepo_DeleteTwice(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	created, err := repo.Create(ctx, petal.CreatePhoto{
		Title:     "Once",
		Date:      "2024-06-03",
		Time:      "10:00",
		ImageData: "data",
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	err = repo.Delete(ctx, created.ID)
	assert.ErrorIs(t, err, petal.ErrNotFound)
}

func TestRepo_Check(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"seeded account", "danial", "albina", true},
		{"wrong password", "danial", "wrong", false},
		{"unknown username", "nobody", "albina", false},
		{"empty pair", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := repo.Check(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestRepo_Ping(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	assert.NoError(t, repo.Ping(context.Background()))
}

func TestMigrate_SeedDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()

	suffix := getRandomString(t)
	tables := petal.Tables{
		Photos: fmt.Sprintf("photos_%s", suffix),
		Users:  fmt.Sprintf("users_%s", suffix),
	}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, sqlite.Migrate(ctx, db, tables, "danial", "albina"))

	// A second run with a different password must keep the persisted one
	require.NoError(t, sqlite.Migrate(ctx, db, tables, "danial", "rotated"))

	repo, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err)

	ok, err := repo.Check(ctx, "danial", "albina")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Check(ctx, "danial", "rotated")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDropTables(t *testing.T) {
	ctx := context.Background()

	suffix := getRandomString(t)
	tables := petal.Tables{
		Photos: fmt.Sprintf("photos_%s", suffix),
		Users:  fmt.Sprintf("users_%s", suffix),
	}

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, sqlite.Migrate(ctx, db, tables, "", ""))
	require.NoError(t, sqlite.DropTables(ctx, db, tables))

	repo, err := sqlite.NewRepo(db, tables)
	require.NoError(t, err)

	_, err = repo.List(ctx)
	assert.Error(t, err)
}

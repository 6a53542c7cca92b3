package books

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/avolkau/inkshelf/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.Book{})
	require.NoError(t, err)

	return db
}

func TestRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	book := &entities.Book{
		Title:      "The Left Hand of Darkness",
		Author:     "Ursula K. Le Guin",
		PriceCents: 1299,
		Type:       entities.BookTypeEbook,
		AssetRef:   "1a2B3c4D5e6F7g8H9i0JkLmNoPqRsTuVw",
		Active:     true,
	}
	require.NoError(t, repo.Create(book))
	assert.NotZero(t, book.ID)

	found, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.Title, found.Title)

	_, err = repo.GetByID(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_List(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	seed := []entities.Book{
		{Title: "Dune", Author: "Frank Herbert", PriceCents: 999, Type: entities.BookTypeEbook, Active: true},
		{Title: "Dune Messiah", Author: "Frank Herbert", PriceCents: 899, Type: entities.BookTypeEbook, Active: true},
		{Title: "Dune (narrated)", Author: "Frank Herbert", PriceCents: 1999, Type: entities.BookTypeAudiobook, Active: true},
		{Title: "Retired Title", Author: "Nobody", PriceCents: 0, Type: entities.BookTypeEbook, Active: false},
	}
	for i := range seed {
		require.NoError(t, repo.Create(&seed[i]))
	}

	t.Run("active only", func(t *testing.T) {
		list, total, err := repo.List(ListFilter{OnlyActive: true})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, list, 3)
	})

	t.Run("by type", func(t *testing.T) {
		list, total, err := repo.List(ListFilter{Type: entities.BookTypeAudiobook})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "Dune (narrated)", list[0].Title)
	})

	t.Run("search matches title and author", func(t *testing.T) {
		_, total, err := repo.List(ListFilter{Query: "herbert"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
	})

	t.Run("pagination", func(t *testing.T) {
		list, total, err := repo.List(ListFilter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, list, 2)
	})
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	book := &entities.Book{Title: "Drafts", Author: "Anon", PriceCents: 100, Active: true}
	require.NoError(t, repo.Create(book))

	book.PriceCents = 0
	require.NoError(t, repo.Update(book))

	found, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.True(t, found.Free())

	require.NoError(t, repo.Delete(book.ID))
	_, err = repo.GetByID(book.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/vlados/unique-urls/internal/errors"
	"github.com/vlados/unique-urls/internal/models"
)

func TestPageCRUD(t *testing.T) {
	repo := NewPageRepository(newTestDB(t))

	page := &models.Page{Name: models.Translations{"en": "about"}}
	require.NoError(t, repo.CreatePage(page))
	require.NotZero(t, page.ID)

	loaded, err := repo.GetPageByID(page.ID)
	require.NoError(t, err)
	assert.Equal(t, "about", loaded.Name.In("en"))

	loaded.Name = models.Translations{"en": "about us"}
	require.NoError(t, repo.UpdatePage(loaded))
	reloaded, err := repo.GetPageByID(page.ID)
	require.NoError(t, err)
	assert.Equal(t, "about us", reloaded.Name.In("en"))

	require.NoError(t, repo.DeletePage(reloaded))
	_, err = repo.GetPageByID(page.ID)
	assert.ErrorIs(t, err, apperrors.ErrPageNotFound)
}

func TestGetPagesChunk(t *testing.T) {
	repo := NewPageRepository(newTestDB(t))

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.CreatePage(&models.Page{Name: models.Translations{"en": "page"}}))
	}

	first, err := repo.GetPagesChunk(0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := repo.GetPagesChunk(first[1].ID, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Greater(t, second[0].ID, first[1].ID)

	last, err := repo.GetPagesChunk(second[1].ID, 2)
	require.NoError(t, err)
	assert.Len(t, last, 1)
}

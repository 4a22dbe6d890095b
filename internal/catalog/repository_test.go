package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Repository {
	// Use in-memory database for tests
	repo, err := NewRepository(":memory:")
	require.NoError(t, err)

	require.NoError(t, repo.RunMigrations())
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestRunMigrations_Idempotent(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.RunMigrations())
}

func TestSearchProducts_MatchesNameCaseInsensitive(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.SearchProducts(context.Background(), "LAMP", 10)
	require.NoError(t, err)

	require.Len(t, products, 2)
	assert.Equal(t, "Arc Floor Lamp", products[0].Name)
	assert.Equal(t, "Desk Lamp", products[1].Name)
}

func TestSearchProducts_MatchesCategory(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.SearchProducts(context.Background(), "textiles", 10)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestSearchProducts_MapsOptionalOriginalPrice(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.SearchProducts(context.Background(), "lamp", 10)
	require.NoError(t, err)
	require.Len(t, products, 2)

	require.NotNil(t, products[0].OriginalPrice)
	assert.Equal(t, 149.0, *products[0].OriginalPrice)
	assert.Equal(t, 149.0, products[0].Product().EffectivePrice())
	assert.Nil(t, products[1].OriginalPrice)
}

func TestSearchProducts_RespectsLimit(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.SearchProducts(context.Background(), "e", 3)
	require.NoError(t, err)
	assert.Len(t, products, 3)
}

func TestSearchProducts_WildcardsAreLiteral(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.SearchProducts(context.Background(), "%", 10)
	require.NoError(t, err)
	assert.Empty(t, products)

	products, err = repo.SearchProducts(context.Background(), "_", 10)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestSearchProducts_NoMatchIsEmptyNotNil(t *testing.T) {
	repo := setupTestDB(t)

	products, err := repo.SearchProducts(context.Background(), "spaceship", 10)
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestSearchProducts_CancelledContext(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := repo.SearchProducts(ctx, "lamp", 10)
	assert.Error(t, err)
}

func TestPopularSearches(t *testing.T) {
	repo := setupTestDB(t)

	terms, err := repo.PopularSearches(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"floor lamp", "office chair", "standing desk"}, terms)
}

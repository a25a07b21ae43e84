package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropmind/cropmind-engine/pkg/database"
	"github.com/cropmind/cropmind-engine/pkg/models"
	"github.com/cropmind/cropmind-engine/pkg/testhelpers"
)

func setupRepo(t *testing.T) (DetectionRepository, *database.DB) {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)
	db := &database.DB{Pool: testDB.Pool}

	// Each test starts from an empty table; the container is shared.
	_, err := db.Exec(context.Background(), "TRUNCATE detections")
	require.NoError(t, err)

	return NewDetectionRepository(db), db
}

func TestDetectionRepository_InsertAndListAll(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	first := &models.Detection{
		PestName:  "Aphid",
		Remedies:  []string{"neem oil", "crop rotation"},
		Treatment: "Apply weekly",
	}
	require.NoError(t, repo.Insert(ctx, first))
	require.NotEqual(t, uuid.Nil, first.ID)
	require.False(t, first.CreatedAt.IsZero())

	second := &models.Detection{PestName: "Whitefly"}
	require.NoError(t, repo.Insert(ctx, second))
	require.NotEqual(t, first.ID, second.ID)

	records, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, second.ID, records[0].ID)
	assert.Equal(t, first.ID, records[1].ID)

	// Round-trip: remedies come back in order.
	assert.Equal(t, []string{"neem oil", "crop rotation"}, records[1].Remedies)
	assert.Equal(t, "Apply weekly", records[1].Treatment)

	// Empty remedies come back as an empty slice, not nil.
	assert.NotNil(t, records[0].Remedies)
	assert.Empty(t, records[0].Remedies)
}

func TestDetectionRepository_ListAll_Empty(t *testing.T) {
	repo, _ := setupRepo(t)

	records, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestDetectionRepository_ListAll_Idempotent(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.Detection{PestName: "Thrips"}))
	require.NoError(t, repo.Insert(ctx, &models.Detection{PestName: "Leaf miner"}))

	firstRead, err := repo.ListAll(ctx)
	require.NoError(t, err)

	secondRead, err := repo.ListAll(ctx)
	require.NoError(t, err)

	require.Len(t, secondRead, len(firstRead))
	for i := range firstRead {
		assert.Equal(t, firstRead[i].ID, secondRead[i].ID)
		assert.Equal(t, firstRead[i].PestName, secondRead[i].PestName)
	}
}

func TestDetectionRepository_OptionalReferences(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	imageURL := "/uploads/abc.jpg"
	userID := uuid.New()

	owned := &models.Detection{
		PestName: "Aphid",
		ImageURL: &imageURL,
		UserID:   &userID,
	}
	require.NoError(t, repo.Insert(ctx, owned))

	unowned := &models.Detection{PestName: "Cutworm"}
	require.NoError(t, repo.Insert(ctx, unowned))

	records, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Nil(t, records[0].ImageURL)
	assert.Nil(t, records[0].UserID)

	require.NotNil(t, records[1].ImageURL)
	assert.Equal(t, imageURL, *records[1].ImageURL)
	require.NotNil(t, records[1].UserID)
	assert.Equal(t, userID, *records[1].UserID)
}

func TestDetectionRepository_ConcurrentInserts(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	const writers = 10
	errCh := make(chan error, writers)

	for i := 0; i < writers; i++ {
		go func() {
			errCh <- repo.Insert(ctx, &models.Detection{PestName: "Aphid"})
		}()
	}
	for i := 0; i < writers; i++ {
		require.NoError(t, <-errCh)
	}

	records, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, writers)

	seen := make(map[uuid.UUID]bool, writers)
	for _, r := range records {
		assert.False(t, seen[r.ID], "detection IDs must be distinct")
		seen[r.ID] = true
	}
}

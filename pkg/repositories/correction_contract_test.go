package repositories

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

func newCorrection(source, table, column string, status models.MappingStatus) *models.Correction {
	return &models.Correction{
		ID:                   uuid.New(),
		SourceColumn:         source,
		NormalizedSourceName: models.NormalizeSourceName(source),
		TargetTable:          table,
		TargetColumn:         column,
		Status:               status,
		// Postgres keeps microseconds.
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}
}

// testCorrectionRepository exercises the behaviour every backend shares.
// repo must start empty.
func testCorrectionRepository(t *testing.T, repo CorrectionRepository) {
	ctx := context.Background()

	t.Run("append and list in order", func(t *testing.T) {
		var appended []*models.Correction
		for i := 0; i < 3; i++ {
			c := newCorrection("MBR_NUM", "member", "member_id", models.MappingStatusInModel)
			require.NoError(t, repo.Append(ctx, c))
			appended = append(appended, c)
		}
		custom := newCorrection("MBR_NUM", "", "", models.MappingStatusCustomField)
		custom.WasOverride = true
		require.NoError(t, repo.Append(ctx, custom))
		appended = append(appended, custom)

		other := newCorrection("PAT_FNAME", "patient", "patient_first_name", models.MappingStatusInModel)
		require.NoError(t, repo.Append(ctx, other))
		appended = append(appended, other)

		got, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, len(appended))
		for i, want := range appended {
			assert.Equal(t, want.ID, got[i].ID)
			assert.Equal(t, want.SourceColumn, got[i].SourceColumn)
			assert.Equal(t, want.NormalizedSourceName, got[i].NormalizedSourceName)
			assert.Equal(t, want.Target(), got[i].Target())
			assert.Equal(t, want.Status, got[i].Status)
			assert.Equal(t, want.WasOverride, got[i].WasOverride)
			assert.True(t, want.Timestamp.Equal(got[i].Timestamp), "timestamp %v != %v", want.Timestamp, got[i].Timestamp)
		}

		n, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(appended), n)
	})

	t.Run("frequency counts in_model only", func(t *testing.T) {
		freq, err := repo.FrequencyByKey(ctx, "mbr_num")
		require.NoError(t, err)
		assert.Equal(t, map[models.FieldRef]int{{Table: "member", Column: "member_id"}: 3}, freq)

		freq, err = repo.FrequencyByKey(ctx, "unknown_key")
		require.NoError(t, err)
		assert.Empty(t, freq)
	})

	t.Run("concurrent appends are all kept", func(t *testing.T) {
		before, err := repo.Count(ctx)
		require.NoError(t, err)

		const writers = 25
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				c := newCorrection(fmt.Sprintf("COL_%d", i%5), "claim", "claim_number", models.MappingStatusInModel)
				errs <- repo.Append(ctx, c)
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		after, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+writers, after)

		freq, err := repo.FrequencyByKey(ctx, "col_0")
		require.NoError(t, err)
		assert.Equal(t, 5, freq[models.FieldRef{Table: "claim", Column: "claim_number"}])
	})
}

func TestMemoryCorrectionRepository(t *testing.T) {
	testCorrectionRepository(t, NewMemoryCorrectionRepository())
}

func TestMemoryCorrectionRepository_AppendNil(t *testing.T) {
	assert.Error(t, NewMemoryCorrectionRepository().Append(context.Background(), nil))
}

package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/symptom-checker/internal/suggestion"
)

// openTestStore connects to TEST_DATABASE_URL and starts from an empty table.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres integration test")
	}

	ctx := context.Background()
	s, err := Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NoError(t, s.EnsureSchema(ctx))
	_, err = s.pool.Exec(ctx, "TRUNCATE symptom_queries RESTART IDENTITY")
	require.NoError(t, err)
	return s
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))
}

func TestInsertAndListRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := suggestion.DiagnosticSuggestion{
		PossibleConditions:   []string{"Viral infection"},
		Reasoning:            "r1",
		RedFlags:             []string{},
		RecommendedNextSteps: []string{"Rest"},
		Disclaimer:           "d",
	}
	second := first
	second.Reasoning = "r2"

	a, err := s.Insert(ctx, "headache", first)
	require.NoError(t, err)
	b, err := s.Insert(ctx, "fever", second)
	require.NoError(t, err)
	assert.Greater(t, b.ID, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "fever", got[0].SymptomsInput)
	assert.Equal(t, second, got[0].LLMResponse)
	assert.Equal(t, "headache", got[1].SymptomsInput)
	assert.Equal(t, first, got[1].LLMResponse)
}

func TestListRecentHonoursLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := s.Insert(ctx, "cough", suggestion.DiagnosticSuggestion{
			PossibleConditions: []string{}, RedFlags: []string{}, RecommendedNextSteps: []string{}, Disclaimer: "d",
		})
		require.NoError(t, err)
	}

	got, err := s.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, int64(12), got[0].ID)
}

func TestListRecentEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOpenRejectsBadURL(t *testing.T) {
	_, err := Open(context.Background(), "::not a url::")
	require.Error(t, err)
}

package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirsync/internal/sync/models"
)

func TestLookup(t *testing.T) {
	linked := &models.TargetRecord{ID: 1, ExternalID: "ext-1", Email: "ada@corp.example"}
	emailOnly := &models.TargetRecord{ID: 2, Email: "grace@corp.example"}
	unkeyed := &models.TargetRecord{ID: 3}

	idx := Build([]*models.TargetRecord{linked, emailOnly, unkeyed, nil})

	tests := []struct {
		name   string
		source models.SourceRecord
		want   *models.TargetRecord
		found  bool
	}{
		{
			name:   "external id match wins",
			source: models.SourceRecord{ExternalID: "ext-1", Email: "other@corp.example"},
			want:   linked,
			found:  true,
		},
		{
			name:   "email fallback for unlinked record",
			source: models.SourceRecord{ExternalID: "ext-new", Email: "grace@corp.example"},
			want:   emailOnly,
			found:  true,
		},
		{
			name:   "email match is case insensitive",
			source: models.SourceRecord{Email: "GRACE@CORP.EXAMPLE"},
			want:   emailOnly,
			found:  true,
		},
		{
			name:   "no match",
			source: models.SourceRecord{ExternalID: "missing", Email: "missing@corp.example"},
			found:  false,
		},
		{
			name:   "empty keys never match",
			source: models.SourceRecord{},
			found:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := idx.Lookup(tt.source)
			require.Equal(t, tt.found, found)
			if tt.found {
				assert.Same(t, tt.want, got)
			}
		})
	}
}

func TestBuildBothKeysPointAtSameRecord(t *testing.T) {
	rec := &models.TargetRecord{ID: 7, ExternalID: "ext-7", Email: "Both@corp.example"}
	idx := Build([]*models.TargetRecord{rec})

	byID, ok := idx.Lookup(models.SourceRecord{ExternalID: "ext-7"})
	require.True(t, ok)
	byEmail, ok := idx.Lookup(models.SourceRecord{Email: "both@corp.example"})
	require.True(t, ok)
	assert.Same(t, byID, byEmail)
	assert.Equal(t, 1, idx.Len())
}

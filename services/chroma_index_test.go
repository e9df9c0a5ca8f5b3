package services

import (
	"context"
	"errors"
	"testing"

	"github/itish2003/docsearch/logger"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingChroma implements only DeleteCollection; any other call panics.
type recordingChroma struct {
	chromago.Client
	deleted []string
	err     error
}

func (r *recordingChroma) DeleteCollection(_ context.Context, name string, _ ...chromago.DeleteCollectionOption) error {
	r.deleted = append(r.deleted, name)
	return r.err
}

func TestChromaIndex_DropDeletesCollectionByName(t *testing.T) {
	client := &recordingChroma{}
	idx := NewChromaIndex(client, logger.NewNop())

	require.NoError(t, idx.Drop(context.Background(), "s1"))
	assert.Equal(t, []string{"docsearch-s1"}, client.deleted)
}

func TestChromaIndex_DropReportsFailure(t *testing.T) {
	client := &recordingChroma{err: errors.New("connection refused")}
	idx := NewChromaIndex(client, logger.NewNop())

	err := idx.Drop(context.Background(), "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

package storage

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memoryStore) Upload(_ context.Context, key, contentType string, reader io.Reader) (*UploadResult, error) {
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.objects[key] = body
	m.types[key] = contentType
	return &UploadResult{Key: key, Location: m.GetPublicURL(key)}, nil
}

func (m *memoryStore) GetPublicURL(key string) string {
	return publicURL("https://cdn.example.com/reports", key)
}

func TestJSONArchive(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}, types: map[string]string{}}
	archive := &jsonArchive{
		store:  store,
		prefix: "ratings",
		now:    func() time.Time { return time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC) },
	}

	res, err := archive.Archive(context.Background(), "recompute", map[string]int{"events": 3})
	require.NoError(t, err)

	key := "ratings/recompute/2024/05/03/recompute-1714730400000000000.json"
	assert.Equal(t, key, res.Key)
	assert.Equal(t, "https://cdn.example.com/reports/"+key, res.Location)
	assert.Equal(t, "application/json", store.types[key])

	var decoded map[string]int
	require.NoError(t, json.Unmarshal(store.objects[key], &decoded))
	assert.Equal(t, 3, decoded["events"])
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "", publicURL("", "a.json"))
	assert.Equal(t, "https://x.dev/a/b.json", publicURL("https://x.dev", "/a/b.json"))
	assert.Equal(t, "https://x.dev/base/a.json", publicURL("https://x.dev/base/", "a.json"))
}

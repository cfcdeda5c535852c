package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyeyeon57/portfolio-backoffice/database"
	"github.com/hyeyeon57/portfolio-backoffice/models"
	"github.com/hyeyeon57/portfolio-backoffice/storage"
)

func newTestStore(t *testing.T) *database.Connector {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	c := database.NewConnectorFromDB(db)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// downStore reports disconnected and panics if any repository is reached.
type downStore struct{}

func (downStore) IsConnected() bool { return false }
func (downStore) Database() database.Database {
	panic("repository accessed while disconnected")
}
func (downStore) MarkDisconnected(error) {}

type memoryStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{files: map[string][]byte{}}
}

func (m *memoryStorage) Save(_ context.Context, name string, data io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p := "/projects/" + name
	m.files[p] = b
	return p, nil
}

func (m *memoryStorage) Open(_ context.Context, p string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotExist, p)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memoryStorage) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, p)
	return nil
}

func strPtr(s string) *string { return &s }

func idPtr(s string) *FlexString {
	f := FlexString(s)
	return &f
}

func validInput(id string) ProjectInput {
	return ProjectInput{
		ExternalID:  idPtr(id),
		Title:       strPtr("Title " + id),
		Description: strPtr("Description"),
		Category:    strPtr("web"),
	}
}

package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"sync"
)

// MockS3Service keeps technician documents in memory. Keys are deterministic
// (prefix/mock_<filename>) so tests can assert on them.
type MockS3Service struct {
	// UploadErr, when set, fails every upload
	UploadErr error

	mu      sync.RWMutex
	objects map[string]mockObject
}

type mockObject struct {
	content     []byte
	contentType string
}

func NewMockS3Service() *MockS3Service {
	return &MockS3Service{objects: make(map[string]mockObject)}
}

// SetAsMockForTesting installs the mock as the S3 service and wraps it in the document service
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
	InitDocumentService(m)
}

func (m *MockS3Service) UploadFile(_ context.Context, fileHeader *multipart.FileHeader, prefix string) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}

	key := prefix + "/mock_" + fileHeader.Filename

	m.mu.Lock()
	m.objects[key] = mockObject{content: content, contentType: fileHeader.Header.Get("Content-Type")}
	m.mu.Unlock()
	return key, nil
}

func (m *MockS3Service) GetPresignedURL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	if !m.FileExists(key) {
		return "", fmt.Errorf("document %s not found in mock storage", key)
	}
	return "https://documents.mock.local/" + key + "?mock=true", nil
}

func (m *MockS3Service) DeleteFile(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MockS3Service) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}

// Content returns the stored bytes for key
func (m *MockS3Service) Content(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.content, ok
}

// Keys lists the stored keys in order
func (m *MockS3Service) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MockS3Service) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

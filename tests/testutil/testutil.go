package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB is a GORM handle backed by sqlmock with the postgres dialect
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a MockDB closed at test cleanup
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: db, Mock: mock, SqlDB: sqlDB}
}

// ExpectationsWereMet fails the test on unmet sqlmock expectations
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// TestContext is a gin context over a response recorder
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
}

// NewTestContext creates a TestContext for method and path with an optional
// JSON body
func NewTestContext(t *testing.T, method, path string, body any) *TestContext {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
		reader = bytes.NewReader(data)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, reader)
	if body != nil {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	return &TestContext{Context: c, Recorder: w}
}

// SetOwner authenticates the context as ownerID
func (tc *TestContext) SetOwner(ownerID string) *TestContext {
	tc.Context.Set(middleware.OwnerIDKey, ownerID)
	return tc
}

// SetRequestID stores a request id the way the RequestID middleware does
func (tc *TestContext) SetRequestID(id string) *TestContext {
	tc.Context.Set(middleware.RequestIDKey, id)
	return tc
}

// Envelope decodes the recorded body as a dto.Response, decoding data into
// out when out is non-nil
func Envelope(t *testing.T, rec *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()

	var raw struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), "Failed to parse response envelope")
	if out != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, out), "Failed to parse response data")
	}
	return raw.Response
}

// AssertError checks the status code and envelope error code
func AssertError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, rec.Code, rec.Body.String())
	resp := Envelope(t, rec, nil)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error, "Expected error object in response")
	assert.Equal(t, code, resp.Error.Code)
}

// NewTestUUID derives a stable UUID from seed
func NewTestUUID(seed string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed))
}


package rest

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dbnavigator/backend/internal/application/services"
	"github.com/dbnavigator/backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE connections (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		engine TEXT NOT NULL,
		host TEXT NOT NULL DEFAULT '',
		port INTEGER NOT NULL DEFAULT 0,
		username TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL DEFAULT '',
		database_name TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		created_date TIMESTAMP NOT NULL,
		last_modified_date TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)

	svcMgr := &services.ServiceManager{
		Connections: services.NewConnectionService(persistence.NewConnectionRepository(db)),
	}
	svcMgr.Introspection = services.NewIntrospectionService(svcMgr.Connections)

	handler := NewConnectionHandler(svcMgr)
	router := gin.New()
	api := router.Group("/api")
	connections := api.Group("/connections")
	connections.GET("", handler.GetConnections)
	connections.POST("", handler.CreateConnection)
	connections.GET("/:id", handler.GetConnection)
	connections.DELETE("/:id", handler.DeleteConnection)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestConnectionEndpoints(t *testing.T) {
	router := newTestRouter(t)

	create := map[string]interface{}{
		"name":     "local pg",
		"engine":   "postgres",
		"host":     "localhost",
		"port":     5432,
		"username": "app",
		"database": "appdb",
	}
	w := doJSON(t, router, http.MethodPost, "/api/connections", create)
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Connection struct {
			ID string `json:"id"`
		} `json:"connection"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Connection.ID)

	// Duplicate names conflict
	w = doJSON(t, router, http.MethodPost, "/api/connections", create)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown engines are rejected up front
	bad := map[string]interface{}{"name": "ora", "engine": "oracle"}
	w = doJSON(t, router, http.MethodPost, "/api/connections", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/connections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Connections []map[string]interface{} `json:"connections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Connections, 1)

	w = doJSON(t, router, http.MethodGet, "/api/connections/"+created.Connection.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/connections/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/connections/"+created.Connection.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, router, http.MethodDelete, "/api/connections/"+created.Connection.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"WaifuBracket/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("API_SECRET", "secret-for-tests")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Waifu{},
		&models.Alias{},
		&models.Bracket{},
		&models.BracketEntry{},
		&models.Vote{},
	)
	require.NoError(t, err)

	server := &Server{DB: db, Router: gin.New()}
	server.initializeRoutes()
	return server
}

// doRequest runs one request through the router and decodes the JSON
// envelope, if any.
func doRequest(t *testing.T, s *Server, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	payload := map[string]interface{}{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload), "body: %s", w.Body.String())
	}
	return w, payload
}

// signup registers a user and logs them in, returning the user id and a
// bearer token.
func signup(t *testing.T, s *Server, username string) (uint, string) {
	t.Helper()

	email := fmt.Sprintf("%s@example.com", username)
	w, _ := doRequest(t, s, http.MethodPost, "/api/v1/users", "", gin.H{
		"username": username,
		"email":    email,
		"password": "password",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body := doRequest(t, s, http.MethodPost, "/api/v1/login", "", gin.H{
		"email":    email,
		"password": "password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp, ok := body["response"].(map[string]interface{})
	require.True(t, ok)
	return uint(resp["id"].(float64)), resp["token"].(string)
}

func registerWaifu(t *testing.T, s *Server, token, name, sourceWork string) uint {
	t.Helper()

	w, body := doRequest(t, s, http.MethodPost, "/api/v1/waifus", token, gin.H{
		"name":        name,
		"source_work": sourceWork,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return uint(body["response"].(map[string]interface{})["id"].(float64))
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"marina/auth"
	"marina/config"
	"marina/database"
	"marina/models"
	"marina/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stubVerifier accepts tokens of the form "sub:<subject>" and rejects
// everything else, standing in for Auth0 verification.
type stubVerifier struct{}

func (stubVerifier) VerifyToken(_ context.Context, tokenString string) (*auth.Claims, error) {
	subject, ok := strings.CutPrefix(tokenString, "sub:")
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
	}, nil
}

func setupTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s := &Server{
		config:   &config.Config{Port: "0"},
		db:       db,
		verifier: stubVerifier{},
		userRepo: repository.NewUserRepository(db),
		boatRepo: repository.NewBoatRepository(db),
		loadRepo: repository.NewLoadRepository(db),
	}
	return s, s.App()
}

func createUser(t *testing.T, s *Server, subject, nickname string) {
	t.Helper()
	require.NoError(t, s.userRepo.Create(context.Background(), &models.User{
		UniqueID: subject,
		Nickname: nickname,
		Boats:    models.BoatRefs{},
	}))
}

func doJSON(t *testing.T, app *fiber.App, method, target string, body any, token string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return resp.StatusCode, decoded
}

func TestCreateBoat(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")

	status, body := doJSON(t, app, fiber.MethodPost, "/boats",
		map[string]any{"name": "Orca", "type": "Sailboat", "length": 20}, "sub:auth0|alice")

	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "Orca", body["name"])
	assert.Equal(t, "Sailboat", body["type"])
	assert.EqualValues(t, 20, body["length"])
	assert.Equal(t, "auth0|alice", body["owner"])
	assert.Equal(t, []any{}, body["loads"])

	// The self-link ends in the assigned id.
	id, ok := body["id"].(string)
	require.True(t, ok)
	self, ok := body["self"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(self, "/boats/"+id))

	// The owner's boat list now references the boat.
	user, err := s.userRepo.GetBySubject(context.Background(), "auth0|alice")
	require.NoError(t, err)
	require.Len(t, user.Boats, 1)
	assert.Equal(t, id, user.Boats[0].ID)
}

func TestCreateBoatValidation(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")

	tests := []struct {
		name           string
		body           map[string]any
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Missing attribute",
			body:           map[string]any{"name": "Orca", "type": "Sailboat"},
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  "The request object is missing at least one of the required attributes",
		},
		{
			name:           "Numeric name",
			body:           map[string]any{"name": 7, "type": "Sailboat", "length": 20},
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  "Object name must only contain characters",
		},
		{
			name:           "Length too large",
			body:           map[string]any{"name": "Orca", "type": "Sailboat", "length": 1000},
			expectedStatus: fiber.StatusBadRequest,
			expectedError:  "Object length must be less than 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := doJSON(t, app, fiber.MethodPost, "/boats", tt.body, "sub:auth0|alice")
			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedError, body["Error"])
		})
	}
}

func TestBoatAuth(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")

	t.Run("Missing token", func(t *testing.T) {
		status, body := doJSON(t, app, fiber.MethodPost, "/boats",
			map[string]any{"name": "Orca", "type": "Sailboat", "length": 20}, "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "JWT is invalid", body["Error"])
	})

	t.Run("Invalid token", func(t *testing.T) {
		status, body := doJSON(t, app, fiber.MethodGet, "/boats", nil, "garbage")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Equal(t, "JWT is invalid", body["Error"])
	})

	t.Run("Foreign owner gets 403", func(t *testing.T) {
		createUser(t, s, "auth0|bob", "bob")
		status, body := doJSON(t, app, fiber.MethodPost, "/boats",
			map[string]any{"name": "Orca", "type": "Sailboat", "length": 20}, "sub:auth0|alice")
		require.Equal(t, fiber.StatusCreated, status)

		status, errBody := doJSON(t, app, fiber.MethodGet, "/boats/"+body["id"].(string), nil, "sub:auth0|bob")
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Equal(t, "Not authorized", errBody["Error"])
	})
}

func TestGetBoatNotFound(t *testing.T) {
	_, app := setupTestServer(t)

	status, body := doJSON(t, app, fiber.MethodGet, "/boats/9999", nil, "sub:auth0|alice")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "No boat with this boat_id exists", body["Error"])
}

func TestBoatCollectionMethodNotAllowed(t *testing.T) {
	_, app := setupTestServer(t)

	for _, method := range []string{fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete} {
		status, body := doJSON(t, app, method, "/boats", nil, "sub:auth0|alice")
		assert.Equal(t, fiber.StatusMethodNotAllowed, status)
		assert.Equal(t, "Method not allowed", body["Error"])
	}
}

func TestBoatListPagination(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")

	for i := 0; i < 7; i++ {
		status, _ := doJSON(t, app, fiber.MethodPost, "/boats",
			map[string]any{"name": "Orca", "type": "Sailboat", "length": 20}, "sub:auth0|alice")
		require.Equal(t, fiber.StatusCreated, status)
	}

	status, body := doJSON(t, app, fiber.MethodGet, "/boats", nil, "sub:auth0|alice")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["boats"], 5)
	assert.EqualValues(t, 7, body["total_items"])
	next, ok := body["next"].(string)
	require.True(t, ok)
	assert.Contains(t, next, "limit=5")
	assert.Contains(t, next, "offset=5")

	status, body = doJSON(t, app, fiber.MethodGet, "/boats?limit=5&offset=5", nil, "sub:auth0|alice")
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["boats"], 2)
	assert.Nil(t, body["next"])
}

func TestUpdateBoat(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")

	status, created := doJSON(t, app, fiber.MethodPost, "/boats",
		map[string]any{"name": "Orca", "type": "Sailboat", "length": 20}, "sub:auth0|alice")
	require.Equal(t, fiber.StatusCreated, status)
	id := created["id"].(string)

	t.Run("Full replace", func(t *testing.T) {
		status, body := doJSON(t, app, fiber.MethodPut, "/boats/"+id,
			map[string]any{"name": "Pequod", "type": "Whaler", "length": 40}, "sub:auth0|alice")
		assert.Equal(t, fiber.StatusSeeOther, status)
		assert.Equal(t, "Pequod", body["name"])
		assert.Equal(t, "Whaler", body["type"])
		assert.EqualValues(t, 40, body["length"])
	})

	t.Run("Partial patch", func(t *testing.T) {
		status, body := doJSON(t, app, fiber.MethodPatch, "/boats/"+id,
			map[string]any{"length": 50}, "sub:auth0|alice")
		assert.Equal(t, fiber.StatusSeeOther, status)
		assert.EqualValues(t, 50, body["length"])
		assert.Equal(t, "Pequod", body["name"])
	})

	t.Run("Patch with no recognized attribute", func(t *testing.T) {
		status, body := doJSON(t, app, fiber.MethodPatch, "/boats/"+id,
			map[string]any{"colour": "black"}, "sub:auth0|alice")
		assert.Equal(t, fiber.StatusBadRequest, status)
		assert.Equal(t,
			"The request object is missing at least one of the required attributes",
			body["Error"])
	})
}

func TestMediaTypeChecks(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")

	t.Run("Wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/boats",
			strings.NewReader("name=Orca"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer sub:auth0|alice")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Media type must be application/json", body["Error"])
	})

	t.Run("Malformed JSON body", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodPost, "/boats",
			strings.NewReader("{not json"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer sub:auth0|alice")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
	})

	t.Run("Unacceptable response type", func(t *testing.T) {
		req := httptest.NewRequest(fiber.MethodGet, "/loads", nil)
		req.Header.Set(fiber.HeaderAccept, "text/html")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusNotAcceptable, resp.StatusCode)
		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Accepted media type must be application/json", body["Error"])
	})
}

func TestLoadLifecycle(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")

	// Loads are created without authentication.
	status, created := doJSON(t, app, fiber.MethodPost, "/loads",
		map[string]any{"content": "Fish", "destination": "Seattle", "volume": 500}, "")
	require.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "none", created["carrier"])
	loadID := created["id"].(string)

	status, boat := doJSON(t, app, fiber.MethodPost, "/boats",
		map[string]any{"name": "Orca", "type": "Sailboat", "length": 20}, "sub:auth0|alice")
	require.Equal(t, fiber.StatusCreated, status)
	boatID := boat["id"].(string)

	// Attach the load to the boat.
	status, _ = doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/boats/%s/loads/%s", boatID, loadID), nil, "sub:auth0|alice")
	require.Equal(t, fiber.StatusNoContent, status)

	// The load now shows its carrier's id and name.
	status, load := doJSON(t, app, fiber.MethodGet, "/loads/"+loadID, nil, "")
	require.Equal(t, fiber.StatusOK, status)
	carrier, ok := load["carrier"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, boatID, carrier["id"])
	assert.Equal(t, "Orca", carrier["name"])

	// Attaching an already carried load always fails with a conflict.
	status, other := doJSON(t, app, fiber.MethodPost, "/boats",
		map[string]any{"name": "Pequod", "type": "Whaler", "length": 40}, "sub:auth0|alice")
	require.Equal(t, fiber.StatusCreated, status)
	otherBoatID := other["id"].(string)

	status, errBody := doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/boats/%s/loads/%s", otherBoatID, loadID), nil, "sub:auth0|alice")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "The specified load already has a carrier", errBody["Error"])

	// Detaching from the wrong boat fails without mutating anything.
	status, errBody = doJSON(t, app, fiber.MethodDelete,
		fmt.Sprintf("/boats/%s/loads/%s", otherBoatID, loadID), nil, "sub:auth0|alice")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "The specified load is not on this carrier", errBody["Error"])

	// Deleting the carrier boat resets the load to carrier "none".
	status, _ = doJSON(t, app, fiber.MethodDelete, "/boats/"+boatID, nil, "sub:auth0|alice")
	require.Equal(t, fiber.StatusNoContent, status)

	status, load = doJSON(t, app, fiber.MethodGet, "/loads/"+loadID, nil, "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "none", load["carrier"])
}

func TestDeleteAttachedLoad(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")

	status, boat := doJSON(t, app, fiber.MethodPost, "/boats",
		map[string]any{"name": "Orca", "type": "Sailboat", "length": 20}, "sub:auth0|alice")
	require.Equal(t, fiber.StatusCreated, status)
	boatID := boat["id"].(string)

	status, load := doJSON(t, app, fiber.MethodPost, "/loads",
		map[string]any{"content": "Fish", "destination": "Seattle", "volume": 500}, "")
	require.Equal(t, fiber.StatusCreated, status)
	loadID := load["id"].(string)

	status, _ = doJSON(t, app, fiber.MethodPut,
		fmt.Sprintf("/boats/%s/loads/%s", boatID, loadID), nil, "sub:auth0|alice")
	require.Equal(t, fiber.StatusNoContent, status)

	// Deleting the load removes it from the boat's load list.
	status, _ = doJSON(t, app, fiber.MethodDelete, "/loads/"+loadID, nil, "")
	require.Equal(t, fiber.StatusNoContent, status)

	status, current := doJSON(t, app, fiber.MethodGet, "/boats/"+boatID, nil, "sub:auth0|alice")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, []any{}, current["loads"])
}

func TestUpdateLoad(t *testing.T) {
	_, app := setupTestServer(t)

	status, created := doJSON(t, app, fiber.MethodPost, "/loads",
		map[string]any{"content": "Fish", "destination": "Seattle", "volume": 500}, "")
	require.Equal(t, fiber.StatusCreated, status)
	id := created["id"].(string)

	status, body := doJSON(t, app, fiber.MethodPut, "/loads/"+id,
		map[string]any{"content": "Timber", "destination": "Juneau", "volume": 800}, "")
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.Equal(t, "Timber", body["content"])

	status, body = doJSON(t, app, fiber.MethodPatch, "/loads/"+id,
		map[string]any{"volume": 900}, "")
	assert.Equal(t, fiber.StatusSeeOther, status)
	assert.EqualValues(t, 900, body["volume"])
	assert.Equal(t, "Timber", body["content"])
}

func TestGetAllUsers(t *testing.T) {
	s, app := setupTestServer(t)
	createUser(t, s, "auth0|alice", "alice")
	createUser(t, s, "auth0|bob", "bob")

	status, boat := doJSON(t, app, fiber.MethodPost, "/boats",
		map[string]any{"name": "Orca", "type": "Sailboat", "length": 20}, "sub:auth0|alice")
	require.Equal(t, fiber.StatusCreated, status)

	req := httptest.NewRequest(fiber.MethodGet, "/users", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var users []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 2)

	assert.Equal(t, "auth0|alice", users[0]["unique_id"])
	assert.Equal(t, "alice", users[0]["nickname"])
	boats := users[0]["boats"].([]any)
	require.Len(t, boats, 1)
	assert.Equal(t, boat["id"], boats[0].(map[string]any)["id"])

	assert.Equal(t, []any{}, users[1]["boats"])
}

func TestSwaggerDocs(t *testing.T) {
	_, app := setupTestServer(t)

	req := httptest.NewRequest(fiber.MethodGet, "/swagger/index.html", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

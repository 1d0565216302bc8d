package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/tlatelolco/crime-incidence-api/api"
	"github.com/tlatelolco/crime-incidence-api/api/handlers"
	mocksdb "github.com/tlatelolco/crime-incidence-api/databases/mocks"
	"github.com/tlatelolco/crime-incidence-api/models"
)

const testSecret = "test-secret"

func TestUser_RegisterHandlerSuccess(t *testing.T) {
	b, _ := json.Marshal(map[string]string{
		"username": "mvaldez",
		"name":     "María Valdez",
		"password": "hunter2!",
		"role":     "secretaria",
	})
	req, err := http.NewRequest("POST", "/api/v1/users/register", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.UserDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"username": "mvaldez"}).
		Return(nil, errors.New("mongo: no documents in result"))

	var inserted models.User
	dbMock.On("InsertOne", mock.Anything, mock.AnythingOfType("models.User")).
		Return(&mocksdb.InsertOneResultHelper{}, nil).
		Run(func(args mock.Arguments) {
			inserted = args.Get(1).(models.User)
		})

	u := handlers.User{DB: dbMock, Secret: testSecret}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "mvaldez", inserted.Username)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(inserted.Password), []byte("hunter2!")))
	// the hash never leaves the server
	assert.NotContains(t, rr.Body.String(), inserted.Password)
}

func TestUser_RegisterHandlerDuplicateUsername(t *testing.T) {
	b, _ := json.Marshal(map[string]string{"username": "mvaldez", "password": "hunter2!"})
	req, err := http.NewRequest("POST", "/api/v1/users/register", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.UserDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"username": "mvaldez"}).
		Return(&models.User{Username: "mvaldez"}, nil)

	u := handlers.User{DB: dbMock, Secret: testSecret}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	dbMock.AssertNotCalled(t, "InsertOne")
}

func TestUser_RegisterHandlerMissingCredentials(t *testing.T) {
	b, _ := json.Marshal(map[string]string{"username": "  ", "password": "hunter2!"})
	req, err := http.NewRequest("POST", "/api/v1/users/register", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.UserDatabase{}
	u := handlers.User{DB: dbMock, Secret: testSecret}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.RegisterHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	dbMock.AssertNotCalled(t, "FindOne")
}

func TestUser_LoginHandlerSuccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2!"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	stored := &models.User{
		ID:       primitive.NewObjectID(),
		Username: "mvaldez",
		Name:     "María Valdez",
		Password: string(hash),
		Role:     "secretaria",
	}

	b, _ := json.Marshal(map[string]string{"username": "mvaldez", "password": "hunter2!"})
	req, err := http.NewRequest("POST", "/api/v1/users/login", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.UserDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"username": "mvaldez"}).Return(stored, nil)

	u := handlers.User{DB: dbMock, Secret: testSecret}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "mvaldez", resp.User.Username)

	var claims api.UserClaims
	parsed, err := jwt.ParseWithClaims(resp.Token, &claims, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	assert.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "mvaldez", claims.Username)
	assert.Equal(t, stored.ID.Hex(), claims.Subject)
}

func TestUser_LoginHandlerUnknownUser(t *testing.T) {
	b, _ := json.Marshal(map[string]string{"username": "nobody", "password": "hunter2!"})
	req, err := http.NewRequest("POST", "/api/v1/users/login", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.UserDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"username": "nobody"}).
		Return(nil, errors.New("mongo: no documents in result"))

	u := handlers.User{DB: dbMock, Secret: testSecret}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUser_LoginHandlerWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2!"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	b, _ := json.Marshal(map[string]string{"username": "mvaldez", "password": "wrong"})
	req, err := http.NewRequest("POST", "/api/v1/users/login", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.UserDatabase{}
	dbMock.On("FindOne", mock.Anything, bson.M{"username": "mvaldez"}).
		Return(&models.User{Username: "mvaldez", Password: string(hash)}, nil)

	u := handlers.User{DB: dbMock, Secret: testSecret}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

package handlers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/tlatelolco/crime-incidence-api/config"
)

var a App

// New registers prometheus collectors on the default registry, so it
// may only run once per test binary.
func TestMain(m *testing.M) {
	a.Config = config.Config{JWTSecret: "test-secret"}
	a.Router = a.New()
	os.Exit(m.Run())
}

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func TestUnknownRoute(t *testing.T) {
	req, _ := http.NewRequest("GET", "/nope", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)
	if body := response.Body.String(); body != `{"alive":true}` {
		t.Errorf("Expected an alive response. Got %s", body)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/attendance", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestProtectedRouteRejectsGarbageToken(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/v1/agreements", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

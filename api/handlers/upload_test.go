package handlers_test

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tlatelolco/crime-incidence-api/api/handlers"
)

func TestUpload_GenerateSignature(t *testing.T) {
	t.Setenv("CLOUDINARY_UPLOAD_PRESET", "incident-photos")
	t.Setenv("CLOUDINARY_API_SECRET", "shhh-very-secret")

	req, err := http.NewRequest("POST", "/api/v1/generate-signature", nil)
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.Upload{}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.GenerateSignature).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Timestamp string `json:"timestamp"`
		Signature string `json:"signature"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	assert.NotEmpty(t, resp.Timestamp)

	h := hmac.New(sha1.New, []byte("shhh-very-secret"))
	h.Write([]byte("timestamp=" + resp.Timestamp + "&upload_preset=incident-photos"))
	assert.Equal(t, hex.EncodeToString(h.Sum(nil)), resp.Signature)
}

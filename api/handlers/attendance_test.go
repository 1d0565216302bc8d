package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tlatelolco/crime-incidence-api/api/handlers"
	mocksdb "github.com/tlatelolco/crime-incidence-api/databases/mocks"
	"github.com/tlatelolco/crime-incidence-api/models"
)

func attendanceBody(date string) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"date": date,
		"participants": []map[string]string{
			{"participantId": "p1", "attendance": "titular"},
			{"participantId": "p2", "attendance": "ausente"},
		},
	})
	return b
}

func TestAttendance_CreateAttendanceHandlerSuccess(t *testing.T) {
	// 2024-06-04 is a Tuesday
	req, err := http.NewRequest("POST", "/api/v1/attendance", bytes.NewReader(attendanceBody("2024-06-04")))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.AttendanceDatabase{}
	dbMock.On("FindOne", mock.Anything, mock.Anything).
		Return(nil, errors.New("mongo: no documents in result"))
	dbMock.On("InsertOne", mock.Anything, mock.AnythingOfType("models.Attendance")).
		Return(&mocksdb.InsertOneResultHelper{}, nil)

	a := handlers.Attendance{DB: dbMock}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.CreateAttendanceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Attendance
	_ = json.Unmarshal(rr.Body.Bytes(), &created)
	assert.Len(t, created.Participants, 2)
	dbMock.AssertExpectations(t)
}

func TestAttendance_CreateAttendanceHandlerRejectsNonTuesday(t *testing.T) {
	// 2024-06-05 is a Wednesday
	req, err := http.NewRequest("POST", "/api/v1/attendance", bytes.NewReader(attendanceBody("2024-06-05")))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.AttendanceDatabase{}
	a := handlers.Attendance{DB: dbMock}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.CreateAttendanceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Tuesday")
	dbMock.AssertNotCalled(t, "InsertOne")
}

func TestAttendance_CreateAttendanceHandlerRejectsDuplicateDate(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/attendance", bytes.NewReader(attendanceBody("2024-06-04")))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.AttendanceDatabase{}
	dbMock.On("FindOne", mock.Anything, mock.Anything).Return(&models.Attendance{}, nil)

	a := handlers.Attendance{DB: dbMock}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.CreateAttendanceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	dbMock.AssertNotCalled(t, "InsertOne")
}

func TestAttendance_CreateAttendanceHandlerRejectsUnknownState(t *testing.T) {
	b, _ := json.Marshal(map[string]interface{}{
		"date": "2024-06-04",
		"participants": []map[string]string{
			{"participantId": "p1", "attendance": "presente"},
		},
	})
	req, err := http.NewRequest("POST", "/api/v1/attendance", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.AttendanceDatabase{}
	a := handlers.Attendance{DB: dbMock}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.CreateAttendanceHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	dbMock.AssertNotCalled(t, "InsertOne")
}

func TestAttendance_FetchAttendancesHandlerEmptyResponse(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/attendance", nil)
	if err != nil {
		t.Fatal(err)
	}

	dbMock := &mocksdb.AttendanceDatabase{}
	dbMock.On("Find", mock.Anything, bson.M{}, mock.Anything).Return(nil, nil)

	a := handlers.Attendance{DB: dbMock}

	rr := httptest.NewRecorder()
	http.HandlerFunc(a.FetchAttendancesHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "[]\n", rr.Body.String())
}

package security

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/internal/database"
	"salonbook/internal/pkg/clock"
)

func newTestLog(t *testing.T) (*Log, *clock.Fixed) {
	t.Helper()

	db, err := database.Connect(filepath.Join(t.TempDir(), "security.db"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Event{}))

	clk := clock.NewFixed(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	return NewLog(db, clk), clk
}

func TestNewEvent_EmptySessionIsNull(t *testing.T) {
	e := NewEvent(EventLoginFailed, SeverityWarn, Origin{IPAddress: "10.0.0.1"}, "Missing credentials")
	assert.Nil(t, e.SessionID)

	e = NewEvent(EventBookingSpam, SeverityWarn, Origin{SessionID: "abc"}, "")
	require.NotNil(t, e.SessionID)
	assert.Equal(t, "abc", *e.SessionID)
}

func TestRecord_DefaultsTimestampAndSeverity(t *testing.T) {
	l, clk := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, Event{EventType: EventBookingCreated, Details: "Booking created: 1"}))

	events, total, err := l.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, SeverityInfo, events[0].Severity)
	assert.True(t, events[0].CreatedAt.Equal(clk.Now()))
}

func TestList_FiltersAndOrdersNewestFirst(t *testing.T) {
	l, clk := newTestLog(t)
	ctx := context.Background()

	l.Write(ctx, NewEvent(EventBookingCreated, SeverityInfo, Origin{SessionID: "s1"}, "first"))
	clk.Advance(time.Minute)
	l.Write(ctx, NewEvent(EventTrollingDetected, SeverityWarn, Origin{SessionID: "s1"}, "second"))
	clk.Advance(time.Minute)
	l.Write(ctx, NewEvent(EventBookingSpam, SeverityWarn, Origin{SessionID: "s2"}, "third"))

	events, total, err := l.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, events, 3)
	assert.Equal(t, "third", events[0].Details)
	assert.Equal(t, "first", events[2].Details)

	events, total, err = l.List(ctx, ListFilter{Severity: SeverityWarn})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, events, 2)

	events, _, err = l.List(ctx, ListFilter{SessionID: "s1", EventType: EventTrollingDetected})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "second", events[0].Details)

	events, total, err = l.List(ctx, ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, events, 1)
	assert.Equal(t, "second", events[0].Details)
}

func TestListEventsHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, _ := newTestLog(t)
	ctx := context.Background()

	l.Write(ctx, NewEvent(EventLoginFailed, SeverityWarn, Origin{}, "Wrong password"))
	l.Write(ctx, NewEvent(EventLoginSuccess, SeverityInfo, Origin{}, "Successful login"))

	r := gin.New()
	NewHandler(l).RegisterAdminRoutes(r.Group("/api/admin"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/security-events?severity=warn", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Events []Event `json:"events"`
			Total  int64   `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.EqualValues(t, 1, body.Data.Total)
	require.Len(t, body.Data.Events, 1)
	assert.Equal(t, EventLoginFailed, body.Data.Events[0].EventType)
}

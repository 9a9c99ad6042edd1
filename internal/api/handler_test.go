package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"facility-monitor-backend/config"
	"facility-monitor-backend/internal/climate"
	"facility-monitor-backend/internal/db"
	"facility-monitor-backend/internal/devices"
	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/notification"
	"facility-monitor-backend/internal/store"
	"facility-monitor-backend/internal/timetrack"
	"facility-monitor-backend/internal/token"
)

const testJWTSecret = "test-secret"

type apiFixture struct {
	store  store.Store
	tokens *token.Manager
	router *gin.Engine
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		sqlDB, _ := gormDB.DB()
		sqlDB.Close()
	})
	return store.NewGormStore(gormDB)
}

// newAPIFixture wires the full request path against an in-memory database:
// one room with a temperature limit, an enabled access point, a sensor device
// with an owner.
func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := newTestStore(t)
	ctx := context.Background()
	log := zap.NewNop()

	room := &model.Room{Name: "office-9"}
	require.NoError(t, s.DB().Create(room).Error)
	require.NoError(t, s.SaveLimit(ctx, &model.Limit{
		RoomID: room.ID, SensorType: model.SensorTemperature,
		LowerBound: 18, UpperBound: 25, MessageUpper: "Open a window.",
	}))
	ap := &model.AccessPoint{ID: 1, RoomID: &room.ID, Status: model.DeviceEnabled, Connected: true, LastConnection: time.Now()}
	require.NoError(t, s.SaveAccessPoint(ctx, ap))
	disabled := &model.AccessPoint{ID: 2, Status: model.DeviceDisabled}
	require.NoError(t, s.SaveAccessPoint(ctx, disabled))
	device := &model.SensorDevice{ID: 10, AccessPointID: &ap.ID, Status: model.DeviceEnabled}
	require.NoError(t, s.DB().Create(device).Error)
	sensor := &model.Sensor{ID: 100, DeviceID: device.ID, Type: model.SensorTemperature, Unit: "°C"}
	require.NoError(t, s.DB().Create(sensor).Error)
	owner := &model.User{ID: 7, Username: "erin", Email: "erin@example.com", Role: model.RoleEmployee, DeviceID: &device.ID}
	require.NoError(t, s.DB().Create(owner).Error)

	cfg := &config.Config{}
	cfg.Server.BaseURL = "http://facility.example.com"
	cfg.Server.RateLimitPerSec = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Server.CacheTTLSeconds = 1
	cfg.Auth.JWTSecret = testJWTSecret
	cfg.Warnings = config.WarningConfig{
		StaleAfterMinutes: 15, DraftMinutes: 5, UnseenMinutes: 30,
		ConfirmedMinutes: 15, IgnoredMinutes: 60, DestroyMinutes: 120,
	}

	tokens := token.NewManager(s, log)
	dispatcher := notification.NewDispatcher(s, nil, nil, cfg.Server.BaseURL, 1, log)
	timeTracking := timetrack.NewService(s, log)
	deviceSvc := devices.NewService(s, dispatcher, 2*time.Minute, log)
	checker := climate.NewChecker(s, 15*time.Minute, log)
	machine := climate.NewMachine(s, tokens, dispatcher, timeTracking, cfg.Warnings, log)

	handler := NewHandler(s, deviceSvc, checker, machine, timeTracking, nil, log)
	return &apiFixture{store: s, tokens: tokens, router: NewRouter(cfg, handler)}
}

// seedActionableWarning creates an unseen warning for the fixture device with
// an issued token, the state a user-facing confirm/ignore link points at.
func (f *apiFixture) seedActionableWarning(t *testing.T) *model.Warning {
	t.Helper()
	ctx := context.Background()
	warning := &model.Warning{
		DeviceID:      10,
		SensorType:    model.SensorTemperature,
		Timestamp:     time.Now(),
		MeasuredValue: 30,
		Status:        model.WarningUnseen,
	}
	require.NoError(t, f.store.SaveWarning(ctx, warning))
	_, err := f.tokens.Issue(ctx, warning)
	require.NoError(t, err)
	return warning
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func bearerFor(t *testing.T, userID int64) map[string]string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + signed}
}

func TestPostMeasurements_RejectsInactiveAccessPoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/measurements/2", []gin.H{
		{"sensor_id": 100, "timestamp": time.Now(), "value": 30.0},
	}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "not active")
}

func TestPostMeasurements_SavesAndOpensDraft(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/measurements/1", []gin.H{
		{"sensor_id": 100, "timestamp": time.Now(), "value": 30.0},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, f.store.DB().Model(&model.Measurement{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	warning, err := f.store.ActiveWarning(context.Background(), 10, model.SensorTemperature)
	require.NoError(t, err)
	require.NotNil(t, warning)
	assert.Equal(t, model.WarningDraft, warning.Status)
}

func TestPostHeartbeat(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/heartbeat/1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodPost, "/api/heartbeat/abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetWarningAction_FullFlow(t *testing.T) {
	f := newAPIFixture(t)

	warning := f.seedActionableWarning(t)
	tok := *warning.TokenContent

	w := f.do(t, http.MethodGet, "/api/warnings?token="+tok+"&status=3", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "temperature")
	assert.Contains(t, w.Body.String(), "CONFIRMED")

	// The token is single use.
	w = f.do(t, http.MethodGet, "/api/warnings?token="+tok+"&status=2", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Token is not valid")
}

func TestGetWarningAction_RejectsBadRequests(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/warnings?status=3", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/warnings?token=x&status=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unseen is not reachable through a link.
	w = f.do(t, http.MethodGet, "/api/warnings?token=x&status=1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/api/warnings?token=unknown&status=3", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNotifications_RequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/notifications", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNotifications_ListAndDelete(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	n := &model.Notification{
		UserID: 7, Kind: model.KindDevice, Header: "AP",
		Message: "Access point 1 lost its connection.", Severity: model.SeverityError,
		DeviceKind: model.DeviceKindAccessPoint, DeviceID: 1, CreatedAt: time.Now(),
	}
	require.NoError(t, f.store.SaveNotification(ctx, n))

	w := f.do(t, http.MethodGet, "/api/notifications", nil, bearerFor(t, 7))
	require.Equal(t, http.StatusOK, w.Code)

	var listed []NotificationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, model.KindDevice, listed[0].Kind)
	assert.Equal(t, []model.NotificationAction{model.ActionDelete}, listed[0].Actions)

	// Another user cannot see or touch it.
	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/notifications/%d", n.ID), nil, bearerFor(t, 8))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(t, http.MethodDelete, fmt.Sprintf("/api/notifications/%d", n.ID), nil, bearerFor(t, 7))
	assert.Equal(t, http.StatusNoContent, w.Code)

	remaining, err := f.store.NotificationsByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestNotifications_ConfirmActsOnWarning(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	warning := f.seedActionableWarning(t)

	n := &model.Notification{
		UserID: 7, Kind: model.KindWarning, Header: "Room Climate Violation",
		Message: "temperature is too high.", TokenContent: warning.TokenContent, CreatedAt: time.Now(),
	}
	require.NoError(t, f.store.SaveNotification(ctx, n))

	w := f.do(t, http.MethodPost, fmt.Sprintf("/api/notifications/%d/confirm", n.ID), nil, bearerFor(t, 7))
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := f.store.WarningByID(ctx, warning.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WarningConfirmed, updated.Status)

	// Confirming resolved the warning, which cleared the bell entry.
	remaining, err := f.store.NotificationsByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestGetRooms(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/rooms", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rooms []RoomResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "office-9", rooms[0].Name)
	require.Len(t, rooms[0].Limits, 1)
	assert.Equal(t, model.SensorTemperature, rooms[0].Limits[0].SensorType)
}

func TestSubscriptions_PutAndDelete(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	w := f.do(t, http.MethodPut, "/api/subscriptions", gin.H{
		"endpoint": "https://push.example.com/x", "p256dh": "key", "auth": "secret",
	}, bearerFor(t, 7))
	require.Equal(t, http.StatusCreated, w.Code)

	subs, err := f.store.SubscriptionsByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	w = f.do(t, http.MethodGet, "/api/subscriptions", nil, bearerFor(t, 7))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://push.example.com/x")

	w = f.do(t, http.MethodDelete, "/api/subscriptions", gin.H{
		"endpoint": "https://push.example.com/x",
	}, bearerFor(t, 7))
	require.Equal(t, http.StatusNoContent, w.Code)

	subs, err = f.store.SubscriptionsByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestGetVAPIDPublicKey_Unconfigured(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/api/vapid_public_key", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

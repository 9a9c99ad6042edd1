package devices

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"facility-monitor-backend/internal/db"
	"facility-monitor-backend/internal/model"
	"facility-monitor-backend/internal/notification"
	"facility-monitor-backend/internal/store"
)

type capturingPublisher struct {
	events []notification.DeviceEvent
}

func (p *capturingPublisher) PublishDevice(_ context.Context, ev notification.DeviceEvent) error {
	p.events = append(p.events, ev)
	return nil
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

func TestService_HeartbeatRegistersUnknownAccessPoint(t *testing.T) {
	s := newTestStore(t)
	pub := &capturingPublisher{}
	svc := NewService(s, pub, 2*time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Heartbeat(ctx, 42))

	ap, err := s.AccessPointByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, model.DeviceUnregistered, ap.Status)
	assert.True(t, ap.Connected)

	require.Len(t, pub.events, 1)
	assert.Equal(t, model.DeviceKindAccessPoint, pub.events[0].DeviceKind)
	assert.Equal(t, model.SeverityInfo, pub.events[0].Severity)
	assert.Contains(t, pub.events[0].Message, "registered")
}

func TestService_HeartbeatAnnouncesReconnect(t *testing.T) {
	s := newTestStore(t)
	pub := &capturingPublisher{}
	svc := NewService(s, pub, 2*time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.SaveAccessPoint(ctx, &model.AccessPoint{
		ID: 1, Status: model.DeviceEnabled, Connected: false,
		LastConnection: time.Now().Add(-time.Hour),
	}))

	require.NoError(t, svc.Heartbeat(ctx, 1))
	require.Len(t, pub.events, 1)
	assert.Contains(t, pub.events[0].Message, "connected again")

	// A heartbeat while already connected stays quiet.
	require.NoError(t, svc.Heartbeat(ctx, 1))
	assert.Len(t, pub.events, 1)
}

func TestService_ActiveRequiresEnabledStatus(t *testing.T) {
	s := newTestStore(t)
	svc := NewService(s, &capturingPublisher{}, 2*time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.SaveAccessPoint(ctx, &model.AccessPoint{ID: 1, Status: model.DeviceEnabled}))
	require.NoError(t, s.SaveAccessPoint(ctx, &model.AccessPoint{ID: 2, Status: model.DeviceDisabled}))
	require.NoError(t, s.SaveAccessPoint(ctx, &model.AccessPoint{ID: 3, Status: model.DeviceUnregistered}))

	for id, want := range map[int64]bool{1: true, 2: false, 3: false, 4: false} {
		active, err := svc.Active(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, active, "access point %d", id)
	}
}

func TestService_WatchdogFlagsSilentAccessPoints(t *testing.T) {
	s := newTestStore(t)
	pub := &capturingPublisher{}
	svc := NewService(s, pub, 2*time.Minute, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.SaveAccessPoint(ctx, &model.AccessPoint{
		ID: 1, Status: model.DeviceEnabled, Connected: true,
		LastConnection: time.Now().Add(-10 * time.Minute),
	}))
	require.NoError(t, s.SaveAccessPoint(ctx, &model.AccessPoint{
		ID: 2, Status: model.DeviceEnabled, Connected: true,
		LastConnection: time.Now(),
	}))

	require.NoError(t, svc.CheckConnections(ctx))

	stale, err := s.AccessPointByID(ctx, 1)
	require.NoError(t, err)
	assert.False(t, stale.Connected)

	fresh, err := s.AccessPointByID(ctx, 2)
	require.NoError(t, err)
	assert.True(t, fresh.Connected)

	require.Len(t, pub.events, 1)
	assert.Equal(t, model.DeviceKindServer, pub.events[0].DeviceKind, "the report is the server's observation")
	assert.Equal(t, model.SeverityError, pub.events[0].Severity)
	assert.Equal(t, int64(1), pub.events[0].DeviceID)
}

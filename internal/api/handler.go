package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"facility-monitor-backend/internal/climate"
	"facility-monitor-backend/internal/devices"
	"facility-monitor-backend/internal/store"
	"facility-monitor-backend/internal/timetrack"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	devices   *devices.Service
	checker   *climate.Checker
	warnings  *climate.Machine
	timetrack *timetrack.Service
	webpush   *webpush.Options
	log       *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, d *devices.Service, checker *climate.Checker, warnings *climate.Machine, tt *timetrack.Service, webpushOptions *webpush.Options, log *zap.Logger) *Handler {
	return &Handler{
		store:     s,
		devices:   d,
		checker:   checker,
		warnings:  warnings,
		timetrack: tt,
		webpush:   webpushOptions,
		log:       log,
	}
}

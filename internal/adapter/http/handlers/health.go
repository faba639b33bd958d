package handlers

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AmimerNabil/achieveai/internal/adapter/http/middleware"
	"github.com/AmimerNabil/achieveai/internal/core/ports"
)

const (
	StatusOk           = "ok"
	StatusDown         = "down"
	healthStoreTimeout = 2 * time.Second
)

type HealthBasic struct {
	AppName           string `json:"app_name"`
	AppVersion        string `json:"app_version"`
	CurrentSystemTime string `json:"current_system_time"`
	Message           string `json:"message"`
}

type HealthServices struct {
	Store string `json:"store"`
}

type HealthAdvanced struct {
	AppName           string         `json:"app_name"`
	AppVersion        string         `json:"app_version"`
	CurrentSystemTime string         `json:"current_system_time"`
	Language          string         `json:"language"`
	StoreDriver       string         `json:"store_driver"`
	Status            HealthServices `json:"status"`
}

type HealthHandler struct {
	store       ports.HealthChecker
	storeDriver string
}

func NewHealthHandler(store ports.HealthChecker, storeDriver string) *HealthHandler {
	return &HealthHandler{store: store, storeDriver: storeDriver}
}

func (h *HealthHandler) CheckHealth(c *gin.Context) {
	statusCode := http.StatusOK
	message := StatusOk

	if !h.checkConnectionToStore(c.Request.Context()) {
		statusCode = http.StatusInternalServerError
		message = StatusDown
	}

	c.JSON(statusCode, HealthBasic{
		AppName:           os.Getenv("APP_NAME"),
		AppVersion:        getAppVersion(),
		CurrentSystemTime: time.Now().Format(time.DateTime),
		Message:           message,
	})
}

func (h *HealthHandler) CheckHealthReport(c *gin.Context) {
	storeStatus := StatusDown
	if h.checkConnectionToStore(c.Request.Context()) {
		storeStatus = StatusOk
	}

	c.JSON(http.StatusOK, HealthAdvanced{
		AppName:           os.Getenv("APP_NAME"),
		AppVersion:        getAppVersion(),
		CurrentSystemTime: time.Now().Format(time.DateTime),
		Language:          middleware.GetLang(c),
		StoreDriver:       h.storeDriver,
		Status: HealthServices{
			Store: storeStatus,
		},
	})
}

func (h *HealthHandler) checkConnectionToStore(ctx context.Context) bool {
	if h.store == nil {
		return false
	}
	// Avoid hanging health checks if the store stalls.
	timeoutCtx, cancel := context.WithTimeout(ctx, healthStoreTimeout)
	defer cancel()
	return h.store.Ping(timeoutCtx) == nil
}

func getAppVersion() string {
	version := os.Getenv("APP_VERSION")
	if version == "" {
		return "dev"
	}
	return version
}

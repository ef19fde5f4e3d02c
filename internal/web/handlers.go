// internal/web/handlers.go
package web

import (
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/sirupsen/logrus"
    "piwatch/internal/agent"
    "piwatch/internal/store"
)

// metricRanges maps the dashboard's range selector to a lookback window.
var metricRanges = map[string]time.Duration{
    "1h":  time.Hour,
    "6h":  6 * time.Hour,
    "24h": 24 * time.Hour,
    "7d":  7 * 24 * time.Hour,
}

func (s *Server) getDevices(c *gin.Context) {
    devices, err := s.store.GetDevices(c.Request.Context())
    if err != nil {
        logrus.WithError(err).Error("Failed to get devices")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get devices"})
        return
    }

    result := make([]store.DeviceWithStatus, 0, len(devices))
    for _, device := range devices {
        result = append(result, s.joinDevice(c, device))
    }

    c.JSON(http.StatusOK, gin.H{
        "data":  result,
        "count": len(result),
    })
}

func (s *Server) getDevice(c *gin.Context) {
    id := c.Param("id")

    device, err := s.store.GetDevice(c.Request.Context(), id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
            return
        }
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get device"})
        return
    }

    joined := s.joinDevice(c, *device)
    c.JSON(http.StatusOK, gin.H{"data": joined})
}

// joinDevice attaches the status row and latest sample to a device record.
// Either may be absent for a device that has never been polled.
func (s *Server) joinDevice(c *gin.Context, device store.Device) store.DeviceWithStatus {
    ctx := c.Request.Context()
    joined := store.DeviceWithStatus{Device: device}

    status, err := s.store.GetDeviceStatus(ctx, device.ID)
    if err == nil {
        joined.Status = status
    } else if !errors.Is(err, store.ErrNotFound) {
        logrus.WithError(err).WithField("device", device.Name).Warn("Failed to load device status")
    }

    latest, err := s.store.GetLatestMetric(ctx, device.ID)
    if err == nil {
        joined.LatestMetrics = latest
    } else if !errors.Is(err, store.ErrNotFound) {
        logrus.WithError(err).WithField("device", device.Name).Warn("Failed to load latest metrics")
    }

    return joined
}

type deviceRequest struct {
    Name  string  `json:"name" binding:"required"`
    Host  string  `json:"host" binding:"required"`
    Port  int     `json:"port"`
    Token *string `json:"token"`
}

func (s *Server) createDevice(c *gin.Context) {
    var req deviceRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    if req.Port == 0 {
        req.Port = agent.DefaultPort
    }

    device := &store.Device{
        Name:  req.Name,
        Host:  req.Host,
        Port:  req.Port,
        Token: req.Token,
    }

    if err := s.store.CreateDevice(c.Request.Context(), device); err != nil {
        logrus.WithError(err).Error("Failed to create device")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create device"})
        return
    }

    logrus.WithFields(logrus.Fields{
        "device": device.Name,
        "host":   device.Host,
    }).Info("Device registered")

    c.JSON(http.StatusCreated, gin.H{"data": device})
}

func (s *Server) updateDevice(c *gin.Context) {
    id := c.Param("id")

    device, err := s.store.GetDevice(c.Request.Context(), id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
            return
        }
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get device"})
        return
    }

    var req deviceRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    device.Name = req.Name
    device.Host = req.Host
    if req.Port != 0 {
        device.Port = req.Port
    }
    device.Token = req.Token

    if err := s.store.UpdateDevice(c.Request.Context(), device); err != nil {
        logrus.WithError(err).Error("Failed to update device")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update device"})
        return
    }

    c.JSON(http.StatusOK, gin.H{"data": device})
}

func (s *Server) deleteDevice(c *gin.Context) {
    id := c.Param("id")

    if err := s.store.DeleteDevice(c.Request.Context(), id); err != nil {
        if errors.Is(err, store.ErrNotFound) {
            c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
            return
        }
        logrus.WithError(err).Error("Failed to delete device")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete device"})
        return
    }

    c.JSON(http.StatusOK, gin.H{"message": "Device deleted"})
}

func (s *Server) getDeviceMetrics(c *gin.Context) {
    id := c.Param("id")

    if _, err := s.store.GetDevice(c.Request.Context(), id); err != nil {
        if errors.Is(err, store.ErrNotFound) {
            c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
            return
        }
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get device"})
        return
    }

    filters := store.MetricFilters{DeviceID: id}

    window, ok := metricRanges[c.DefaultQuery("range", "1h")]
    if !ok {
        c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid range, use one of: 1h, 6h, 24h, 7d"})
        return
    }
    since := time.Now().Add(-window)
    filters.Since = &since

    if limitStr := c.Query("limit"); limitStr != "" {
        limit, err := strconv.Atoi(limitStr)
        if err != nil || limit < 1 {
            c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
            return
        }
        filters.Limit = limit
    }

    samples, err := s.store.GetMetrics(c.Request.Context(), filters)
    if err != nil {
        logrus.WithError(err).Error("Failed to get metrics")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get metrics"})
        return
    }

    c.JSON(http.StatusOK, gin.H{
        "data":  samples,
        "count": len(samples),
    })
}

func (s *Server) getAlerts(c *gin.Context) {
    filters := store.AlertFilters{
        DeviceID:   c.Query("device_id"),
        Type:       c.Query("type"),
        Unresolved: c.Query("unresolved") == "true",
    }

    if limitStr := c.Query("limit"); limitStr != "" {
        limit, err := strconv.Atoi(limitStr)
        if err != nil || limit < 1 {
            c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
            return
        }
        filters.Limit = limit
    } else {
        filters.Limit = 100
    }

    alerts, err := s.store.GetAlerts(c.Request.Context(), filters)
    if err != nil {
        logrus.WithError(err).Error("Failed to get alerts")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get alerts"})
        return
    }

    c.JSON(http.StatusOK, gin.H{
        "data":  alerts,
        "count": len(alerts),
    })
}

func (s *Server) resolveAlert(c *gin.Context) {
    id := c.Param("id")

    alert, err := s.store.ResolveAlert(c.Request.Context(), id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
            return
        }
        logrus.WithError(err).Error("Failed to resolve alert")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve alert"})
        return
    }

    c.JSON(http.StatusOK, gin.H{"data": alert})
}

func (s *Server) getSettings(c *gin.Context) {
    settings, err := s.store.GetSettings(c.Request.Context())
    if err != nil {
        logrus.WithError(err).Error("Failed to get settings")
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get settings"})
        return
    }

    c.JSON(http.StatusOK, gin.H{"data": settings})
}

// updateSettings accepts a partial map of settings. Unknown keys are
// rejected and numeric keys are validated before anything is written, so a
// bad request leaves the store untouched.
func (s *Server) updateSettings(c *gin.Context) {
    var req map[string]string
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
        return
    }

    for key, value := range req {
        if _, known := store.SettingDefaults[key]; !known {
            c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown setting: " + key})
            return
        }
        if v, err := strconv.ParseFloat(value, 64); err != nil || v <= 0 {
            c.JSON(http.StatusBadRequest, gin.H{"error": "Setting " + key + " must be a positive number"})
            return
        }
    }

    for key, value := range req {
        if err := s.store.PutSetting(c.Request.Context(), key, value); err != nil {
            logrus.WithError(err).WithField("key", key).Error("Failed to store setting")
            c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store setting"})
            return
        }
    }

    settings, err := s.store.GetSettings(c.Request.Context())
    if err != nil {
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get settings"})
        return
    }

    logrus.WithField("changed", len(req)).Info("Settings updated")
    c.JSON(http.StatusOK, gin.H{"data": settings})
}

func (s *Server) getDeviceCron(c *gin.Context) {
    id := c.Param("id")

    device, err := s.store.GetDevice(c.Request.Context(), id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
            return
        }
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get device"})
        return
    }

    cron, err := s.engine.Agent().Cron(c.Request.Context(), device)
    if err != nil {
        logrus.WithError(err).WithField("device", device.Name).Warn("Cron query failed")
        c.JSON(http.StatusBadGateway, gin.H{"error": "Agent unreachable"})
        return
    }

    c.Data(http.StatusOK, "application/json", cron)
}

func (s *Server) rebootDevice(c *gin.Context) {
    id := c.Param("id")

    device, err := s.store.GetDevice(c.Request.Context(), id)
    if err != nil {
        if errors.Is(err, store.ErrNotFound) {
            c.JSON(http.StatusNotFound, gin.H{"error": "Device not found"})
            return
        }
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get device"})
        return
    }

    if err := s.engine.Agent().Reboot(c.Request.Context(), device); err != nil {
        logrus.WithError(err).WithField("device", device.Name).Warn("Reboot request failed")
        c.JSON(http.StatusBadGateway, gin.H{"error": "Agent unreachable"})
        return
    }

    logrus.WithField("device", device.Name).Info("Reboot requested")
    c.JSON(http.StatusOK, gin.H{"message": "Reboot requested"})
}

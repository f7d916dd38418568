package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers
    "time"     // time stamps the health payload

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// isoMillis matches the timestamp layout JavaScript clients expect from
// Date.prototype.toISOString.
const isoMillis = "2006-01-02T15:04:05.000Z"

// HealthHandler reports that the service is up and which mode it runs in.
type HealthHandler struct {
    Mode string
    Now  func() time.Time
}

// NewHealthHandler constructs a HealthHandler that uses the wall clock.
func NewHealthHandler(mode string) *HealthHandler {
    return &HealthHandler{Mode: mode, Now: time.Now}
}

// Health returns {status, mode, timestamp} with a 200 status.  Any error
// while building the payload is answered with {status:"error", message}.
func (h *HealthHandler) Health(c echo.Context) (err error) {
    defer func() {
        if r := recover(); r != nil {
            c.Logger().Errorf("health: %v", r)
            err = c.JSON(http.StatusInternalServerError, echo.Map{"status": "error", "message": "health check failed"})
        }
    }()
    return c.JSON(http.StatusOK, echo.Map{
        "status":    "ok",
        "mode":      h.Mode,
        "timestamp": h.Now().UTC().Format(isoMillis),
    })
}

package middleware

import (
    "log"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
)

// RequestLogger logs one line per request with method, path, status,
// latency and request id.  Handler errors are included so 500s can be traced
// back to their cause.
func RequestLogger(logger *log.Logger) echo.MiddlewareFunc {
    return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
        LogMethod:    true,
        LogURI:       true,
        LogStatus:    true,
        LogLatency:   true,
        LogRequestID: true,
        LogError:     true,
        HandleError:  true,
        LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
            if v.Error != nil {
                logger.Printf("request method=%s uri=%s status=%d latency=%s request_id=%s error=%q",
                    v.Method, v.URI, v.Status, v.Latency.Round(time.Microsecond), v.RequestID, v.Error.Error())
                return nil
            }
            logger.Printf("request method=%s uri=%s status=%d latency=%s request_id=%s",
                v.Method, v.URI, v.Status, v.Latency.Round(time.Microsecond), v.RequestID)
            return nil
        },
    })
}

package handler

import (
    "errors"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"
)

// Messages returned to callers.  Internal details never leave the process.
const (
    msgNotFound      = "Attraction not found"
    msgInternalError = "Internal Server Error"
    msgInvalidBody   = "Invalid request body"
)

// errNotFound is the 404 every /attractions/:id route answers with.
var errNotFound = echo.NewHTTPError(http.StatusNotFound, msgNotFound)

// NewErrorHandler returns an echo.HTTPErrorHandler that renders every error as
// {"error": message}.  echo.HTTPErrors below 500 keep their message; anything
// else is logged with the request id and reported as a generic 500.
func NewErrorHandler(logger *log.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }

        code := http.StatusInternalServerError
        msg := msgInternalError
        var he *echo.HTTPError
        if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
            code = he.Code
            if m, ok := he.Message.(string); ok {
                msg = m
            } else {
                msg = http.StatusText(code)
            }
        } else {
            logger.Printf("internal error: method=%s uri=%s request_id=%s error=%v",
                c.Request().Method, c.Request().RequestURI, requestID(c), err)
        }

        var werr error
        if c.Request().Method == http.MethodHead {
            werr = c.NoContent(code)
        } else {
            werr = c.JSON(code, echo.Map{"error": msg})
        }
        if werr != nil {
            logger.Printf("error handler: write response: %v", werr)
        }
    }
}

func requestID(c echo.Context) string {
    if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
        return id
    }
    return c.Request().Header.Get(echo.HeaderXRequestID)
}

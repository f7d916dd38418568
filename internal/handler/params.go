package handler

import (
    "errors"
    "io"
    "mime"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/attraction-registry/internal/model"
)

// parseID reads the leading integer of raw the way lenient clients write ids:
// surrounding whitespace is skipped, an optional sign is accepted, a 0x or 0X
// prefix switches to hex and parsing stops at the first invalid digit, so
// "12abc" and "12.5" both give 12 and "0x1f" gives 31.  ok is false when raw
// has no leading digits; callers treat that as not found.
func parseID(raw string) (id int, ok bool) {
    s := strings.TrimLeft(raw, " \t\n\r\v\f")
    neg := false
    if s != "" && (s[0] == '+' || s[0] == '-') {
        neg, s = s[0] == '-', s[1:]
    }
    base := 10
    if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
        base, s = 16, s[2:]
    }
    end := 0
    for end < len(s) && isDigit(s[end], base) {
        end++
    }
    if end == 0 {
        return 0, false
    }
    n, err := strconv.ParseInt(s[:end], base, strconv.IntSize)
    if err != nil { // out of range for int, cannot match any record
        return 0, false
    }
    if neg {
        n = -n
    }
    return int(n), true
}

func isDigit(b byte, base int) bool {
    switch {
    case b >= '0' && b <= '9':
        return true
    case base == 16:
        return (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
    }
    return false
}

// bindPayload decodes the request body into attribute values, keeping every
// key and every value as sent.  JSON objects go through echo's JSON
// serializer; other JSON values carry no attributes.  Form bodies (urlencoded
// or multipart) give string values.  Bodies of any other media type are
// ignored.  Only a body that cannot be parsed at all is rejected.
func bindPayload(c echo.Context) (model.Payload, error) {
    switch mediaType(c.Request()) {
    case echo.MIMEApplicationJSON:
        return bindJSON(c)
    case echo.MIMEApplicationForm, echo.MIMEMultipartForm:
        return bindForm(c)
    default:
        return model.Payload{}, nil
    }
}

func bindJSON(c echo.Context) (model.Payload, error) {
    if c.Request().ContentLength == 0 {
        return model.Payload{}, nil
    }
    var body any
    if err := c.Echo().JSONSerializer.Deserialize(c, &body); err != nil {
        if errors.Is(err, io.EOF) {
            return model.Payload{}, nil
        }
        return nil, echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody).SetInternal(err)
    }
    if obj, ok := body.(map[string]any); ok {
        return model.Payload(obj), nil
    }
    return model.Payload{}, nil
}

func bindForm(c echo.Context) (model.Payload, error) {
    if _, err := c.FormParams(); err != nil {
        return nil, echo.NewHTTPError(http.StatusBadRequest, msgInvalidBody).SetInternal(err)
    }
    // PostForm leaves out query string values that FormParams merges in.
    params := c.Request().PostForm
    p := make(model.Payload, len(params))
    for k, vs := range params {
        switch len(vs) {
        case 0:
        case 1:
            p[k] = vs[0]
        default:
            all := make([]any, len(vs))
            for i, v := range vs {
                all[i] = v
            }
            p[k] = all
        }
    }
    return p, nil
}

func mediaType(r *http.Request) string {
    mt, _, err := mime.ParseMediaType(r.Header.Get(echo.HeaderContentType))
    if err != nil {
        return ""
    }
    return mt
}

package sanitize

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Bind decodes the JSON request body, sanitizes it with Object and decodes the
// result into dst, then runs the echo validator when one is installed. Only
// malformed JSON and validation failures produce errors.
func Bind(c echo.Context, dst any, richText ...string) error {
	var raw any
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}

	clean, err := json.Marshal(Object(raw, richText))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := json.NewDecoder(bytes.NewReader(clean)).Decode(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}

	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(dst); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error()).SetInternal(err)
	}
	return nil
}

package handler

import "github.com/labstack/echo/v4"

// envelope is the success wrapper every endpoint responds with:
// {"status":"success","data":…}. Errors use the central error handler.
type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Status: "success", Data: data})
}

package api

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
)

// requestBodyMaxSize caps decoded request bodies.
const requestBodyMaxSize = 16 * 1024 // 16 KiB

var errInvalidPage = errors.New("invalid page")

// decodeBody decodes a JSON request body strictly: unknown fields and
// oversized payloads are rejected.
func decodeBody(c echo.Context, dst any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, requestBodyMaxSize))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// pageParam reads the 1-based page number from the query string. A missing
// parameter means the first page; garbage is the caller's error.
func pageParam(c echo.Context) (int, error) {
	raw := strings.TrimSpace(c.QueryParam("page"))
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, errInvalidPage
	}
	return page, nil
}

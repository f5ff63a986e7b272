// Package api
package api

import (
	"strconv"

	"github.com/labstack/echo"
)

func getPagingOption(c echo.Context) (int, int) {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 0 {
		page = 0
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = 25
	}
	return page, limit
}

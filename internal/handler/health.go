package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint for load balancers and
// monitoring.  It returns a plain text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>SkillHub API</title></head>
<body>
<h1>SkillHub API</h1>
<ul>
<li><a href="/collection/lessons">/collection/lessons</a></li>
<li><a href="/search/lessons?q=">/search/lessons?q=</a></li>
<li><a href="/collection/orders">/collection/orders</a></li>
</ul>
</body>
</html>
`

// Index lists the public collections as HTML links.
func Index(c echo.Context) error {
	return c.HTML(http.StatusOK, indexHTML)
}

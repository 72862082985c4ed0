// sse.go - Server-sent event helpers shared by the streaming handlers
package api

import (
	"encoding/json"
	"fmt"

	"github.com/labstack/echo/v4"
)

func sendSSEData(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}

func sendSSEError(c echo.Context, message string) {
	sendSSEData(c, map[string]string{"error": message})
}

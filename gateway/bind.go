package gateway

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errEmptyBody = errors.New("request body is empty")

// bindJSON decodes and validates the body, rejecting an empty one with a clear message.
func bindJSON(c *gin.Context, obj any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return errEmptyBody
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

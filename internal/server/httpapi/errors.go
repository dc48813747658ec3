package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/dmitrijs2005/linkup/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// statusOf is the single place error kinds become HTTP statuses.
func statusOf(k common.Kind) int {
	switch k {
	case common.KindValidation, common.KindOwnership:
		return http.StatusBadRequest
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	case common.KindAuth:
		return http.StatusUnauthorized
	case common.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *HTTPServer) fail(c *gin.Context, err error) {
	kind := common.KindOf(err)
	status := statusOf(kind)

	ctx := c.Request.Context()
	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error(ctx, "request failed", "path", c.Request.URL.Path, "kind", kind.String(), "error", err)
	case kind == common.KindOwnership:
		s.logger.Warn(ctx, "request rejected", "path", c.Request.URL.Path, "kind", kind.String(), "error", err)
	default:
		s.logger.Debug(ctx, "request rejected", "path", c.Request.URL.Path, "kind", kind.String(), "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"error": common.MessageOf(err)})
}

var registerTagNames sync.Once

// useJSONFieldNames makes validation errors name fields the way clients
// send them.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindMessage describes the first violated field constraint in err, or
// returns a generic message for bodies that are not valid JSON.
func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func (s *HTTPServer) badRequest(c *gin.Context, err error) {
	s.logger.Debug(c.Request.Context(), "invalid request body", "path", c.Request.URL.Path, "error", err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": bindMessage(err)})
}

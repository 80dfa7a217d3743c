package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/cartelera/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/cartelera/internal/model"
)

// APIError is rendered as {"error": Message} with status Code.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func BadRequest(msg string) *APIError { return &APIError{Code: http.StatusBadRequest, Message: msg} }
func Unauthorized(msg string) *APIError {
	return &APIError{Code: http.StatusUnauthorized, Message: msg}
}
func NotFound(msg string) *APIError   { return &APIError{Code: http.StatusNotFound, Message: msg} }
func Forbidden(msg string) *APIError  { return &APIError{Code: http.StatusForbidden, Message: msg} }
func Conflict(msg string) *APIError   { return &APIError{Code: http.StatusConflict, Message: msg} }
func Internal(msg string) *APIError   { return &APIError{Code: http.StatusInternalServerError, Message: msg} }

// Response lets a handler pick a status other than 200.
type Response struct {
	Code int
	Body any
}

func Created(body any) Response  { return Response{Code: http.StatusCreated, Body: body} }
func Accepted(body any) Response { return Response{Code: http.StatusAccepted, Body: body} }

type AuthHandlerFunc func(ctx *gin.Context, user *model.User) (any, *APIError)
type HandlerFunc func(ctx *gin.Context) (any, *APIError)

// Controller wraps a gin group and adapts handlers to it.
type Controller struct {
	Group *gin.RouterGroup
}

func (c *Controller) GET(path string, h AuthHandlerFunc)    { c.Group.GET(path, resolveWithAuth(h)) }
func (c *Controller) POST(path string, h AuthHandlerFunc)   { c.Group.POST(path, resolveWithAuth(h)) }
func (c *Controller) PUT(path string, h AuthHandlerFunc)    { c.Group.PUT(path, resolveWithAuth(h)) }
func (c *Controller) DELETE(path string, h AuthHandlerFunc) { c.Group.DELETE(path, resolveWithAuth(h)) }

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc)  { c.Group.GET(path, resolve(h)) }
func (c *Controller) PUBLIC_POST(path string, h HandlerFunc) { c.Group.POST(path, resolve(h)) }

func resolveWithAuth(h AuthHandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, ok := middleware.GetCurrentUser(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		result, apiErr := h(ctx, user)
		render(ctx, result, apiErr)
	}
}

func resolve(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		render(ctx, result, apiErr)
	}
}

func render(ctx *gin.Context, result any, apiErr *APIError) {
	if apiErr != nil {
		if apiErr.Code >= http.StatusInternalServerError {
			log.Error().Str("path", ctx.FullPath()).Int("status", apiErr.Code).Msg(apiErr.Message)
		}
		ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
		return
	}
	// the handler already wrote its own response (e.g. 304)
	if ctx.Writer.Written() {
		return
	}
	switch r := result.(type) {
	case Response:
		if r.Body == nil {
			ctx.Status(r.Code)
			return
		}
		ctx.JSON(r.Code, r.Body)
	case nil:
		ctx.Status(http.StatusNoContent)
	default:
		ctx.JSON(http.StatusOK, result)
	}
}

// Package response writes the JSON envelopes every endpoint returns.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cafe-pos-api/apperr"
)

// RequestIDKey is where the request id lives in the gin context.
const RequestIDKey = "requestID"

type successBody struct {
	Data      any      `json:"data"`
	Errors    []string `json:"errors"`
	Timestamp string   `json:"timestamp"`
	Message   string   `json:"message,omitempty"`
}

type errorBody struct {
	Data       any      `json:"data"`
	Errors     []string `json:"errors"`
	Timestamp  string   `json:"timestamp"`
	RequestID  string   `json:"requestId"`
	StatusCode int      `json:"statusCode"`
	ErrorCode  string   `json:"errorCode,omitempty"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// OK writes a 200 success envelope.
func OK(c *gin.Context, data any, message ...string) {
	Success(c, http.StatusOK, data, message...)
}

func Created(c *gin.Context, data any, message ...string) {
	Success(c, http.StatusCreated, data, message...)
}

func Success(c *gin.Context, status int, data any, message ...string) {
	body := successBody{Data: data, Errors: []string{}, Timestamp: now()}
	if len(message) > 0 {
		body.Message = message[0]
	}
	c.JSON(status, body)
}

// Error writes the failure envelope and aborts the chain. Errors that are
// not *apperr.Error are logged and reported as INTERNAL_ERROR.
func Error(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		Logger(c).WithError(err).Error("request failed")
		e = apperr.Internal("An unexpected error occurred")
	}
	msgs := e.Messages
	if msgs == nil {
		msgs = []string{}
	}
	c.AbortWithStatusJSON(e.Status, errorBody{
		Data:       e.Data,
		Errors:     msgs,
		Timestamp:  now(),
		RequestID:  c.GetString(RequestIDKey),
		StatusCode: e.Status,
		ErrorCode:  e.Code,
	})
}

const loggerKey = "logger"

// SetLogger stores the request-scoped log entry.
func SetLogger(c *gin.Context, l *logrus.Entry) {
	c.Set(loggerKey, l)
}

// Logger returns the request-scoped entry, or the standard logger when unset.
func Logger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*logrus.Entry); ok {
			return l
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

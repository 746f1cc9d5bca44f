package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/feichai0017/document-condenser/internal/models"
	"github.com/feichai0017/document-condenser/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeCondenser struct {
	calls int
	out   string
	err   error
}

func (f *fakeCondenser) Condense(_ context.Context, text string, ratio float64) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.out, nil
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func processRouter(c Condenser) *gin.Engine {
	r := gin.New()
	r.POST("/process", NewProcessHandler(c, logger.NewNop()).Process)
	return r
}

func TestProcess_ReturnsAttachment(t *testing.T) {
	fc := &fakeCondenser{out: "short version"}

	w := postForm(processRouter(fc), "/process", url.Values{"text": {"a long text"}, "ratio": {"0.3"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "short version", w.Body.String())
	assert.Equal(t, "attachment; filename=processed.txt", w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Equal(t, 1, fc.calls)
}

func TestProcess_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{name: "missing text", form: url.Values{"ratio": {"0.5"}}},
		{name: "missing ratio", form: url.Values{"text": {"hello"}}},
		{name: "ratio not a number", form: url.Values{"text": {"hello"}, "ratio": {"half"}}},
		{name: "ratio too low", form: url.Values{"text": {"hello"}, "ratio": {"0.05"}}},
		{name: "ratio too high", form: url.Values{"text": {"hello"}, "ratio": {"1.2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeCondenser{}
			w := postForm(processRouter(fc), "/process", tt.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Zero(t, fc.calls)
		})
	}
}

func TestProcess_Failures(t *testing.T) {
	w := postForm(processRouter(&fakeCondenser{err: errors.New("upstream exploded")}),
		"/process", url.Values{"text": {"hello"}, "ratio": {"0.5"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "upstream exploded")

	w = postForm(processRouter(&fakeCondenser{err: &models.ValidationError{Field: "text", Message: "empty input"}}),
		"/process", url.Values{"text": {"   "}, "ratio": {"0.5"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/restblog"
	"github.com/klass-lk/restblog/internal/model"
	"github.com/klass-lk/restblog/internal/view"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) Create(ctx context.Context, post model.Post) (model.Post, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) List(ctx context.Context) ([]model.Post, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Post), args.Error(1)
}

func (m *MockPostStore) Get(ctx context.Context, id string) (model.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) Replace(ctx context.Context, id string, form model.PostForm) (model.Post, error) {
	args := m.Called(ctx, id, form)
	return args.Get(0).(model.Post), args.Error(1)
}

func (m *MockPostStore) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestServer(t *testing.T) *restblog.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl, err := view.Templates()
	require.NoError(t, err)

	server := restblog.New()
	server.WithPoweredBy("restblog-test")
	server.WithTemplates(tmpl)
	return server
}

func serve(server *restblog.Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, req)
	return w
}

package restblog

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type titleRequest struct {
	Title string `json:"title" form:"title" binding:"required"`
}

type titleResponse struct {
	Title string `json:"title"`
}

func markCalled(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(key, true)
		c.Next()
	}
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("group paths include the base path", func(t *testing.T) {
		server := &Server{engine: gin.New(), basePath: "/api"}
		group := server.Group("/v1").Group("/blogs")
		assert.Equal(t, "/api/v1/blogs", group.BasePath())
	})

	t.Run("controller registration", func(t *testing.T) {
		server := &Server{engine: gin.New()}
		controller := &MockController{}
		server.RegisterController("/blogs", controller)
		assert.Equal(t, "/blogs", controller.basePath)
	})

	t.Run("handler shapes", func(t *testing.T) {
		tests := []struct {
			name        string
			handler     interface{}
			method      string
			contentType string
			body        string
			wantCode    int
			wantBody    string
			wantJSON    bool
		}{
			{
				name:     "gin handler",
				handler:  func(c *gin.Context) { c.String(http.StatusAccepted, "raw") },
				method:   http.MethodGet,
				wantCode: http.StatusAccepted,
				wantBody: "raw",
			},
			{
				name:     "context handler",
				handler:  func(ctx *Context) { ctx.RedirectAfter("/blogs") },
				method:   http.MethodPost,
				wantCode: http.StatusSeeOther,
			},
			{
				name:     "no arguments",
				handler:  func() (string, error) { return "plain", nil },
				method:   http.MethodGet,
				wantCode: http.StatusOK,
				wantBody: "plain",
			},
			{
				name: "json request",
				handler: func(req titleRequest) (*titleResponse, error) {
					return &titleResponse{Title: req.Title}, nil
				},
				method:      http.MethodPost,
				contentType: "application/json",
				body:        `{"title":"hello"}`,
				wantCode:    http.StatusOK,
				wantBody:    `{"title":"hello"}`,
				wantJSON:    true,
			},
			{
				name: "form request with context",
				handler: func(ctx *Context, req *titleRequest) (titleResponse, error) {
					return titleResponse{Title: ctx.Request.Method + " " + req.Title}, nil
				},
				method:      http.MethodPut,
				contentType: "application/x-www-form-urlencoded",
				body:        "title=edited",
				wantCode:    http.StatusOK,
				wantBody:    `{"title":"PUT edited"}`,
				wantJSON:    true,
			},
			{
				name: "missing required field",
				handler: func(req titleRequest) (*titleResponse, error) {
					t.Error("handler must not run")
					return nil, nil
				},
				method:      http.MethodPost,
				contentType: "application/json",
				body:        `{}`,
				wantCode:    http.StatusBadRequest,
			},
			{
				name:     "bytes response",
				handler:  func() ([]byte, error) { return []byte{1, 2}, nil },
				method:   http.MethodGet,
				wantCode: http.StatusOK,
				wantBody: "\x01\x02",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := &Server{engine: gin.New()}
				group := server.Group("/test")
				switch tt.method {
				case http.MethodGet:
					group.GET("", tt.handler)
				case http.MethodPost:
					group.POST("", tt.handler)
				case http.MethodPut:
					group.PUT("", tt.handler)
				}

				req := httptest.NewRequest(tt.method, "/test", strings.NewReader(tt.body))
				if tt.contentType != "" {
					req.Header.Set("Content-Type", tt.contentType)
				}
				w := httptest.NewRecorder()
				server.engine.ServeHTTP(w, req)

				assert.Equal(t, tt.wantCode, w.Code)
				switch {
				case tt.wantJSON:
					var want, got map[string]interface{}
					assert.NoError(t, json.Unmarshal([]byte(tt.wantBody), &want))
					assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
					assert.Equal(t, want, got)
				case tt.wantBody != "":
					assert.Equal(t, tt.wantBody, w.Body.String())
				}
			})
		}
	})

	t.Run("every verb is routable", func(t *testing.T) {
		server := &Server{engine: gin.New()}
		group := server.Group("/verbs")
		register := map[string]func(string, interface{}, ...gin.HandlerFunc){
			http.MethodGet:     group.GET,
			http.MethodPost:    group.POST,
			http.MethodPut:     group.PUT,
			http.MethodDelete:  group.DELETE,
			http.MethodPatch:   group.PATCH,
			http.MethodOptions: group.OPTIONS,
			http.MethodHead:    group.HEAD,
		}
		for method, add := range register {
			add("", func(ctx *Context) { ctx.Status(http.StatusNoContent) })

			w := httptest.NewRecorder()
			server.engine.ServeHTTP(w, httptest.NewRequest(method, "/verbs", nil))
			assert.Equal(t, http.StatusNoContent, w.Code, method)
		}
	})

	t.Run("group and route middleware both run", func(t *testing.T) {
		server := &Server{engine: gin.New()}
		group := server.Group("/blogs")
		group.Use(markCalled("group"))
		group.GET("/:id", func(ctx *Context) (string, error) {
			assert.True(t, ctx.GetBool("group"))
			assert.True(t, ctx.GetBool("route"))
			return ctx.Param("id"), nil
		}, markCalled("route"))

		w := httptest.NewRecorder()
		server.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blogs/42", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "42", w.Body.String())
	})
}

func TestRouter_Errors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("api error uses its status", func(t *testing.T) {
		server := &Server{engine: gin.New()}
		server.Group("/test").GET("", func() (*titleResponse, error) {
			return nil, ApiError{ErrorCode: "GONE", Message: "gone", Status: http.StatusGone}
		})

		w := httptest.NewRecorder()
		server.engine.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusGone, w.Code)
		assert.JSONEq(t, `{"error_code":"GONE","message":"gone"}`, w.Body.String())
	})

	t.Run("plain error is internal", func(t *testing.T) {
		server := &Server{engine: gin.New()}
		server.Group("/test").GET("", func() (*titleResponse, error) {
			return nil, errors.New("boom")
		})

		w := httptest.NewRecorder()
		server.engine.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})

	t.Run("handler that already wrote is not overwritten", func(t *testing.T) {
		server := &Server{engine: gin.New()}
		server.Group("/test").GET("", func(ctx *Context) (*titleResponse, error) {
			ctx.Redirect(http.StatusFound, "/elsewhere")
			return &titleResponse{Title: "ignored"}, nil
		})

		w := httptest.NewRecorder()
		server.engine.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.NotContains(t, w.Body.String(), "ignored")
	})

	t.Run("unsupported handler panics at registration", func(t *testing.T) {
		server := &Server{engine: gin.New()}
		assert.Panics(t, func() {
			server.Group("/test").GET("", func(a, b, c string) {})
		})
	})
}

func TestRouter_NoRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := &Server{engine: gin.New()}
	server.Group("/known").GET("", func() (string, error) { return "ok", nil })
	server.NoRoute(func(ctx *Context) (*titleResponse, error) {
		return &titleResponse{Title: ctx.Request.Method + " " + ctx.Request.URL.Path}, nil
	})

	for _, tc := range []struct{ method, path string }{
		{"GET", "/unknown"},
		{"POST", "/known"},
	} {
		w := httptest.NewRecorder()
		server.engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"title":"`+tc.method+` `+tc.path+`"}`, w.Body.String())
	}
}

type MockController struct {
	basePath string
}

func (m *MockController) Register(group *ControllerGroup) {
	m.basePath = group.BasePath()
}

package restblog

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
)

type Controller interface {
	Register(group *ControllerGroup)
}

type ControllerGroup struct {
	group *gin.RouterGroup
}

var (
	contextType = reflect.TypeOf(&Context{})
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

func (s *Server) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group: s.engine.Group(s.basePath+path, middleware...),
	}
}

func (s *Server) RegisterController(path string, controller Controller) {
	controller.Register(s.Group(path))
}

// NoRoute installs handler for every request that matches no route,
// including known paths requested with an unregistered method.
func (s *Server) NoRoute(handler interface{}) {
	h := wrapHandler(handler)
	s.engine.HandleMethodNotAllowed = true
	s.engine.NoRoute(h)
	s.engine.NoMethod(h)
}

func (g *ControllerGroup) Group(path string, middleware ...gin.HandlerFunc) *ControllerGroup {
	return &ControllerGroup{
		group: g.group.Group(path, middleware...),
	}
}

func (g *ControllerGroup) Use(middleware ...gin.HandlerFunc) {
	g.group.Use(middleware...)
}

func (g *ControllerGroup) BasePath() string {
	return g.group.BasePath()
}

func (g *ControllerGroup) GET(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodGet, path, handler, middleware)
}

func (g *ControllerGroup) POST(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPost, path, handler, middleware)
}

func (g *ControllerGroup) PUT(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPut, path, handler, middleware)
}

func (g *ControllerGroup) DELETE(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodDelete, path, handler, middleware)
}

func (g *ControllerGroup) PATCH(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodPatch, path, handler, middleware)
}

func (g *ControllerGroup) OPTIONS(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodOptions, path, handler, middleware)
}

func (g *ControllerGroup) HEAD(path string, handler interface{}, middleware ...gin.HandlerFunc) {
	g.handle(http.MethodHead, path, handler, middleware)
}

func (g *ControllerGroup) handle(method, path string, handler interface{}, middleware []gin.HandlerFunc) {
	handlers := make([]gin.HandlerFunc, 0, len(middleware)+1)
	handlers = append(handlers, middleware...)
	handlers = append(handlers, wrapHandler(handler))
	g.group.Handle(method, path, handlers...)
}

// wrapHandler adapts the supported handler shapes to a gin.HandlerFunc:
//
//	func(*gin.Context) / gin.HandlerFunc
//	func(*Context)
//	func([*Context], [Request]) (Response, error)
//
// Request values are bound from the body; a bind failure aborts with 400.
// A returned error goes through SendError, a string response is written as
// text and anything else as JSON unless the handler already wrote a body.
func wrapHandler(handler interface{}) gin.HandlerFunc {
	switch h := handler.(type) {
	case gin.HandlerFunc:
		return h
	case func(*gin.Context):
		return h
	case func(*Context):
		return func(c *gin.Context) {
			h(NewContext(c))
		}
	}

	fn := reflect.ValueOf(handler)
	typ := fn.Type()
	if typ.Kind() != reflect.Func || typ.NumIn() > 2 || typ.NumOut() != 2 || !typ.Out(1).Implements(errorType) {
		panic(fmt.Sprintf("restblog: unsupported handler type %T", handler))
	}

	ctxIndex, reqIndex := -1, -1
	for i := 0; i < typ.NumIn(); i++ {
		if typ.In(i) == contextType {
			ctxIndex = i
		} else if reqIndex == -1 {
			reqIndex = i
		} else {
			panic(fmt.Sprintf("restblog: handler %T takes more than one request value", handler))
		}
	}

	return func(c *gin.Context) {
		ctx := NewContext(c)
		args := make([]reflect.Value, typ.NumIn())
		if ctxIndex >= 0 {
			args[ctxIndex] = reflect.ValueOf(ctx)
		}
		if reqIndex >= 0 {
			reqType := typ.In(reqIndex)
			isPtr := reqType.Kind() == reflect.Ptr
			if isPtr {
				reqType = reqType.Elem()
			}
			req := reflect.New(reqType)
			if err := ctx.GetRequest(req.Interface()); err != nil {
				return
			}
			if isPtr {
				args[reqIndex] = req
			} else {
				args[reqIndex] = req.Elem()
			}
		}

		out := fn.Call(args)
		if errVal := out[1]; !errVal.IsNil() {
			ctx.SendError(errVal.Interface().(error))
			return
		}
		writeResponse(c, out[0].Interface())
	}
}

func writeResponse(c *gin.Context, response interface{}) {
	if c.Writer.Written() || c.IsAborted() {
		return
	}
	switch resp := response.(type) {
	case string:
		c.String(http.StatusOK, resp)
	case []byte:
		c.Data(http.StatusOK, "application/octet-stream", resp)
	default:
		c.JSON(http.StatusOK, resp)
	}
}

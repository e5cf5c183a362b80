package controller

import (
	"net"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/restblog"
)

// EchoController answers requests that match no route. With echo enabled it
// reflects the request back as JSON, which exposes headers and cookies, so
// it is meant for debugging only.
type EchoController struct {
	enabled bool
	now     func() time.Time
}

func NewEchoController(enabled bool) *EchoController {
	return &EchoController{enabled: enabled, now: time.Now}
}

func (c *EchoController) Unmatched(ctx *restblog.Context) (gin.H, error) {
	if !c.enabled {
		return nil, restblog.ErrNotFound.New(ctx.Request.Method, ctx.Request.URL.Path)
	}

	return gin.H{
		"at":       c.now().UTC().Format(time.RFC3339Nano),
		"method":   ctx.Request.Method,
		"hostname": hostname(ctx.Request.Host),
		"ip":       ctx.ClientIP(),
		"query":    flatten(ctx.Request.URL.Query()),
		"headers":  headers(ctx),
		"cookies":  cookies(ctx),
		"params":   params(ctx),
	}, nil
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// flatten keeps single values as strings and repeated ones as lists.
func flatten(values map[string][]string) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for key, vals := range values {
		if len(vals) == 1 {
			out[key] = vals[0]
		} else {
			out[key] = vals
		}
	}
	return out
}

func headers(ctx *restblog.Context) map[string]interface{} {
	lower := make(map[string][]string, len(ctx.Request.Header))
	for key, vals := range ctx.Request.Header {
		lower[strings.ToLower(key)] = vals
	}
	if ctx.Request.Host != "" {
		lower["host"] = []string{ctx.Request.Host}
	}
	return flatten(lower)
}

func cookies(ctx *restblog.Context) map[string]string {
	out := map[string]string{}
	for _, cookie := range ctx.Request.Cookies() {
		out[cookie.Name] = cookie.Value
	}
	return out
}

func params(ctx *restblog.Context) map[string]string {
	out := map[string]string{}
	for _, p := range ctx.Params {
		out[p.Key] = p.Value
	}
	return out
}

package restblog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Context struct {
	*gin.Context
}

func NewContext(c *gin.Context) *Context {
	return &Context{
		Context: c,
	}
}

// GetRequest binds the request body into request using the binding that
// matches the Content-Type. On failure the request is aborted with 400.
func (c *Context) GetRequest(request interface{}) error {
	if err := c.ShouldBind(request); err != nil {
		c.AbortWithStatus(http.StatusBadRequest)
		return errors.New("bad request: " + err.Error())
	}
	return nil
}

func (c *Context) Render(name string, data gin.H) {
	c.HTML(http.StatusOK, name, data)
}

// RedirectAfter issues a 303 so the browser follows a mutating request with a GET.
func (c *Context) RedirectAfter(location string) {
	c.Redirect(http.StatusSeeOther, location)
}

func (c *Context) SendError(err error) {
	SendError(c.Context, err)
}

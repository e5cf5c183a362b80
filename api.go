package restblog

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// BindRequest binds the request body into a new T without touching the
// response, for handlers that answer bind failures with a redirect.
// JSON bodies use the json tags, everything else the form tags.
func BindRequest[T interface{}](c *gin.Context) (T, error) {
	var request T
	var err error
	if c.ContentType() == binding.MIMEJSON {
		err = c.ShouldBindJSON(&request)
	} else {
		err = c.ShouldBindWith(&request, binding.Form)
	}
	return request, err
}

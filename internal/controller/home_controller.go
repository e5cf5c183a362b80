package controller

import (
	"net/http"

	"github.com/klass-lk/restblog"
)

type HomeController struct{}

func NewHomeController() *HomeController {
	return &HomeController{}
}

func (c *HomeController) Register(group *restblog.ControllerGroup) {
	group.GET("/", c.Home)
}

func (c *HomeController) Home(ctx *restblog.Context) {
	ctx.Redirect(http.StatusFound, "/blogs")
}

package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/restblog"
	"github.com/klass-lk/restblog/internal/weather"
)

var ErrWeatherUnavailable = restblog.ApiError{
	ErrorCode: "WEATHER_UNAVAILABLE",
	Message:   "weather lookup failed: %s",
	Status:    http.StatusBadGateway,
}

type WeatherProvider interface {
	Current(ctx context.Context, lat, lon string) (map[string]interface{}, error)
}

type WeatherController struct {
	provider WeatherProvider
}

func NewWeatherController(provider WeatherProvider) *WeatherController {
	return &WeatherController{provider: provider}
}

func (c *WeatherController) Register(group *restblog.ControllerGroup) {
	group.GET("", c.Page)
	group.GET("/:lat/:lon", c.Lookup)
}

func (c *WeatherController) Page(ctx *restblog.Context) {
	ctx.Render("weather", gin.H{"Title": "Weather"})
}

// Lookup returns the provider document with the caller's address added as ip.
func (c *WeatherController) Lookup(ctx *restblog.Context) (map[string]interface{}, error) {
	data, err := c.provider.Current(ctx.Request.Context(), ctx.Param("lat"), ctx.Param("lon"))
	if err != nil {
		slog.ErrorContext(ctx.Request.Context(), "weather lookup failed", slog.String("error", err.Error()))
		var statusErr *weather.StatusError
		if errors.As(err, &statusErr) {
			return nil, ErrWeatherUnavailable.New("provider returned " + strconv.Itoa(statusErr.StatusCode))
		}
		return nil, ErrWeatherUnavailable.New("provider unreachable")
	}

	ip := ctx.ClientIP()
	data["ip"] = ip
	slog.InfoContext(ctx.Request.Context(), "weather fetched", slog.String("ip", ip))
	return data, nil
}

package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/golang/glog"

	"github.com/calvinmclean/stewart"
)

// API serves the Controller over HTTP
type API struct {
	controller *Controller
	listPorts  func() ([]string, error)
}

func NewAPI(c *Controller) *API {
	return &API{controller: c, listPorts: GetSerialPorts}
}

// SpeedsRequest is the body of PUT /speeds
type SpeedsRequest struct {
	Speeds []int `json:"speeds"`
}

func (sr *SpeedsRequest) Bind(*http.Request) error {
	if len(sr.Speeds) != stewart.NumMotors {
		return fmt.Errorf("expected %d speeds but got %d", stewart.NumMotors, len(sr.Speeds))
	}
	return nil
}

func (sr *SpeedsRequest) speeds() Speeds {
	var s Speeds
	copy(s[:], sr.Speeds)
	return s
}

// ErrResponse is returned for every failed request
type ErrResponse struct {
	Status int    `json:"-"`
	Error  string `json:"error"`
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.Status)
	return nil
}

func errResponse(status int, err error) render.Renderer {
	return &ErrResponse{Status: status, Error: err.Error()}
}

// Router returns the chi router with every route mounted
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/speeds", a.getSpeeds)
	r.Put("/speeds", a.putSpeeds)
	r.Post("/stop", a.stop)
	r.Get("/ports", a.ports)

	return r
}

func (a *API) getSpeeds(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, a.controller.Status())
}

func (a *API) putSpeeds(w http.ResponseWriter, r *http.Request) {
	var req SpeedsRequest
	err := render.Bind(r, &req)
	if err != nil {
		render.Render(w, r, errResponse(http.StatusBadRequest, err))
		return
	}

	err = a.controller.SetSpeeds(req.speeds())
	if err != nil {
		a.commandError(w, r, err)
		return
	}

	render.JSON(w, r, a.controller.Status())
}

func (a *API) stop(w http.ResponseWriter, r *http.Request) {
	err := a.controller.Stop()
	if err != nil {
		a.commandError(w, r, err)
		return
	}

	render.JSON(w, r, a.controller.Status())
}

func (a *API) ports(w http.ResponseWriter, r *http.Request) {
	ports, err := a.listPorts()
	switch {
	case errors.Is(err, ErrNoUSBSerial):
		ports = []string{}
	case err != nil:
		glog.Errorf("error listing ports: %v", err)
		render.Render(w, r, errResponse(http.StatusInternalServerError, err))
		return
	}

	render.JSON(w, r, ports)
}

func (a *API) commandError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNotConnected) {
		render.Render(w, r, errResponse(http.StatusServiceUnavailable, err))
		return
	}
	glog.Errorf("error sending command: %v", err)
	render.Render(w, r, errResponse(http.StatusInternalServerError, err))
}

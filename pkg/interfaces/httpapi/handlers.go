package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vsinha/clsp/pkg/application/services"
	"github.com/vsinha/clsp/pkg/domain/entities"
	"github.com/vsinha/clsp/pkg/domain/repositories"
	"github.com/vsinha/clsp/pkg/infrastructure/ctxlog"
)

type errorResponse struct {
	Error string `json:"error"`
}

type instancesResponse struct {
	Instances []string `json:"instances"`
}

// SolveRequest selects scenarios and optionally overrides the time budget,
// given as a Go duration such as "30s".
type SolveRequest struct {
	Scenarios  []entities.ScenarioID `json:"scenarios"`
	TimeBudget string                `json:"time_budget"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listInstances(c *gin.Context) {
	ids, err := s.provider.ListInstances(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, instancesResponse{Instances: ids})
}

func (s *Server) saveInstance(c *gin.Context) {
	store, ok := s.provider.(repositories.DatasetStore)
	if !ok {
		c.JSON(http.StatusMethodNotAllowed, errorResponse{Error: "data source is read-only"})
		return
	}

	var ds entities.Dataset
	if err := c.ShouldBindJSON(&ds); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	id := c.Param("id")
	if ds.ProblemInstanceID != "" && ds.ProblemInstanceID != id {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "problem_instance_id does not match the path"})
		return
	}
	ds.ProblemInstanceID = id

	if err := store.SaveDataset(c.Request.Context(), &ds); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) solve(c *gin.Context) {
	var req SolveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	engine := s.engine
	if req.TimeBudget != "" {
		d, err := time.ParseDuration(req.TimeBudget)
		if err != nil || d < 0 {
			s.fail(c, &entities.ConfigurationError{Field: "time_budget", Value: req.TimeBudget, Reason: "expected a non-negative duration"})
			return
		}
		engine.TimeBudget = d
	}

	service := services.NewPlanningServiceWithConfig(s.solver, engine)
	report, err := service.Plan(c.Request.Context(), s.provider, c.Param("id"), req.Scenarios)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// fail maps domain errors to status codes
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repositories.ErrInstanceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entities.ErrConfiguration):
		status = http.StatusBadRequest
	case errors.Is(err, entities.ErrDataIncomplete):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		ctxlog.FromContext(c.Request.Context()).Error("Request failed.", "error", err)
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

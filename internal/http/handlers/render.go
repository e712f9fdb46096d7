package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/render"
)

// HistoryLister lists persisted terminal job records.
type HistoryLister interface {
	List(ctx context.Context, limit int) ([]*models.RenderJobRecord, error)
}

// RenderHandler handles render job API endpoints.
type RenderHandler struct {
	manager   *render.Manager
	history   HistoryLister
	outputDir string
}

// NewRenderHandler creates a new render handler. outputDir is where relative
// output paths are rooted.
func NewRenderHandler(manager *render.Manager, history HistoryLister, outputDir string) *RenderHandler {
	return &RenderHandler{
		manager:   manager,
		history:   history,
		outputDir: outputDir,
	}
}

// Register registers the render routes with the API.
func (h *RenderHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "startRender",
		Method:      "POST",
		Path:        "/api/v1/renders",
		Summary:     "Start render",
		Description: "Queues an asynchronous render of the given project and returns a job id",
		Tags:        []string{"Renders"},
	}, h.Start)

	huma.Register(api, huma.Operation{
		OperationID: "listRenders",
		Method:      "GET",
		Path:        "/api/v1/renders",
		Summary:     "List renders",
		Description: "Returns progress snapshots for all registered render jobs",
		Tags:        []string{"Renders"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "getRenderProgress",
		Method:      "GET",
		Path:        "/api/v1/renders/{id}",
		Summary:     "Get render progress",
		Description: "Returns a progress snapshot for one render job",
		Tags:        []string{"Renders"},
	}, h.GetProgress)

	huma.Register(api, huma.Operation{
		OperationID: "cancelRender",
		Method:      "POST",
		Path:        "/api/v1/renders/{id}/cancel",
		Summary:     "Cancel render",
		Description: "Requests cooperative cancellation of a render job",
		Tags:        []string{"Renders"},
	}, h.Cancel)

	huma.Register(api, huma.Operation{
		OperationID: "getRenderHistory",
		Method:      "GET",
		Path:        "/api/v1/renders/history",
		Summary:     "Get render history",
		Description: "Returns persisted terminal render job records, newest first",
		Tags:        []string{"Renders"},
	}, h.GetHistory)
}

// StartRenderInput is the input for starting a render.
type StartRenderInput struct {
	Body struct {
		Project    models.Project        `json:"project"`
		Settings   models.RenderSettings `json:"settings"`
		OutputPath string                `json:"outputPath"`
	}
}

// StartRenderOutput is the output for starting a render.
type StartRenderOutput struct {
	Body struct {
		JobID string `json:"jobId"`
	}
}

// Start queues a render job.
func (h *RenderHandler) Start(ctx context.Context, input *StartRenderInput) (*StartRenderOutput, error) {
	outputPath := strings.TrimSpace(input.Body.OutputPath)
	if outputPath != "" && !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(h.outputDir, outputPath)
	}

	jobID, err := h.manager.StartRender(&input.Body.Project, input.Body.Settings, outputPath)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("starting render: %v", err))
	}

	resp := &StartRenderOutput{}
	resp.Body.JobID = jobID
	return resp, nil
}

// RenderIDInput identifies one render job.
type RenderIDInput struct {
	ID string `path:"id" doc:"Render job ID"`
}

// RenderProgressOutput wraps one progress snapshot.
type RenderProgressOutput struct {
	Body models.RenderProgress
}

// GetProgress returns a progress snapshot for one job.
func (h *RenderHandler) GetProgress(ctx context.Context, input *RenderIDInput) (*RenderProgressOutput, error) {
	progress, err := h.manager.GetProgress(input.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("render job %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("getting render progress", err)
	}
	return &RenderProgressOutput{Body: progress}, nil
}

// CancelRenderOutput is the output for cancelling a render.
type CancelRenderOutput struct {
	Body struct {
		JobID  string              `json:"jobId"`
		Status models.RenderStatus `json:"status"`
	}
}

// Cancel requests cooperative cancellation of a job. Cancelling a job that
// already reached a terminal status succeeds without changing it.
func (h *RenderHandler) Cancel(ctx context.Context, input *RenderIDInput) (*CancelRenderOutput, error) {
	if err := h.manager.CancelRender(input.ID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("render job %s not found", input.ID))
		}
		return nil, huma.Error500InternalServerError("cancelling render", err)
	}

	progress, err := h.manager.GetProgress(input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("getting render progress", err)
	}

	resp := &CancelRenderOutput{}
	resp.Body.JobID = input.ID
	resp.Body.Status = progress.Status
	return resp, nil
}

// ListRendersOutput is the output for listing renders.
type ListRendersOutput struct {
	Body struct {
		Renders []models.RenderProgress `json:"renders"`
	}
}

// List returns progress snapshots for all registered jobs.
func (h *RenderHandler) List(ctx context.Context, _ *struct{}) (*ListRendersOutput, error) {
	resp := &ListRendersOutput{}
	resp.Body.Renders = h.manager.ListProgress()
	return resp, nil
}

// RenderHistoryInput is the input for the history endpoint.
type RenderHistoryInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum records to return"`
}

// RenderHistoryOutput is the output for the history endpoint.
type RenderHistoryOutput struct {
	Body struct {
		Records []*models.RenderJobRecord `json:"records"`
	}
}

// GetHistory returns persisted terminal job records.
func (h *RenderHandler) GetHistory(ctx context.Context, input *RenderHistoryInput) (*RenderHistoryOutput, error) {
	if h.history == nil {
		return nil, huma.Error501NotImplemented("render history is not enabled")
	}
	recs, err := h.history.List(ctx, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing render history", err)
	}
	resp := &RenderHistoryOutput{}
	resp.Body.Records = recs
	return resp, nil
}

package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielgtaylor/huma/v2"

	"github.com/clipforge/clipforge/internal/effects"
	"github.com/clipforge/clipforge/internal/keyframe"
	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/project"
	"github.com/clipforge/clipforge/internal/transition"
)

// ProjectHandler handles project document API endpoints.
type ProjectHandler struct {
	store *project.Store
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(store *project.Store) *ProjectHandler {
	return &ProjectHandler{store: store}
}

// Register registers the project routes with the API.
func (h *ProjectHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "createProject",
		Method:      "POST",
		Path:        "/api/v1/projects",
		Summary:     "Create project",
		Description: "Returns a new empty project document with default settings",
		Tags:        []string{"Projects"},
	}, h.Create)

	huma.Register(api, huma.Operation{
		OperationID: "validateProject",
		Method:      "POST",
		Path:        "/api/v1/projects/validate",
		Summary:     "Validate project",
		Description: "Validates the project's composition and returns warnings",
		Tags:        []string{"Projects"},
	}, h.Validate)

	huma.Register(api, huma.Operation{
		OperationID: "loadProject",
		Method:      "POST",
		Path:        "/api/v1/projects/load",
		Summary:     "Load project",
		Description: "Loads a project document from a path on the server",
		Tags:        []string{"Projects"},
	}, h.Load)

	huma.Register(api, huma.Operation{
		OperationID: "saveProject",
		Method:      "POST",
		Path:        "/api/v1/projects/save",
		Summary:     "Save project",
		Description: "Saves a project document to a path on the server",
		Tags:        []string{"Projects"},
	}, h.Save)
}

// CreateProjectInput is the input for creating a project.
type CreateProjectInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Project name"`
	}
}

// ProjectOutput wraps one project document.
type ProjectOutput struct {
	Body models.Project
}

// Create returns a new empty project document.
func (h *ProjectHandler) Create(ctx context.Context, input *CreateProjectInput) (*ProjectOutput, error) {
	p := h.store.New(input.Body.Name)
	return &ProjectOutput{Body: *p}, nil
}

// ValidateProjectInput is the input for validating a project.
type ValidateProjectInput struct {
	Body models.Project
}

// ValidateProjectOutput is the output for validating a project.
type ValidateProjectOutput struct {
	Body struct {
		Valid    bool                       `json:"valid"`
		Error    string                     `json:"error,omitempty"`
		Warnings []models.ValidationWarning `json:"warnings,omitempty"`
	}
}

// Validate runs the structural validation pass. Hard violations come back as
// valid=false with the reason; warnings never block rendering.
func (h *ProjectHandler) Validate(ctx context.Context, input *ValidateProjectInput) (*ValidateProjectOutput, error) {
	p := &input.Body
	warnings, err := models.ValidateComposition(&p.Composition, models.ValidateOptions{
		KnownEffect:     effects.Known,
		KnownTransition: transition.Known,
		KnownAsset:      p.HasAsset,
		KnownEasing:     keyframe.KnownEasing,
	})

	resp := &ValidateProjectOutput{}
	resp.Body.Warnings = warnings
	if err != nil {
		resp.Body.Valid = false
		resp.Body.Error = err.Error()
		return resp, nil
	}
	resp.Body.Valid = true
	return resp, nil
}

// ProjectPathInput names a project file on the server.
type ProjectPathInput struct {
	Body struct {
		Path string `json:"path" minLength:"1" doc:"Project file path"`
	}
}

// Load reads a project document from disk.
func (h *ProjectHandler) Load(ctx context.Context, input *ProjectPathInput) (*ProjectOutput, error) {
	p, err := h.store.Load(input.Body.Path)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, huma.Error404NotFound(fmt.Sprintf("project %s not found", input.Body.Path))
		}
		return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("loading project: %v", err))
	}
	return &ProjectOutput{Body: *p}, nil
}

// SaveProjectInput is the input for saving a project.
type SaveProjectInput struct {
	Body struct {
		Project models.Project `json:"project"`
		Path    string         `json:"path" minLength:"1" doc:"Destination file path"`
	}
}

// Save writes a project document to disk and returns it with the refreshed
// updated timestamp.
func (h *ProjectHandler) Save(ctx context.Context, input *SaveProjectInput) (*ProjectOutput, error) {
	p := input.Body.Project
	if err := h.store.Save(&p, input.Body.Path); err != nil {
		return nil, huma.Error500InternalServerError("saving project", err)
	}
	return &ProjectOutput{Body: p}, nil
}

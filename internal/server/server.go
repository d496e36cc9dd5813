package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"wbtracker/internal/domain"
	"wbtracker/internal/engine"
	"wbtracker/internal/render"
	"wbtracker/internal/repo"
	"wbtracker/internal/schedule"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	Log      *zap.Logger
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"player not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError is the {error:{code,message,details}} envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the tracker API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(cfg.Auth))
	hcfg := huma.DefaultConfig("World Report Tracker API", "0.3.0")
	hcfg.OpenAPIPath = basePath + "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	h := handlers{e: cfg.Engine, log: cfg.Log}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	registerHealth(group)
	h.registerReports(group)
	h.registerWorlds(group)
	h.registerSchedule(group)
	h.registerStatus(group)
	h.registerPlayers(group)
	return router, nil
}

type handlers struct {
	e   engine.Engine
	log *zap.Logger
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func (h handlers) handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	h.log.Error("api request failed", zap.Error(err))
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", nil)
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func parseResourceFilter(raw string) (*domain.Resource, huma.StatusError) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "all") {
		return nil, nil
	}
	r, ok := domain.ParseResource(raw)
	if !ok {
		return nil, newAPIError(http.StatusBadRequest, "bad_request", "unknown resource "+raw, map[string]any{"resource": raw})
	}
	return &r, nil
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func (h handlers) registerReports(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-report",
		Method:      http.MethodPost,
		Path:        "/reports",
		Summary:     "Submit one chat line as a world report",
	}, func(ctx context.Context, input *struct {
		Body SubmitReportRequest
	}) (*struct {
		Body SubmitReportResponse `json:"body"`
	}, error) {
		res := h.e.OnChatLine(ctx, input.Body.Line, input.Body.Reporter, input.Body.Origin)
		return &struct {
			Body SubmitReportResponse `json:"body"`
		}{Body: SubmitReportResponse{
			Outcome: res.Outcome,
			Created: res.Created,
			Report:  res.Report,
			Record:  res.Record,
		}}, nil
	})
}

type resourceQuery struct {
	Resource string `query:"resource" doc:"resource name or letter (C, F, H, S, M)"`
}

type textOutput struct {
	Body TextResponse `json:"body"`
}

func (h handlers) registerWorlds(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-worlds",
		Method:      http.MethodGet,
		Path:        "/worlds",
		Summary:     "Tracked worlds in display order",
	}, func(ctx context.Context, input *resourceQuery) (*struct {
		Body WorldsResponse `json:"body"`
	}, error) {
		filter, serr := parseResourceFilter(input.Resource)
		if serr != nil {
			return nil, serr
		}
		return &struct {
			Body WorldsResponse `json:"body"`
		}{Body: WorldsResponse{Worlds: h.e.Worlds(filter)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "render-list",
		Method:      http.MethodGet,
		Path:        "/worlds/list",
		Summary:     "Grouped world list",
	}, func(ctx context.Context, input *resourceQuery) (*textOutput, error) {
		filter, serr := parseResourceFilter(input.Resource)
		if serr != nil {
			return nil, serr
		}
		return &textOutput{Body: TextResponse{Text: h.e.List(filter)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "render-table",
		Method:      http.MethodGet,
		Path:        "/worlds/table",
		Summary:     "Resource by location matrix",
	}, func(ctx context.Context, _ *struct{}) (*textOutput, error) {
		return &textOutput{Body: TextResponse{Text: h.e.Table()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "render-timelist",
		Method:      http.MethodGet,
		Path:        "/worlds/timelist",
		Summary:     "Live countdown table",
	}, func(ctx context.Context, _ *struct{}) (*textOutput, error) {
		return &textOutput{Body: TextResponse{Text: h.e.Timelist()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "clear-worlds",
		Method:        http.MethodDelete,
		Path:          "/worlds",
		Summary:       "Drop every tracked world",
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		if serr := requireAdmin(ctx); serr != nil {
			return nil, serr
		}
		h.e.Clear()
		return &struct{}{}, nil
	})
}

func (h handlers) registerSchedule(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "schedule",
		Method:      http.MethodGet,
		Path:        "/schedule",
		Summary:     "Weekly event schedule",
	}, func(ctx context.Context, input *struct {
		Zone string `query:"zone" enum:"br,utc" default:"br"`
	}) (*struct {
		Body ScheduleResponse `json:"body"`
	}, error) {
		offset := h.e.DisplayOffset()
		if input.Zone == "utc" {
			offset = 0
		}
		now := h.e.Now()
		resp := ScheduleResponse{
			Text:         h.e.ScheduleText(offset),
			OffsetHours:  offset,
			UntilResetNs: int64(schedule.UntilReset(now)),
		}
		if next, ok := h.e.Schedule.Next(now); ok {
			resp.NextEvent = &next
		}
		return &struct {
			Body ScheduleResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func (h handlers) registerStatus(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "status",
		Method:      http.MethodGet,
		Path:        "/status",
		Summary:     "Tracker and process status",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body StatusResponse `json:"body"`
	}, error) {
		s := h.e.Status()
		return &struct {
			Body StatusResponse `json:"body"`
		}{Body: StatusResponse{Status: s, Text: render.Status(s)}}, nil
	})
}

type playerPath struct {
	ID string `path:"id"`
}

type playerOutput struct {
	Body domain.Player `json:"body"`
}

func (h handlers) registerPlayers(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-player",
		Method:      http.MethodGet,
		Path:        "/players/{id}",
		Summary:     "Player statistics",
	}, func(ctx context.Context, input *playerPath) (*playerOutput, error) {
		if serr := requireAdmin(ctx); serr != nil {
			return nil, serr
		}
		p, err := h.e.Repo.GetPlayer(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &playerOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-player-rsn",
		Method:      http.MethodPut,
		Path:        "/players/{id}/rsn",
		Summary:     "Set a player's in-game name",
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body SetRSNRequest
	}) (*playerOutput, error) {
		if serr := requireAdmin(ctx); serr != nil {
			return nil, serr
		}
		p, err := h.e.SetRSN(ctx, domain.Reporter{ID: input.ID, Username: input.Body.Username}, input.Body.RSN)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &playerOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-player-clan",
		Method:      http.MethodPut,
		Path:        "/players/{id}/clan",
		Summary:     "Set a player's clan",
	}, func(ctx context.Context, input *struct {
		ID   string `path:"id"`
		Body SetClanRequest
	}) (*playerOutput, error) {
		if serr := requireAdmin(ctx); serr != nil {
			return nil, serr
		}
		p, err := h.e.SetClan(ctx, domain.Reporter{ID: input.ID, Username: input.Body.Username}, input.Body.Clan)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &playerOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "warn-player",
		Method:      http.MethodPost,
		Path:        "/players/{id}/warnings",
		Summary:     "Record a warning",
	}, func(ctx context.Context, input *playerPath) (*playerOutput, error) {
		if serr := requireAdmin(ctx); serr != nil {
			return nil, serr
		}
		p, err := h.e.Warn(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &playerOutput{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "suspend-player",
		Method:      http.MethodPost,
		Path:        "/players/{id}/suspensions",
		Summary:     "Record a suspension",
	}, func(ctx context.Context, input *playerPath) (*playerOutput, error) {
		if serr := requireAdmin(ctx); serr != nil {
			return nil, serr
		}
		p, err := h.e.Suspend(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &playerOutput{Body: p}, nil
	})
}

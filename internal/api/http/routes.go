package httpapi

import (
	"bufio"
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/i474232898/weather-odds/internal/export"
	"github.com/i474232898/weather-odds/internal/weather"
	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

const (
	downloadPath    = "/api/weather/download/"
	deliveryTimeout = 2 * time.Minute
)

var validate = validator.New()

// Dependencies are the collaborators the HTTP handlers need.
type Dependencies struct {
	Service   *weather.Service
	Exports   *export.Manager
	Logger    *slog.Logger
	JWTSecret string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	logger := deps.Logger.With("component", "http")
	api := app.Group("/api/weather")

	api.Post("/query", identity(deps.JWTSecret), func(c *fiber.Ctx) error {
		var req queryRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.Wrap(apperrors.KindValidation, "request body must be a JSON query", err)
		}
		if err := validate.Struct(req); err != nil {
			return apperrors.Wrap(apperrors.KindValidation, err.Error(), err)
		}

		ctx := c.UserContext()
		q := req.toQuery(requesterFrom(c))
		result, rows, err := deps.Service.Run(ctx, q)
		if err != nil {
			return err
		}

		artifact, err := deps.Exports.CreateArtifact(ctx, q.Requester, rows)
		if err != nil {
			return err
		}

		logger.Info("query answered",
			"requester", q.Requester,
			"day_of_year", q.DayOfYear,
			"variables", result.Len(),
			"artifact", artifact.Name,
		)
		return c.JSON(newQueryResponse(result, artifact.Name))
	})

	// Artifacts are addressed by unguessable names, so downloads need no identity.
	api.Get("/download/:filename", func(c *fiber.Ctx) error {
		name := utils.CopyString(c.Params("filename"))
		delivery, err := deps.Exports.Checkout(c.UserContext(), name)
		if err != nil {
			return err
		}

		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+delivery.Name()+`"`)
		// The body is written after the handler returns; the artifact is
		// retired only once the stream has been flushed to the client.
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
			defer cancel()
			_, _ = delivery.Deliver(ctx, w)
		})
		return nil
	})

	api.Get("/variables", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"variables": deps.Service.Registry().Specs(),
		})
	})
}

type locationRequest struct {
	Lat     *float64 `json:"lat" validate:"required_with=Lon"`
	Lon     *float64 `json:"lon" validate:"required_with=Lat"`
	City    string   `json:"city" validate:"max=128"`
	Country string   `json:"country" validate:"max=64"`
}

func (l locationRequest) toLocation() weather.Location {
	var loc weather.Location
	if l.Lat != nil && l.Lon != nil {
		loc.Coordinates = &weather.Coordinates{Lat: *l.Lat, Lon: *l.Lon}
	}
	if l.City != "" {
		loc.Place = &weather.Place{City: l.City, Country: l.Country}
	}
	return loc
}

type thresholdRequest struct {
	Variable string   `json:"variable" validate:"required"`
	Value    *float64 `json:"value" validate:"required"`
	Unit     string   `json:"unit" validate:"max=16"`
}

// queryRequest is validated for shape only; range and membership checks
// belong to the weather service.
type queryRequest struct {
	Location   locationRequest    `json:"location"`
	DayOfYear  int                `json:"dayOfYear"`
	Variables  []string           `json:"variables" validate:"max=32"`
	Thresholds []thresholdRequest `json:"thresholds" validate:"max=32,dive"`
}

func (r queryRequest) toQuery(requester string) weather.Query {
	q := weather.Query{
		Location:     r.Location.toLocation(),
		DayOfYear:    r.DayOfYear,
		VariableKeys: r.Variables,
		Requester:    requester,
	}
	for _, t := range r.Thresholds {
		q.Thresholds = append(q.Thresholds, weather.ThresholdSpec{
			VariableKey: t.Variable,
			Value:       *t.Value,
			Unit:        t.Unit,
		})
	}
	return q
}

type summaryResponse struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"stdDev"`
}

type metadataResponse struct {
	Source       string `json:"source"`
	VariableName string `json:"variableName"`
}

type variableResponse struct {
	Mean                          float64          `json:"mean"`
	Unit                          string           `json:"unit"`
	ProbabilityExceedingThreshold string           `json:"probabilityExceedingThreshold"`
	SimpleExplanation             string           `json:"simpleExplanation"`
	VisualSuggestion              string           `json:"visualSuggestion"`
	Summary                       summaryResponse  `json:"summary"`
	Metadata                      metadataResponse `json:"metadata"`
}

type queryResponse struct {
	Status         string                      `json:"status"`
	Variables      []string                    `json:"variables"`
	QueryResults   map[string]variableResponse `json:"queryResults"`
	DownloadLink   string                      `json:"downloadLink"`
	Visualizations []string                    `json:"visualizations"`
}

func newQueryResponse(result weather.QueryResult, artifact string) queryResponse {
	resp := queryResponse{
		Status:         "Success",
		Variables:      make([]string, 0, result.Len()),
		QueryResults:   make(map[string]variableResponse, result.Len()),
		DownloadLink:   downloadPath + artifact,
		Visualizations: make([]string, 0, result.Len()),
	}
	for _, key := range result.Order {
		r := result.Results[key]
		resp.Variables = append(resp.Variables, key)
		resp.QueryResults[key] = variableResponse{
			Mean:                          round2(r.Mean),
			Unit:                          r.Unit,
			ProbabilityExceedingThreshold: r.Exceedance.String(),
			SimpleExplanation:             r.Explanation,
			VisualSuggestion:              r.VisualSuggestion,
			Summary: summaryResponse{
				Min:    round2(r.Min),
				Max:    round2(r.Max),
				StdDev: round2(r.StdDev),
			},
			Metadata: metadataResponse{Source: r.SourceLabel, VariableName: r.SourceCode},
		}
		resp.Visualizations = append(resp.Visualizations, r.VisualSuggestion)
	}
	return resp
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

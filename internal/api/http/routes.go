package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/cuacakota/weather-sampler/internal/bulletin"
	"github.com/cuacakota/weather-sampler/internal/region"
	"github.com/cuacakota/weather-sampler/internal/store"
)

var validate = validator.New()

// Generator produces bulletins on demand.
type Generator interface {
	Generate(ctx context.Context, req region.SelectionRequest) (bulletin.Bulletin, error)
}

// BulletinReader reads back retained bulletins.
type BulletinReader interface {
	Latest() (bulletin.Bulletin, error)
	ByID(id string) (bulletin.Bulletin, error)
}

// Deps bundles what the HTTP handlers need.
type Deps struct {
	Regions        *region.Store
	Generator      Generator
	Bulletins      BulletinReader
	DefaultRequest region.SelectionRequest
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/regions/search", func(c *fiber.Ctx) error {
		var q searchQuery
		q.Query = c.Query("q")
		q.Limit = c.QueryInt("limit", 10)
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		matches, err := deps.Regions.FindByName(q.Query, q.Limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "region search failed")
		}
		return c.JSON(fiber.Map{
			"query":   q.Query,
			"results": matches,
		})
	})

	v1.Get("/regions/:code/timezone", func(c *fiber.Ctx) error {
		code := c.Params("code")
		tz, err := region.ClassifyTimezone(code)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(fiber.Map{
			"code":      code,
			"timezone":  tz,
			"utcOffset": tz.UTCOffset(),
		})
	})

	v1.Post("/bulletins", func(c *fiber.Ctx) error {
		req, err := parseBulletinRequest(c, deps.DefaultRequest)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		b, err := deps.Generator.Generate(c.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, region.ErrInsufficientPool):
				return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
			case errors.Is(err, region.ErrRegionNotFound):
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			default:
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		return c.Status(fiber.StatusCreated).JSON(b)
	})

	v1.Get("/bulletins/latest", func(c *fiber.Ctx) error {
		b, err := deps.Bulletins.Latest()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no bulletin generated yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read bulletin")
		}
		return c.JSON(b)
	})

	v1.Get("/bulletins/:id", func(c *fiber.Ctx) error {
		b, err := deps.Bulletins.ByID(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no bulletin with that id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read bulletin")
		}
		return c.JSON(b)
	})
}

type searchQuery struct {
	Query string `validate:"required,min=2"`
	Limit int    `validate:"min=1,max=100"`
}

// bulletinBody optionally overrides the configured quotas and pins specific
// cities by name. Omitting all quota fields uses the configured defaults.
type bulletinBody struct {
	TotalCities int      `json:"totalCities" validate:"min=0,max=50"`
	WIBCities   int      `json:"wibCities" validate:"min=0"`
	WITACities  int      `json:"witaCities" validate:"min=0"`
	WITCities   int      `json:"witCities" validate:"min=0"`
	Pins        []string `json:"pins" validate:"max=20,dive,min=2"`
}

func parseBulletinRequest(c *fiber.Ctx, def region.SelectionRequest) (region.SelectionRequest, error) {
	var body bulletinBody
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return region.SelectionRequest{}, err
		}
	}
	if err := validate.Struct(body); err != nil {
		return region.SelectionRequest{}, err
	}

	req := def
	if body.TotalCities > 0 {
		req = region.NewSelectionRequest(body.TotalCities).
			WithQuota(region.WIB, body.WIBCities).
			WithQuota(region.WITA, body.WITACities).
			WithQuota(region.WIT, body.WITCities)
	}
	if len(body.Pins) > 0 {
		req = req.Pin(body.Pins...)
	}
	return req, nil
}

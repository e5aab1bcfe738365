package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/farm-advisor/internal/chat"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *chat.Service) {
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "farm-advisor",
		})
	})

	api := app.Group("/api")

	api.Post("/a", func(c *fiber.Ctx) error {
		var req askRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		req.Question = strings.TrimSpace(req.Question)
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, validationMessage(err))
		}

		result, err := service.Ask(c.UserContext(), chat.AskInput{
			Question:     req.Question,
			SessionID:    req.SessionID,
			ClearHistory: req.ClearHistory,
			Location:     req.coordinates(),
		})
		if err != nil {
			return askError(c, err)
		}
		return c.JSON(result)
	})

	api.Delete("/a/history/:sessionId", func(c *fiber.Ctx) error {
		service.ClearHistory(c.Params("sessionId"))
		return c.JSON(fiber.Map{"message": "Conversation history cleared"})
	})

	api.Get("/a/history/:sessionId", func(c *fiber.Ctx) error {
		history, length := service.History(c.Params("sessionId"))
		return c.JSON(fiber.Map{
			"history": history,
			"length":  length,
		})
	})
}

// askRequest is the body of POST /api/a.
type askRequest struct {
	Question     string        `json:"question" validate:"required,max=4000"`
	SessionID    string        `json:"sessionId" validate:"max=128"`
	ClearHistory bool          `json:"clearHistory"`
	Location     *locationBody `json:"location" validate:"-"`
}

// locationBody is validated on its own; a bad location is dropped, not rejected.
type locationBody struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lon *float64 `json:"lon" validate:"required,gte=-180,lte=180"`
}

func (r askRequest) coordinates() *chat.Coordinates {
	if r.Location == nil {
		return nil
	}
	if err := validate.Struct(r.Location); err != nil {
		logrus.WithError(err).Debug("httpapi: ignoring malformed location")
		return nil
	}
	return &chat.Coordinates{Lat: *r.Location.Lat, Lon: *r.Location.Lon}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch {
		case fe.Field() == "Question" && fe.Tag() == "required":
			return "Missing question"
		case fe.Tag() == "max":
			return fe.Field() + " is too long"
		}
		return "invalid " + fe.Field()
	}
	return "invalid request"
}

func askError(c *fiber.Ctx, err error) error {
	var upstream *chat.UpstreamError
	switch {
	case errors.Is(err, chat.ErrInvalidRequest):
		return fiber.NewError(fiber.StatusBadRequest, "Missing question")
	case errors.Is(err, chat.ErrMisconfigured):
		return fiber.NewError(fiber.StatusInternalServerError, "Server is not configured for chat")
	case errors.As(err, &upstream):
		body := fiber.Map{"error": "Generative AI request failed"}
		if upstream.StatusCode != 0 {
			body["status"] = upstream.StatusCode
		}
		return c.Status(fiber.StatusBadGateway).JSON(body)
	default:
		return err
	}
}

// ErrorHandler renders every handler error as {"error": message}. Errors
// that are not *fiber.Error are logged and reported generically.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	logrus.WithError(err).WithField("path", c.Path()).Error("httpapi: unhandled error")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Server error"})
}

package handlers

import (
	"timeoff/internal/app"
	"timeoff/internal/logger"
	"timeoff/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// PersonHandler serves the person directory the dashboard's request
// form and admin filters read.
type PersonHandler struct {
	Handler
	personRepo repositories.PersonRepository
}

func NewPersonHandler(app app.App, router fiber.Router) *PersonHandler {
	log := logger.New("handlers").File("person_handler")
	return &PersonHandler{
		personRepo: app.PersonRepo,
		Handler: Handler{
			log:    log,
			router: router,
		},
	}
}

func (h *PersonHandler) Register() {
	persons := h.router.Group("/persons")
	persons.Get("/", h.getPersons)
	persons.Get("/:id", h.getPerson)
}

func (h *PersonHandler) getPersons(c *fiber.Ctx) error {
	log := h.log.Function("getPersons")

	persons, err := h.personRepo.List(c.Context())
	if err != nil {
		log.Er("failed to list persons", err)
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "failed to list persons"})
	}

	return c.JSON(fiber.Map{"message": "success", "persons": persons})
}

func (h *PersonHandler) getPerson(c *fiber.Ctx) error {
	log := h.log.Function("getPerson")

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "person ID is required"})
	}

	person, err := h.personRepo.GetByID(c.Context(), id)
	if err != nil {
		log.Er("failed to get person", err, "id", id)
		return c.Status(fiber.StatusNotFound).
			JSON(fiber.Map{"message": "person not found"})
	}

	return c.JSON(fiber.Map{"message": "success", "person": person})
}

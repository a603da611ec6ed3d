package handlers

import (
	"time"
	"timeoff/internal/app"
	vacationsController "timeoff/internal/controllers/vacations"
	"timeoff/internal/logger"
	. "timeoff/internal/models"

	"github.com/gofiber/fiber/v2"
)

type VacationHandler struct {
	Handler
	controller *vacationsController.VacationController
}

func NewVacationHandler(app app.App, router fiber.Router) *VacationHandler {
	log := logger.New("handlers").File("vacation_handler")
	return &VacationHandler{
		controller: app.VacationController,
		Handler: Handler{
			log:    log,
			router: router,
		},
	}
}

func (h *VacationHandler) Register() {
	vacations := h.router.Group("/vacations")
	vacations.Get("/", h.getVacations)
	vacations.Get("/pending", h.getPending)
	vacations.Get("/upcoming", h.getUpcoming)
	vacations.Post("/", h.createRequest)
	vacations.Put("/:id", h.updateRequest)
	vacations.Delete("/", h.deleteRequests)
	vacations.Post("/:id/status", h.changeStatus)
}

// parseScope reads the visibility scope from the query string:
// scope=all for the administrator view, otherwise person=<id> for a
// single person's own requests.
func parseScope(c *fiber.Ctx) (Scope, bool) {
	if c.Query("scope") == "all" {
		return ScopeAll(), true
	}
	person := c.Query("person")
	if person == "" {
		return Scope{}, false
	}
	return ScopeFor(person), true
}

// refresh loads the collections for the scope in the query string and
// returns the view that settled for it; every read below buckets that
// view, never the controller's shared state, so concurrent requests
// for other scopes cannot leak into this response. The bool reports
// whether a response has already been written. A non-nil error next to
// a usable view means the status fan-out was partial.
func (h *VacationHandler) refresh(c *fiber.Ctx) (vacationsController.View, bool, error) {
	scope, ok := parseScope(c)
	if !ok {
		return vacationsController.View{}, true, c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "scope=all or person=<id> is required"})
	}

	force := c.QueryBool("refresh")
	view, err := h.controller.Refresh(c.Context(), scope, force)
	if err != nil && view.Requests == nil {
		return vacationsController.View{}, true, c.Status(fiber.StatusBadGateway).
			JSON(fiber.Map{"message": "failed to load vacation requests", "error": err.Error()})
	}

	return view, false, err
}

func (h *VacationHandler) getVacations(c *fiber.Ctx) error {
	view, done, err := h.refresh(c)
	if done {
		return err
	}

	response := fiber.Map{
		"message": "success",
		"scope":   view.Scope.String(),
		"buckets": view.Buckets(time.Now()),
		"current": view.Current,
	}
	if err != nil {
		response["message"] = "partial"
		response["error"] = err.Error()
	}
	return c.JSON(response)
}

func (h *VacationHandler) getPending(c *fiber.Ctx) error {
	view, done, err := h.refresh(c)
	if done {
		return err
	}

	response := fiber.Map{
		"message":  "success",
		"scope":    view.Scope.String(),
		"requests": view.Pending(time.Now()),
	}
	if err != nil {
		response["message"] = "partial"
		response["error"] = err.Error()
	}
	return c.JSON(response)
}

func (h *VacationHandler) getUpcoming(c *fiber.Ctx) error {
	view, done, err := h.refresh(c)
	if done {
		return err
	}

	response := fiber.Map{
		"message":  "success",
		"scope":    view.Scope.String(),
		"requests": view.Upcoming(time.Now()),
	}
	if err != nil {
		response["message"] = "partial"
		response["error"] = err.Error()
	}
	return c.JSON(response)
}

func (h *VacationHandler) createRequest(c *fiber.Ctx) error {
	log := h.log.Function("createRequest")

	var cmd CreateVacationRequest
	if err := c.BodyParser(&cmd); err != nil {
		log.Er("failed to parse create request", err)
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "failed to parse vacation request"})
	}

	request, err := h.controller.CreateRequest(c.Context(), cmd)
	if err != nil {
		log.Er("failed to create vacation request", err)
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"message": "failed to create vacation request", "error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).
		JSON(fiber.Map{"message": "success", "request": request})
}

func (h *VacationHandler) updateRequest(c *fiber.Ctx) error {
	log := h.log.Function("updateRequest")

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "vacation request ID is required"})
	}

	var cmd UpdateVacationRequest
	if err := c.BodyParser(&cmd); err != nil {
		log.Er("failed to parse update request", err)
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "failed to parse vacation request"})
	}

	request, err := h.controller.UpdateRequest(c.Context(), id, cmd)
	if err != nil {
		log.Er("failed to update vacation request", err, "id", id)
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"message": "failed to update vacation request", "error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "success", "request": request})
}

type deleteRequestsBody struct {
	IDs []string `json:"ids"`
}

func (h *VacationHandler) deleteRequests(c *fiber.Ctx) error {
	log := h.log.Function("deleteRequests")

	var body deleteRequestsBody
	if err := c.BodyParser(&body); err != nil {
		log.Er("failed to parse delete request", err)
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "failed to parse delete request"})
	}

	if len(body.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "at least one vacation request ID is required"})
	}

	if err := h.controller.DeleteRequests(c.Context(), body.IDs); err != nil {
		// Ids that did round-trip are already gone locally; report the rest.
		log.Er("failed to delete some vacation requests", err)
		return c.Status(fiber.StatusMultiStatus).
			JSON(fiber.Map{"message": "some deletions failed", "error": err.Error()})
	}

	return c.JSON(fiber.Map{"message": "success"})
}

func (h *VacationHandler) changeStatus(c *fiber.Ctx) error {
	log := h.log.Function("changeStatus")

	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "vacation request ID is required"})
	}

	var cmd ChangeStatusRequest
	if err := c.BodyParser(&cmd); err != nil {
		log.Er("failed to parse status change", err)
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "failed to parse status change"})
	}

	status, err := h.controller.ChangeStatus(c.Context(), id, cmd)
	if err != nil {
		log.Er("failed to change status", err, "id", id)
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(fiber.Map{"message": "failed to change status", "error": err.Error()})
	}

	return c.Status(fiber.StatusCreated).
		JSON(fiber.Map{"message": "success", "status": status})
}

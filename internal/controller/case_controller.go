package controller

import (
	"github.com/gofiber/fiber/v2"

	"resident-sim-be/internal/dto"
	"resident-sim-be/internal/pkg/serverutils"
	"resident-sim-be/internal/service"
)

type ICaseController interface {
	RegisterRoutes(r fiber.Router)
}

type caseController struct {
	service service.ICaseService
}

func NewCaseController(service service.ICaseService) ICaseController {
	return &caseController{service: service}
}

func (c *caseController) RegisterRoutes(r fiber.Router) {
	r.Get("/cases", c.List)
	r.Post("/cases", c.Create)
}

func (c *caseController) List(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success list cases", c.service.List()))
}

func (c *caseController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateCaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create case", res))
}

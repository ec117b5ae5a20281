package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"resident-sim-be/internal/dto"
	"resident-sim-be/internal/pkg/serverutils"
	"resident-sim-be/internal/service"
)

type IEncounterController interface {
	RegisterRoutes(r fiber.Router)
}

type encounterController struct {
	service service.IEncounterService
}

func NewEncounterController(service service.IEncounterService) IEncounterController {
	return &encounterController{service: service}
}

func (c *encounterController) RegisterRoutes(r fiber.Router) {
	r.Post("/session/start", c.StartSession)
	r.Post("/session/reset", c.ResetSessions)

	r.Post("/patient/chat", c.PatientChat)

	a := r.Group("/attending")
	a.Post("/open", c.OpenEncounter)
	a.Post("/history_discuss", c.HistoryDiscuss)
	a.Post("/exam_intro", c.ExamIntro)
	a.Post("/exam_chat", c.ExamChat)
	a.Post("/final_prompt", c.FinalPrompt)
	a.Post("/final_collect", c.SubmitDiagnosis)
	a.Post("/start_treatment", c.StartTreatment)
	a.Post("/treatment_assess", c.AssessTreatment)
	a.Post("/final_followups", c.FinalFollowup)
	a.Post("/finalize_encounter", c.FinalizeEncounter)
}

func (c *encounterController) StartSession(ctx *fiber.Ctx) error {
	var req dto.StartSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.StartSession(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success start session", res))
}

func (c *encounterController) ResetSessions(ctx *fiber.Ctx) error {
	c.service.ResetSessions()
	return ctx.JSON(serverutils.SuccessResponse[any]("Success reset sessions", nil))
}

func (c *encounterController) PatientChat(ctx *fiber.Ctx) error {
	return c.chat(ctx, c.service.PatientChat, "Success patient chat")
}

func (c *encounterController) HistoryDiscuss(ctx *fiber.Ctx) error {
	return c.chat(ctx, c.service.HistoryDiscuss, "Success history discussion")
}

func (c *encounterController) ExamChat(ctx *fiber.Ctx) error {
	return c.chat(ctx, c.service.ExamChat, "Success exam chat")
}

func (c *encounterController) SubmitDiagnosis(ctx *fiber.Ctx) error {
	return c.chat(ctx, c.service.SubmitDiagnosis, "Success final assessment")
}

func (c *encounterController) AssessTreatment(ctx *fiber.Ctx) error {
	return c.chat(ctx, c.service.AssessTreatment, "Success treatment assessment")
}

func (c *encounterController) FinalFollowup(ctx *fiber.Ctx) error {
	return c.chat(ctx, c.service.FinalFollowup, "Success follow-up")
}

func (c *encounterController) OpenEncounter(ctx *fiber.Ctx) error {
	return c.trigger(ctx, c.service.OpenEncounter, "Success open encounter")
}

func (c *encounterController) ExamIntro(ctx *fiber.Ctx) error {
	return c.trigger(ctx, c.service.ExamIntro, "Success exam intro")
}

func (c *encounterController) FinalPrompt(ctx *fiber.Ctx) error {
	return c.trigger(ctx, c.service.FinalPrompt, "Success final prompt")
}

func (c *encounterController) StartTreatment(ctx *fiber.Ctx) error {
	return c.trigger(ctx, c.service.StartTreatment, "Success start treatment")
}

func (c *encounterController) FinalizeEncounter(ctx *fiber.Ctx) error {
	return c.trigger(ctx, c.service.FinalizeEncounter, "Success finalize encounter")
}

func (c *encounterController) chat(
	ctx *fiber.Ctx,
	op func(context.Context, *dto.ChatRequest) (*dto.ChatResponse, error),
	message string,
) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := op(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *encounterController) trigger(
	ctx *fiber.Ctx,
	op func(context.Context, *dto.TriggerRequest) (*dto.ChatResponse, error),
	message string,
) error {
	var req dto.TriggerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := op(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

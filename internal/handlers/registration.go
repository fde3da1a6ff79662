package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/clubhub-backend/internal/services"
)

// RegistrationHandler serves the student-facing registration flow
type RegistrationHandler struct {
	registrations *services.RegistrationService
	direct        *services.DirectRegistrationService
}

func NewRegistrationHandler(registrations *services.RegistrationService, direct *services.DirectRegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, direct: direct}
}

// Submit registers a team by GR numbers and sends each participant an OTP
func (h *RegistrationHandler) Submit(c *fiber.Ctx) error {
	var req services.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.registrations.Submit(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(submitResponse(result, "OTP sent to every participant's email"))
}

func submitResponse(result *services.SubmitResult, message string) fiber.Map {
	response := fiber.Map{
		"success":         true,
		"registration_id": result.Registration.ID,
		"status":          result.Registration.RegistrationStatus,
		"message":         message,
	}
	if len(result.Issuance) > 0 {
		response["issuance"] = result.Issuance
	}
	if failed := result.DeliveryFailures(); failed > 0 {
		response["message"] = "Registration saved, but some emails could not be sent"
		response["delivery_failures"] = failed
	}
	return response
}

// Verify redeems one participant's OTP
func (h *RegistrationHandler) Verify(c *fiber.Ctx) error {
	var req struct {
		GRNumber string `json:"gr_number"`
		OTPCode  string `json:"otp_code"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.registrations.SubmitVerificationCode(c.UserContext(), c.Params("id"), req.GRNumber, req.OTPCode)
	if err != nil {
		return respondError(c, err)
	}

	message := "OTP verified. Waiting for the rest of the team."
	if result.AllVerified {
		message = "All participants verified. Registration confirmed!"
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"all_verified": result.AllVerified,
		"registration": result.Registration,
		"message":      message,
	})
}

// ResendOTP issues a new code for one participant
func (h *RegistrationHandler) ResendOTP(c *fiber.Ctx) error {
	var req struct {
		GRNumber string `json:"gr_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.registrations.ReissueOTP(c.UserContext(), c.Params("id"), req.GRNumber)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"issuance": result,
	})
}

func (h *RegistrationHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.registrations.GetStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// SubmitDirect registers from typed-in details
func (h *RegistrationHandler) SubmitDirect(c *fiber.Ctx) error {
	var req services.DirectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.direct.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	message := "Registration confirmed!"
	if !result.Registration.IsConfirmed() {
		message = "Verification links sent to every participant's email"
	}
	return c.Status(fiber.StatusCreated).JSON(submitResponse(result, message))
}

// VerifyEmail redeems an emailed verification link
func (h *RegistrationHandler) VerifyEmail(c *fiber.Ctx) error {
	result, err := h.direct.VerifyEmailToken(c.UserContext(), c.Query("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"all_verified": result.AllVerified,
		"registration": result.Registration,
	})
}

package recovery

import (
	"context"

	"qrcred-recovery/logger"
	recoveryService "qrcred-recovery/services/recovery"
	"qrcred-recovery/types"
	recoveryTypes "qrcred-recovery/types/recovery"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Requester is the coordinator operation this controller exposes
type Requester interface {
	RequestCode(ctx context.Context, accountID, channel string) recoveryService.Result
}

// Controller handles the public recovery-code endpoint
type Controller struct {
	Service   Requester
	Validator *validator.Validate
}

// NewController creates a recovery controller
func NewController(service Requester) *Controller {
	return &Controller{
		Service:   service,
		Validator: validator.New(),
	}
}

// RequestCode accepts {account_id, channel} and asks the coordinator to
// issue or re-serve a recovery code
func (rc *Controller) RequestCode(c *fiber.Ctx) error {
	var req recoveryTypes.RequestCodeRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return badRequest(c, "Invalid request body")
	}

	if err := rc.Validator.Struct(req); err != nil {
		return badRequest(c, "account_id is required and channel must be email, sms or whatsapp")
	}

	res := rc.Service.RequestCode(c.UserContext(), req.AccountID, req.Channel)

	if res.Success {
		return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "Recovery code sent",
			Data: recoveryTypes.RequestCodeResponse{
				Success:           true,
				DestinationMasked: res.DestinationMasked,
				Reused:            res.Reused,
			},
		})
	}

	status := statusForKind(res.ErrKind)
	return c.Status(status).JSON(types.ApiResponse{
		Status:  status,
		Message: res.Message,
		Data: recoveryTypes.RequestCodeResponse{
			Success:           false,
			ErrorKind:         string(res.ErrKind),
			Message:           res.Message,
			RetryAfterSeconds: res.RetryAfterSeconds(),
		},
	})
}

func statusForKind(kind recoveryService.Kind) int {
	switch kind {
	case recoveryService.KindInvalidInput:
		return fiber.StatusBadRequest
	case recoveryService.KindAccountNotFound:
		return fiber.StatusNotFound
	case recoveryService.KindChannelNotAvailable:
		return fiber.StatusUnprocessableEntity
	case recoveryService.KindRateLimited:
		return fiber.StatusTooManyRequests
	case recoveryService.KindDeliveryFailed:
		return fiber.StatusBadGateway
	case recoveryService.KindTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
		Status:  fiber.StatusBadRequest,
		Message: message,
		Data: recoveryTypes.RequestCodeResponse{
			Success:   false,
			ErrorKind: string(recoveryService.KindInvalidInput),
			Message:   message,
		},
	})
}

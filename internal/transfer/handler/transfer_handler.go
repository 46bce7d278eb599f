package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	authservice "github.com/testes001/myfinbank-sub003/internal/auth/service"
	apperrors "github.com/testes001/myfinbank-sub003/internal/errors"
	"github.com/testes001/myfinbank-sub003/internal/metrics"
	"github.com/testes001/myfinbank-sub003/internal/transfer/domain"
	"github.com/testes001/myfinbank-sub003/internal/transfer/dto"
	"github.com/testes001/myfinbank-sub003/internal/transfer/service"
	"github.com/testes001/myfinbank-sub003/pkg/constant"
)

type TransferHandler struct {
	engine  *service.TransferEngine
	metrics *metrics.Metrics
}

func NewTransferHandler(engine *service.TransferEngine, m *metrics.Metrics) *TransferHandler {
	return &TransferHandler{engine: engine, metrics: m}
}

func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var input dto.TransferInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}

	input.IdempotencyKey = c.Get(constant.HeaderIdempotencyKey)
	if claims, ok := c.Locals("claims").(*authservice.JWTCustomClaims); ok {
		input.ActorID = claims.UserID
	}

	txn, err := h.engine.Transfer(c.Context(), input)
	if err != nil {
		h.metrics.Transfers.WithLabelValues("failed").Inc()
		switch {
		case errors.Is(err, apperrors.ErrInvalidTransfer),
			errors.Is(err, apperrors.ErrInsufficientFunds),
			errors.Is(err, apperrors.ErrCurrencyMismatch),
			errors.Is(err, apperrors.ErrAccountInactive):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, apperrors.ErrAccountNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConcurrentModification):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
		}
	}

	h.metrics.Transfers.WithLabelValues(string(txn.Status)).Inc()

	return c.Status(fiber.StatusCreated).JSON(toOutput(txn))
}

func (h *TransferHandler) Get(c *fiber.Ctx) error {
	txn, err := h.engine.GetTransaction(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, apperrors.ErrTransactionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}

	return c.Status(fiber.StatusOK).JSON(toOutput(txn))
}

func toOutput(txn *domain.Transaction) dto.TransactionOutput {
	return dto.TransactionOutput{
		ID:              txn.ID,
		FromAccountID:   txn.FromAccountID,
		ToAccountID:     txn.ToAccountID,
		Amount:          txn.Amount.StringFixed(2),
		Currency:        txn.Currency,
		Status:          string(txn.Status),
		ReferenceNumber: txn.ReferenceNumber,
		Description:     txn.Description,
		CreatedAt:       txn.CreatedAt,
		CompletedAt:     txn.CompletedAt,
		FailureReason:   txn.FailureReason,
	}
}

package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/huangminghuang/chainwait/chain"
	"github.com/huangminghuang/chainwait/tracker"
)

// AliveResponse is a response for alive and version check.
type AliveResponse struct {
	Alive      bool   `json:"alive"`
	APIVersion string `json:"api_version"`
	APIHeader  string `json:"api_header"`
}

func (s *server) alive(c *fiber.Ctx) error {
	return c.JSON(
		AliveResponse{
			Alive:      true,
			APIVersion: ApiVersion,
			APIHeader:  Header,
		})
}

// PushTransactionRequest is a request to submit a transaction to the chain
// layer. The same body serves push_transaction and send_transaction.
type PushTransactionRequest struct {
	Transaction chain.Transaction `json:"transaction"`
}

func (s *server) pushTransaction(c *fiber.Ctx) error {
	return s.submitTransaction(c, "push_transaction")
}

func (s *server) sendTransaction(c *fiber.Ctx) error {
	return s.submitTransaction(c, "send_transaction")
}

func (s *server) submitTransaction(c *fiber.Ctx, action string) error {
	var req PushTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		s.log.Error(fmt.Sprintf("%s endpoint, malformed body: %s", action, err))
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(tracker.NewErrorResult(fiber.StatusUnprocessableEntity, "invalid request body"))
	}

	result, err := s.submitter.Submit(c.Context(), req.Transaction)
	if err != nil {
		s.log.Error(fmt.Sprintf("%s endpoint, chain layer rejected transaction: %s", action, err))
		return c.Status(fiber.StatusInternalServerError).
			JSON(tracker.NewErrorResult(fiber.StatusInternalServerError, err.Error()))
	}

	return c.Status(fiber.StatusAccepted).JSON(result)
}

// WaitTransactionRequest is a request to hold the connection until the named
// transaction reaches the requested condition.
type WaitTransactionRequest struct {
	TransactionID string `json:"transaction_id"` // hex encoded transaction id
	Condition     string `json:"condition"`      // "accepted" or "finalized"
	Timeout       uint32 `json:"timeout"`        // wait expiration in seconds, global tracking only
}

type waitOutcome struct {
	status int
	body   any
}

func (s *server) waitTransaction(c *fiber.Ctx) error {
	var req WaitTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		s.log.Error(fmt.Sprintf("wait_transaction endpoint, malformed body: %s", err))
		return c.Status(fiber.StatusUnprocessableEntity).
			JSON(tracker.NewErrorResult(fiber.StatusUnprocessableEntity, "invalid request body"))
	}

	// an undecodable id degrades to the zero sentinel which the tracker
	// rejects with 422, keeping id validation in one place
	id, _ := chain.ParseTransactionID(req.TransactionID)

	done := make(chan waitOutcome, 1)
	s.dispatcher.HandleWaitTransaction(id, req.Condition, req.Timeout, func(status int, body any) {
		done <- waitOutcome{status: status, body: body}
	})

	outcome := <-done
	return c.Status(outcome.status).JSON(outcome.body)
}

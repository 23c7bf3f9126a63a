package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"boxoffice/internal/application/usecases/reservation"
	"boxoffice/internal/entities"
)

type ReserveRequest struct {
	PaymentID     string                `json:"payment_id"`
	TicketDetails []ReserveTicketDetail `json:"ticket_details"`
}

type ReserveTicketDetail struct {
	TicketClassID uuid.UUID `json:"ticket_class_id"`
	Quantity      int       `json:"quantity"`
}

type ReserveResponse struct {
	InvoiceID uuid.UUID `json:"invoice_id"`
}

func (s *Server) ReserveHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request ReserveRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	details := make(entities.TicketDetails, 0, len(request.TicketDetails))
	for _, detail := range request.TicketDetails {
		details = append(details, entities.TicketDetail{
			TicketClassID: detail.TicketClassID,
			Quantity:      detail.Quantity,
		})
	}

	invoiceID, err := s.reservations.Reserve(ctx, reservation.ReserveRequest{
		PaymentID:     request.PaymentID,
		TicketDetails: details,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, ReserveResponse{InvoiceID: invoiceID})
}

func (s *Server) ConfirmHandler(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := uuid.Parse(c.Param("invoice_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}

	if err := s.reservations.Confirm(ctx, invoiceID); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"boxoffice/internal/entities"
)

type CreateShowRequest struct {
	Title            string `json:"title"`
	Venue            string `json:"venue"`
	Date             string `json:"date"`
	Time             string `json:"time"`
	SaleStatus       string `json:"sale_status"`
	AutoUpdateStatus bool   `json:"auto_update_status"`
}

type CreateShowResponse struct {
	ShowID uuid.UUID `json:"show_id"`
}

func (s *Server) CreateShowHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CreateShowRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	date, err := time.Parse("2006-01-02", request.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	showID, err := s.shows.CreateShow(ctx, entities.Show{
		Title:            request.Title,
		Venue:            request.Venue,
		Date:             date,
		Time:             request.Time,
		SaleStatus:       entities.SaleStatus(request.SaleStatus),
		AutoUpdateStatus: request.AutoUpdateStatus,
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, CreateShowResponse{ShowID: showID})
}

type ShowResponse struct {
	ShowID           uuid.UUID `json:"show_id"`
	Title            string    `json:"title"`
	Venue            string    `json:"venue"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	SaleStatus       string    `json:"sale_status"`
	AutoUpdateStatus bool      `json:"auto_update_status"`
}

func (s *Server) GetShowHandler(c echo.Context) error {
	ctx := c.Request().Context()

	showID, err := uuid.Parse(c.Param("show_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid show id")
	}

	show, err := s.shows.GetShow(ctx, showID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, ShowResponse{
		ShowID:           show.ID,
		Title:            show.Title,
		Venue:            show.Venue,
		Date:             show.Date.Format("2006-01-02"),
		Time:             show.Time,
		SaleStatus:       string(show.SaleStatus),
		AutoUpdateStatus: show.AutoUpdateStatus,
	})
}

type UpdateSaleStatusRequest struct {
	SaleStatus string `json:"sale_status"`
}

func (s *Server) UpdateSaleStatusHandler(c echo.Context) error {
	ctx := c.Request().Context()

	showID, err := uuid.Parse(c.Param("show_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid show id")
	}

	var request UpdateSaleStatusRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	if err := s.shows.UpdateSaleStatus(ctx, showID, entities.SaleStatus(request.SaleStatus)); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

type IssueAuthCodeResponse struct {
	AuthCode string `json:"auth_code"`
}

func (s *Server) IssueAuthCodeHandler(c echo.Context) error {
	ctx := c.Request().Context()

	showID, err := uuid.Parse(c.Param("show_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid show id")
	}

	// issuing for an unknown show is refused rather than minting a
	// dangling credential
	if _, err := s.shows.GetShow(ctx, showID); err != nil {
		return httpError(err)
	}

	code, err := s.authCodes.Issue(ctx, showID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, IssueAuthCodeResponse{AuthCode: code})
}

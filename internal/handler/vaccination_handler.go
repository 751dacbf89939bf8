package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/vaccination-engine/internal/domain"
	"github.com/kursadbilgin/vaccination-engine/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type VaccinationService interface {
	Schedule(ctx context.Context, in service.ScheduleInput) (*service.ClassifiedVaccination, error)
	GetByID(ctx context.Context, id string) (*service.ClassifiedVaccination, error)
	List(ctx context.Context, q service.ListQuery) (*service.ListResult, error)
	MarkCompleted(ctx context.Context, id string) (*service.ClassifiedVaccination, error)
}

type ReminderService interface {
	SendReminder(ctx context.Context, vaccinationID string) (*service.ReminderResult, error)
}

type VaccinationHandler struct {
	vaccinations VaccinationService
	reminders    ReminderService
}

func NewVaccinationHandler(vaccinations VaccinationService, reminders ReminderService) (*VaccinationHandler, error) {
	if vaccinations == nil {
		return nil, fmt.Errorf("vaccination service is required")
	}
	if reminders == nil {
		return nil, fmt.Errorf("reminder service is required")
	}
	return &VaccinationHandler{vaccinations: vaccinations, reminders: reminders}, nil
}

func RegisterVaccinationRoutes(router fiber.Router, vaccinations VaccinationService, reminders ReminderService) error {
	h, err := NewVaccinationHandler(vaccinations, reminders)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/vaccinations", h.ScheduleVaccination)
	v1.Get("/vaccinations", h.ListVaccinations)
	v1.Get("/vaccinations/:id", h.GetVaccination)
	v1.Post("/vaccinations/:id/complete", h.CompleteVaccination)
	v1.Post("/vaccinations/:id/reminder", h.SendReminder)

	return nil
}

type scheduleVaccinationRequest struct {
	AnimalID      string `json:"animalId"`
	VaccineName   string `json:"vaccineName"`
	ScheduledDate string `json:"scheduledDate"`
}

type vaccinationResponse struct {
	ID               string    `json:"id"`
	AnimalID         string    `json:"animalId"`
	VaccineName      string    `json:"vaccineName"`
	ScheduledDate    string    `json:"scheduledDate"`
	Completed        bool      `json:"completed"`
	NotificationSent bool      `json:"notificationSent"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt,omitempty"`
}

type listVaccinationsResponse struct {
	Data []vaccinationResponse `json:"data"`
	Meta listMeta              `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type reminderResponse struct {
	VaccinationID string    `json:"vaccinationId"`
	Channel       string    `json:"channel"`
	MessageID     string    `json:"messageId,omitempty"`
	SentAt        time.Time `json:"sentAt"`
}

func (h *VaccinationHandler) ScheduleVaccination(c *fiber.Ctx) error {
	var req scheduleVaccinationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	scheduledDate, err := domain.ParseDate(req.ScheduledDate)
	if err != nil {
		return toHTTPError(err)
	}

	created, err := h.vaccinations.Schedule(requestContext(c), service.ScheduleInput{
		AnimalID:      req.AnimalID,
		VaccineName:   req.VaccineName,
		ScheduledDate: scheduledDate,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toVaccinationResponse(created))
}

func (h *VaccinationHandler) GetVaccination(c *fiber.Ctx) error {
	v, err := h.vaccinations.GetByID(requestContext(c), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toVaccinationResponse(v))
}

func (h *VaccinationHandler) CompleteVaccination(c *fiber.Ctx) error {
	v, err := h.vaccinations.MarkCompleted(requestContext(c), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toVaccinationResponse(v))
}

func (h *VaccinationHandler) SendReminder(c *fiber.Ctx) error {
	result, err := h.reminders.SendReminder(requestContext(c), strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(reminderResponse{
		VaccinationID: result.VaccinationID,
		Channel:       result.Channel,
		MessageID:     result.MessageID,
		SentAt:        result.SentAt,
	})
}

func (h *VaccinationHandler) ListVaccinations(c *fiber.Ctx) error {
	query, err := parseListQuery(c)
	if err != nil {
		return toHTTPError(err)
	}

	result, err := h.vaccinations.List(requestContext(c), query)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]vaccinationResponse, 0, len(result.Items))
	for i := range result.Items {
		data = append(data, toVaccinationResponse(&result.Items[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listVaccinationsResponse{
		Data: data,
		Meta: listMeta{
			Page:     result.Page,
			PageSize: result.PageSize,
			Total:    result.Total,
		},
	})
}

func parseListQuery(c *fiber.Ctx) (service.ListQuery, error) {
	query := service.ListQuery{
		AnimalID: strings.TrimSpace(c.Query("animalId")),
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if query.Page < 1 {
		return service.ListQuery{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if query.PageSize < 1 || query.PageSize > maxPageSize {
		return service.ListQuery{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseStatusFromString(rawStatus)
		if err != nil {
			return service.ListQuery{}, err
		}
		query.Status = &status
	}

	from, err := parseDateQuery(c.Query("from"), "from")
	if err != nil {
		return service.ListQuery{}, err
	}
	to, err := parseDateQuery(c.Query("to"), "to")
	if err != nil {
		return service.ListQuery{}, err
	}
	query.From = from
	query.To = to

	return query, nil
}

func toVaccinationResponse(v *service.ClassifiedVaccination) vaccinationResponse {
	if v == nil {
		return vaccinationResponse{}
	}

	return vaccinationResponse{
		ID:               v.ID,
		AnimalID:         v.AnimalID,
		VaccineName:      v.VaccineName,
		ScheduledDate:    domain.FormatDate(v.ScheduledDate),
		Completed:        v.Completed,
		NotificationSent: v.NotificationSent,
		Status:           v.Status.String(),
		CreatedAt:        v.CreatedAt,
		UpdatedAt:        v.UpdatedAt,
	}
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/infrastructure/mapscene"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/errors"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/utils"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/validator"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
	"github.com/Starfish-122/CNX-sub000/internal/usecase/dto"
)

// MapHandler - сессии страницы карты
type MapHandler struct {
	mapUC  *usecase.MapPageUseCase
	logger *zap.Logger
}

func NewMapHandler(mapUC *usecase.MapPageUseCase, logger *zap.Logger) *MapHandler {
	return &MapHandler{
		mapUC:  mapUC,
		logger: logger,
	}
}

// OpenSession godoc
// @Summary Открыть страницу карты
// @Description Загружает SDK карты (один раз на процесс), создаёт карту в контейнере, рисует регионы и запускает расстановку маркеров. Если SDK недоступен, возвращает 503 с состоянием загрузчика.
// @Tags Map
// @Accept json
// @Produce json
// @Param request body dto.OpenSessionRequest true "Контейнер и выбранный регион"
// @Success 201 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions [post]
func (h *MapHandler) OpenSession(c *fiber.Ctx) error {
	var req dto.OpenSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"validation": err.Error(),
		}))
	}

	result, err := h.mapUC.OpenSession(c.Context(), req)
	if err != nil {
		h.logger.Warn("Failed to open map session",
			zap.String("container_id", req.ContainerID),
			zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, result)
}

// GetSession godoc
// @Summary Состояние страницы карты
// @Tags Map
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id} [get]
func (h *MapHandler) GetSession(c *fiber.Ctx) error {
	result, err := h.mapUC.Session(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// Scene godoc
// @Summary Снимок карты в GeoJSON
// @Description FeatureCollection: маркеры и подписи - точки, регионы - полигоны, кластеры - точки с kind=cluster. Вьюпорт в поле viewport.
// @Tags Map
// @Produce json
// @Param id path string true "ID сессии"
// @Success 200 {object} map[string]interface{} "GeoJSON FeatureCollection"
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id}/scene [get]
func (h *MapHandler) Scene(c *fiber.Ctx) error {
	snap, err := h.mapUC.Scene(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/geo+json")
	body, err := mapscene.FeatureCollection(snap).MarshalJSON()
	if err != nil {
		return utils.SendError(c, err)
	}
	return c.Send(body)
}

// SelectRegion godoc
// @Summary Выбрать регион
// @Description region=null снимает выбор. Онлайн-регион прячет полигоны и не двигает карту.
// @Tags Map
// @Accept json
// @Produce json
// @Param id path string true "ID сессии"
// @Param request body dto.SelectRegionRequest true "Регион"
// @Success 200 {object} utils.SuccessResponse{data=dto.SessionResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id}/region [post]
func (h *MapHandler) SelectRegion(c *fiber.Ctx) error {
	var req dto.SelectRegionRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRegion)
	}

	result, err := h.mapUC.SelectRegion(c.Context(), c.Params("id"), req.Region)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// Click godoc
// @Summary Клик по оверлею
// @Description Маркер показывает свою подпись и прячет остальные; подпись возвращает navigate=/place/{name}; полигон выбирает регион.
// @Tags Map
// @Produce json
// @Param id path string true "ID сессии"
// @Param overlay path string true "ID оверлея из снимка"
// @Success 200 {object} utils.SuccessResponse{data=dto.ClickResponse}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id}/click/{overlay} [post]
func (h *MapHandler) Click(c *fiber.Ctx) error {
	result, err := h.mapUC.Click(c.Context(), c.Params("id"), c.Params("overlay"))
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, result, nil)
}

// CloseSession godoc
// @Summary Закрыть страницу карты
// @Tags Map
// @Param id path string true "ID сессии"
// @Success 204
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/map/sessions/{id} [delete]
func (h *MapHandler) CloseSession(c *fiber.Ctx) error {
	if err := h.mapUC.CloseSession(c.Params("id")); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SDKStatus godoc
// @Summary Состояние SDK карты
// @Description unloaded, loading, ready или failed с понятным сообщением (например, "map API key is not configured")
// @Tags Map
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.SDKStatusResponse}
// @Router /api/v1/sdk/status [get]
func (h *MapHandler) SDKStatus(c *fiber.Ctx) error {
	return utils.SendSuccess(c, h.mapUC.SDKStatus(), nil)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/pkg/errors"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/utils"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/validator"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
	"github.com/Starfish-122/CNX-sub000/internal/usecase/dto"
)

// PlaceHandler - список заведений и страница места
type PlaceHandler struct {
	placeUC *usecase.PlaceUseCase
	logger  *zap.Logger
}

func NewPlaceHandler(placeUC *usecase.PlaceUseCase, logger *zap.Logger) *PlaceHandler {
	return &PlaceHandler{
		placeUC: placeUC,
		logger:  logger,
	}
}

// List godoc
// @Summary Список заведений
// @Description Заведения из контент-бэкенда с фильтрами по региону и тегам. Для мест с известными координатами считаются расстояние и время пешком/на машине от опорной точки.
// @Tags Places
// @Produce json
// @Param region query string false "Регион (신촌, 이대, 홍대/합정, 연남/연희, 온라인)"
// @Param q query string false "Поиск по названию"
// @Param status query string false "Статус"
// @Param mood query string false "Атмосфера"
// @Param service query string false "Сервис"
// @Param party_size query string false "Размер компании"
// @Param sort query string false "distance, rating или name" default(distance)
// @Param lat query number false "Широта опорной точки"
// @Param lng query number false "Долгота опорной точки"
// @Param limit query int false "Максимум результатов"
// @Success 200 {object} utils.SuccessResponse{data=dto.PlaceListResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 502 {object} utils.ErrorResponse
// @Router /api/v1/places [get]
func (h *PlaceHandler) List(c *fiber.Ctx) error {
	var req dto.ListPlacesRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"query": err.Error(),
		}))
	}

	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"validation": err.Error(),
		}))
	}

	result, err := h.placeUC.List(c.Context(), req)
	if err != nil {
		h.logger.Warn("Failed to list places", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, result, &utils.Meta{
		Total: result.Total,
		Limit: req.Limit,
	})
}

// Get godoc
// @Summary Заведение по названию
// @Description Название в пути URL-кодировано так же, как в ссылке с подписи маркера
// @Tags Places
// @Produce json
// @Param name path string true "Название заведения"
// @Success 200 {object} utils.SuccessResponse{data=dto.PlaceItem}
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/places/{name} [get]
func (h *PlaceHandler) Get(c *fiber.Ctx) error {
	place, err := h.placeUC.GetByName(c.Context(), c.Params("name"))
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, place, nil)
}

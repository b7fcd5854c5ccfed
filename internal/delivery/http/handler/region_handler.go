package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/geo"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/utils"
	"github.com/Starfish-122/CNX-sub000/internal/usecase/dto"
)

type RegionHandler struct {
	regions dto.RegionListResponse
}

// NewRegionHandler - перечисление статическое, ответ собирается один раз
func NewRegionHandler() *RegionHandler {
	list := domain.Regions()
	out := make([]dto.RegionResponse, 0, len(list))
	for _, r := range list {
		out = append(out, dto.RegionResponse{
			Key:     r.Key,
			Aliases: r.Aliases,
			Online:  r.IsOnline(),
			Center:  r.Center,
			Bounds:  geo.PolygonBounds(r.Polygon),
			Polygon: r.Polygon,
		})
	}
	return &RegionHandler{regions: dto.RegionListResponse{Regions: out}}
}

// List godoc
// @Summary Регионы
// @Description Известные регионы с центрами, полигонами и ограничивающими прямоугольниками
// @Tags Regions
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=dto.RegionListResponse}
// @Router /api/v1/regions [get]
func (h *RegionHandler) List(c *fiber.Ctx) error {
	return utils.SendSuccess(c, h.regions, &utils.Meta{Total: len(h.regions.Regions)})
}

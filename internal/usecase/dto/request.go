package dto

// ListPlacesRequest - фильтры и сортировка списка заведений
type ListPlacesRequest struct {
	Region    string   `query:"region" validate:"omitempty,region"`
	Query     string   `query:"q" validate:"omitempty,max=100"`
	Status    string   `query:"status" validate:"omitempty,max=50"`
	Mood      string   `query:"mood" validate:"omitempty,max=50"`
	Service   string   `query:"service" validate:"omitempty,max=50"`
	PartySize string   `query:"party_size" validate:"omitempty,max=50"`
	Sort      string   `query:"sort" validate:"omitempty,oneof=distance rating name"`
	Lat       *float64 `query:"lat" validate:"omitempty,min=-90,max=90"`
	Lng       *float64 `query:"lng" validate:"omitempty,min=-180,max=180"`
	Limit     int      `query:"limit" validate:"omitempty,min=1,max=500"`
}

// OpenSessionRequest - открытие страницы карты
type OpenSessionRequest struct {
	ContainerID string  `json:"container_id" validate:"required,max=64"`
	Region      *string `json:"region,omitempty" validate:"omitempty,region"`
}

// SelectRegionRequest - выбор региона; null снимает выбор
type SelectRegionRequest struct {
	Region *string `json:"region" validate:"omitempty,region"`
}

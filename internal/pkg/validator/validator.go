package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/Starfish-122/CNX-sub000/internal/domain"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("region", validateRegion)
}

// Validate - валидация структуры
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator - получить валидатор для кастомной конфигурации
func GetValidator() *validator.Validate {
	return validate
}

// validateRegion - пустая строка или известный регион
func validateRegion(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || domain.IsRegionName(v)
}

package class

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/lophoc/core"
)

var (
	classTypeTag  = "classtype"
	classTypeText = "{0} must be one of LT, BT, LT_BT"
)

// InitValidators registers the class validators & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(classTypeTag, func(fl validator.FieldLevel) bool {
		if t, ok := fl.Field().Interface().(Type); ok {
			return t.Valid()
		}
		return false
	})
	core.RegisterCustomTranslation(validate, translator, classTypeTag, classTypeText)
}

package util

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SupportedLocales 界面支持的语言
var SupportedLocales = []string{"de", "en"}

func ValidLocale(locale string) bool {
	for _, l := range SupportedLocales {
		if l == locale {
			return true
		}
	}
	return false
}

func validateLocale(fl validator.FieldLevel) bool {
	return ValidLocale(fl.Field().String())
}

// 课程难度 1-5
func validateDifficulty(fl validator.FieldLevel) bool {
	d := fl.Field().Int()
	return d >= 1 && d <= 5
}

// RegisterValidators 在 gin 的校验引擎上注册自定义 tag
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("locale", validateLocale); err != nil {
		return err
	}
	return v.RegisterValidation("difficulty", validateDifficulty)
}

// BindingMessage 把 validator 的错误转成可读信息
func BindingMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return err.Error()
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid e-mail address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "locale":
		return fe.Field() + " is not a supported locale"
	case "difficulty":
		return fe.Field() + " must be between 1 and 5"
	}
	return fe.Field() + " is invalid"
}

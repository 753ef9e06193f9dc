package httpx

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// MustRegisterValidation регистрирует строковое правило валидации
// в движке, которым gin проверяет тела запросов (тег binding:"<tag>").
// Паникует, если движок не go-playground/validator.
func MustRegisterValidation(tag string, valid func(string) bool) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("httpx: движок валидации gin не go-playground/validator")
	}
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return valid(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("httpx: регистрация правила %q: %v", tag, err))
	}
}

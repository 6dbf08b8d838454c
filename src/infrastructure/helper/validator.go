package helper

import (
	"fmt"

	logger "emrs-notify-api/src/infrastructure/logger"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Validator turns validator field errors into messages a client can act on
type Validator interface {
	GetErrorMsg(fe validator.FieldError) string
}

type fieldValidator struct {
	Logger *logger.Logger
}

func NewValidator(loggerInstance *logger.Logger) Validator {
	return &fieldValidator{Logger: loggerInstance}
}

func (v *fieldValidator) GetErrorMsg(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Should contain at least %s item(s)", fe.Param())
	case "max":
		return fmt.Sprintf("Should contain at most %s item(s)", fe.Param())
	case "email":
		return "Should be a valid email address"
	case "oneof":
		return fmt.Sprintf("Should be one of [%s]", fe.Param())
	case "e164":
		return "Should be a phone number in E.164 format"
	}
	v.Logger.Debug("No message for validation tag", zap.String("tag", fe.Tag()), zap.String("field", fe.Field()))
	return "Invalid value"
}

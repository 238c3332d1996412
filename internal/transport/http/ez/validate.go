package ez

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"marketplace-api/internal/domain"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("listingstatus", func(fl validator.FieldLevel) bool {
			return domain.IsOwnerStatus(fl.Field().String())
		})
		_ = v.RegisterValidation("sourcetype", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == domain.SourceInternal || s == domain.SourceExternal
		})
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// bindMessage turns a binding error into a short client message.
func bindMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return fmt.Sprintf("%s has the wrong type", te.Field)
	}
	if errors.Is(err, errMalformedJSON) {
		return err.Error()
	}
	return "invalid request: " + err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required", "required_without":
		return f + " is required"
	case "email":
		return f + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must have at least %s characters", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must have at most %s characters", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "uuid":
		return f + " must be a uuid"
	case "listingstatus":
		return f + " must be one of active, paused, closed"
	case "sourcetype":
		return f + " must be internal or external"
	default:
		return f + " is invalid"
	}
}

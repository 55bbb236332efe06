package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/psds-microservice/inquiry-service/internal/model"
)

var registerOnce sync.Once

// RegisterValidators adds the domain tags used in request structs to gin's
// validator: inquiry_status (status or "all") and user_role.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("handler: unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		if err = v.RegisterValidation("inquiry_status", validInquiryStatus); err != nil {
			return
		}
		err = v.RegisterValidation("user_role", validUserRole)
	})
	return err
}

func validInquiryStatus(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" || s == "all" {
		return true
	}
	_, err := model.ParseStatus(s)
	return err == nil
}

func validUserRole(fl validator.FieldLevel) bool {
	_, err := model.ParseRole(fl.Field().String())
	return err == nil
}

// jsonFieldName reports validation failures under the wire name.
func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// bindingField names the first failing field of a binding error.
func bindingField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}

package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/yigit/phdtrack/internal/pkg/apperrors"
	"github.com/yigit/phdtrack/internal/pkg/helpers"
)

// Custom tags understood by Struct in addition to the validator built-ins.
const (
	TagDisplayDate = "ddmmyyyy"
	TagYear        = "year"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		// error messages use the label tag, then the json name
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if label := f.Tag.Get("label"); label != "" {
				return label
			}
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation(TagDisplayDate, func(fl validator.FieldLevel) bool {
			_, err := helpers.ParseDisplayDate(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation(TagYear, func(fl validator.FieldLevel) bool {
			return IsYear(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// IsYear reports whether s is an integer year.
func IsYear(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}

// Struct validates s and converts the first failure into a validation error.
func Struct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}
	fe := fieldErrs[0]
	return apperrors.NewValidationError(fe.Field(), message(fe))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case TagDisplayDate:
		return fe.Field() + ": invalid date format, use DD-MM-YYYY"
	case TagYear:
		return fe.Field() + " must be a valid year"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

// TrimStrings trims surrounding whitespace on every string and *string field of
// the struct pointed to by s, recursing into embedded structs.
func TrimStrings(s interface{}) {
	v := reflect.ValueOf(s)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return
	}
	trimValue(v.Elem())
}

func trimValue(v reflect.Value) {
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Ptr:
			if !f.IsNil() && f.Elem().Kind() == reflect.String {
				f.Elem().SetString(strings.TrimSpace(f.Elem().String()))
			}
		case reflect.Struct:
			if v.Type().Field(i).Anonymous {
				trimValue(f)
			}
		}
	}
}

package books

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/zoobzio/vigil"
)

// TimestampLayout is the required format of Library.Timestamp.
const TimestampLayout = "2006-01-02 15:04"

// Validator checks a Library against the document rules. Failures are
// reported as *vigil.ValidationError naming the first offending field.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("language", func(fl validator.FieldLevel) bool {
		l := Language(fl.Field().Int())
		_, known := languageNames[l]
		return known && l != LanguageUndefined
	})
	return &Validator{validate: v}
}

// Validate implements vigil.Validator.
func (v *Validator) Validate(lib *Library) error {
	if lib == nil {
		return &vigil.ValidationError{Reason: "library is nil"}
	}

	err := v.validate.Struct(lib)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &vigil.ValidationError{Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &vigil.ValidationError{
		Field:  fieldPath(fe.Namespace()),
		Reason: reason(fe),
	}
}

// fieldPath drops the root type from a namespace such as
// "Library.Articles[1].Author".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "is null or whitespace"
	case "required":
		return "is null"
	case "datetime":
		return "has invalid format (expected yyyy-MM-dd HH:mm)"
	case "language":
		return "is " + LanguageUndefined.String()
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}

var _ vigil.Validator[*Library] = (*Validator)(nil)

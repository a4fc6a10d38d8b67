package handlers

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/schoolhub/school-hub/internal/domain/result"
	"github.com/schoolhub/school-hub/internal/domain/shared"
	"github.com/schoolhub/school-hub/internal/domain/user"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	examTypeTag = "exam_type"
	roleTag     = "role"
)

// Validator validates request bodies by their `validate` struct tags and
// reports fields by their JSON names.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

// NewValidator creates a validator with English messages and the custom tags.
func NewValidator() *Validator {
	v := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	trans, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation(notBlankTag, notBlankValidation)
	_ = v.RegisterValidation(examTypeTag, examTypeValidation)
	_ = v.RegisterValidation(roleTag, roleValidation)

	// The translator is already registered as the default, so the
	// registration func is a noop.
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, examTypeTag, roleTag} {
		_ = v.RegisterTranslation(tag, trans, registerFn, translateCustom)
	}

	return &Validator{validate: v, translator: trans}
}

// Struct validates s. Field failures come back as *FieldErrors.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Translate(v.translator)
	}
	return &FieldErrors{Fields: fields}
}

// FieldErrors maps JSON field names to messages. It matches shared.ErrValidation.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, e.Fields[name])
	}
	return strings.Join(parts, "; ")
}

// Unwrap lets errors.Is(err, shared.ErrValidation) succeed.
func (e *FieldErrors) Unwrap() error {
	return shared.ErrValidation
}

// ─────────────────────────────────────────────────────────────────────────────
// Custom Validators
// ─────────────────────────────────────────────────────────────────────────────

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return fe.Field() + " cannot be blank"
	case examTypeTag:
		return fe.Field() + " must be one of: class test, internal, external, practical"
	case roleTag:
		return fe.Field() + " must be one of: admin, teacher, parent"
	default:
		return fe.Error()
	}
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func examTypeValidation(fl validator.FieldLevel) bool {
	_, err := result.ParseExamType(fl.Field().String())
	return err == nil
}

func roleValidation(fl validator.FieldLevel) bool {
	_, err := user.ParseRole(fl.Field().String())
	return err == nil
}

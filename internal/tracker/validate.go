package tracker

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

type validatorSvc struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

func validation() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// report option names as they appear in JSON
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)
		vSvc = &validatorSvc{validate: v, translator: trans}
	})
	return vSvc
}

// Validate checks cfg against its declared bounds and returns a readable
// error listing every violated option.
func Validate(cfg Config) error {
	if cfg == nil {
		return errors.New("nil configuration")
	}
	return ValidateOptions(string(cfg.Kind()), cfg)
}

// ValidateOptions checks any struct carrying validate tags, such as
// preprocessing or render options. what names the option set in the error.
func ValidateOptions(what string, v any) error {
	svc := validation()
	err := svc.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrapf(err, "validate %s options", what)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(svc.translator))
	}
	return errors.Errorf("invalid %s options: %s", what, strings.Join(msgs, "; "))
}

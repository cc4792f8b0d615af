// Package validator wires gin's binding validator to universal-translator so
// validation failures come back as readable messages.
package validator

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	val "github.com/go-playground/validator/v10"
	enTrans "github.com/go-playground/validator/v10/translations/en"
	zhTrans "github.com/go-playground/validator/v10/translations/zh"
	"github.com/pkg/errors"
)

// Setup registers en/zh translations on gin's validator engine and returns
// the translator registry.
func Setup() (*ut.UniversalTranslator, error) {
	enLocale := en.New()
	zhLocale := zh.New()
	uni := ut.New(enLocale, enLocale, zhLocale)

	engine, ok := binding.Validator.Engine().(*val.Validate)
	if !ok {
		return nil, errors.New("unexpected validator engine")
	}

	// Report field names the way clients sent them.
	engine.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if trans, found := uni.GetTranslator("en"); found {
		if err := enTrans.RegisterDefaultTranslations(engine, trans); err != nil {
			return nil, errors.Wrap(err, "register en translations")
		}
	}
	if trans, found := uni.GetTranslator("zh"); found {
		if err := zhTrans.RegisterDefaultTranslations(engine, trans); err != nil {
			return nil, errors.Wrap(err, "register zh translations")
		}
	}

	return uni, nil
}

package app

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

func (v ValidErrors) ErrorsToString() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) MapsToString() map[string]string {
	m := map[string]string{}
	for _, err := range v {
		m[err.Key] = err.Message
	}
	return m
}

// BindAndValid binds request params and validates them, translating
// validator messages with the request's translator.
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors
	err := c.ShouldBind(v)
	if err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
			return false, errs
		}

		trans := translatorFromContext(c)
		for _, verr := range verrs {
			message := verr.Error()
			if trans != nil {
				message = verr.Translate(trans)
			}
			errs = append(errs, &ValidError{
				Key:     verr.Field(),
				Message: message,
			})
		}
		return false, errs
	}

	return true, nil
}

// UnmarshalAndValid decodes a raw JSON payload (websocket message body) and
// validates it with the shared validator engine.
func UnmarshalAndValid(trans ut.Translator, data []byte, v interface{}) (bool, ValidErrors) {
	var errs ValidErrors

	if err := json.Unmarshal(data, v); err != nil {
		errs = append(errs, &ValidError{Key: "body", Message: "Invalid message format"})
		return false, errs
	}

	engine, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return true, nil
	}

	if err := engine.Struct(v); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
			return false, errs
		}
		for _, verr := range verrs {
			message := verr.Error()
			if trans != nil {
				message = verr.Translate(trans)
			}
			errs = append(errs, &ValidError{
				Key:     verr.Field(),
				Message: message,
			})
		}
		return false, errs
	}

	return true, nil
}

func translatorFromContext(c *gin.Context) ut.Translator {
	v, exists := c.Get("trans")
	if !exists {
		return nil
	}
	trans, ok := v.(ut.Translator)
	if !ok {
		return nil
	}
	return trans
}

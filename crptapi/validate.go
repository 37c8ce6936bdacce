/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("crptapi: failed to get 'en' translator")
	}
	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("inn", validateINN); err != nil {
		panic(err)
	}
}

// validateINN accepts taxpayer identification numbers: 10 digits for organizations and 12 for individuals.
func validateINN(fl validator.FieldLevel) bool {
	inn := fl.Field().String()
	if len(inn) != 10 && len(inn) != 12 {
		return false
	}
	for _, c := range inn {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// ValidateDocument checks the document and the signature before submission.
// The returned error is *ValidationError.
func ValidateDocument(doc *Document, signature string) error {
	var fields []FieldError
	if err := validate.Struct(doc); err != nil {
		var verrors validator.ValidationErrors
		if !errors.As(err, &verrors) {
			return err
		}
		for _, verror := range verrors {
			fields = append(fields, FieldError{
				Field: trimRootNamespace(verror.Namespace()),
				Err:   customErrForTag(verror.Tag(), verror),
			})
		}
	}
	if strings.TrimSpace(signature) == "" {
		fields = append(fields, FieldError{Field: "signature", Err: "signature is required"})
	}
	if len(fields) != 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func trimRootNamespace(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "this field is required"
	case "inn":
		return "must be an INN of 10 or 12 digits"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "required_without":
		return "this field is required when " + verror.Param() + " is empty"
	default:
		return verror.Translate(translator)
	}
}

// Copyright 2021 The oneshot Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"golang.org/x/net/http/httpguts"
)

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	translator, _ = ut.New(en.New(), en.New()).GetTranslator("en")
	err := en_translations.RegisterDefaultTranslations(validate, translator)
	if err != nil {
		panic(err)
	}
	mustRegister("dial_host", validDialHost)
	mustRegister("http_method", validMethod)
	mustRegister("request_target", validRequestTarget)
	mustRegister("host_header", httpguts.ValidHostHeader)
}

func mustRegister(tag string, fn func(string) bool) {
	err := validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Validate checks a plan against the rules for a sendable request:
// Host must be non-empty and free of whitespace and control characters,
// Port must be in 1..65535, URI must be a non-empty request-target
// without whitespace or control characters, Method must be an HTTP
// token, and HostHeader must be a valid Host header value.
//
// The returned error, if any, has type FieldErrors.
func Validate(p *Plan) error {
	if err := validate.Struct(p); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			field := FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			}
			fields = append(fields, field)
		}
		return fields
	}

	return nil
}

// A FieldError describes one plan field that failed validation.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors represents a collection of field errors.
type FieldErrors []FieldError

// Error implements the error interface.
func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return "oneshot/request: invalid plan: " + string(d)
}

// Fields returns the names of the fields that failed validation.
func (fe FieldErrors) Fields() []string {
	names := make([]string, len(fe))
	for i := range fe {
		names[i] = fe[i].Field
	}
	return names
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	case "dial_host":
		return "Must be a host name or an IP address without spaces or control characters"
	case "http_method":
		return "Must be an HTTP method token"
	case "request_target":
		return "Must be a request target without spaces or control characters"
	case "host_header":
		return "Must be a valid Host header value"
	default:
		return verror.Translate(translator)
	}
}

func validMethod(method string) bool {
	return method != "" && strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}

func validDialHost(host string) bool {
	return host != "" && strings.IndexFunc(host, isCTLOrSpace) == -1
}

func validRequestTarget(uri string) bool {
	return uri != "" && strings.IndexFunc(uri, isCTLOrSpace) == -1
}

func isCTLOrSpace(r rune) bool {
	return r <= ' ' || r == 0x7f
}

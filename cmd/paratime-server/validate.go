package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	val "github.com/go-playground/validator/v10"
)

var errBadRequest = errors.New("bad request")

var validate = newValidator()

var messages = map[string]string{
	"required":  "{field} is required",
	"max":       "{field} must be at most {param} characters",
	"latitude":  "{field} must be a latitude between -90 and 90",
	"longitude": "{field} must be a longitude between -180 and 180",
}

func newValidator() *val.Validate {
	v := val.New(val.WithRequiredStructEnabled())
	// Report fields under the names clients send.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// decodeJSON reads a JSON body into data and validates it.
func decodeJSON[T any](r io.Reader, data *T) error {
	dec := json.NewDecoder(io.LimitReader(r, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("%w: decoding request body: %w", errBadRequest, err)
	}
	return validateStruct(data)
}

func validateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return fmt.Errorf("%w: %s", errBadRequest, message(err))
	}
	return nil
}

// message turns the first validation failure into a readable sentence.
func message(err error) string {
	var verrs val.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	for _, ve := range verrs {
		if m := messages[ve.Tag()]; m != "" {
			m = strings.ReplaceAll(m, "{field}", ve.Field())
			return strings.ReplaceAll(m, "{param}", ve.Param())
		}
	}
	return verrs.Error()
}

package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// MaxRequestBodyBytes caps the request bodies DecodeJSON will read.
const MaxRequestBodyBytes = 1 << 20 // 1 MiB

// Validate is the shared validator instance. validator.Validate caches
// struct metadata, so handlers reuse one instance instead of building their
// own.
var Validate = validator.New()

// DecodeJSON decodes the request body into v, rejecting bodies over
// MaxRequestBodyBytes and fields the target struct does not declare.
func DecodeJSON(r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, MaxRequestBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ValidateRequest validates v, preferring its own Validate method when it
// has one.
func ValidateRequest(v interface{}) error {
	if validatable, ok := v.(interface{ Validate() error }); ok {
		return validatable.Validate()
	}
	return Validate.Struct(v)
}

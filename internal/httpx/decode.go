package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Lelo88/inventory-pricing-api/internal/validation"
)

// ErrInvalidJSON indica que el body no se pudo decodificar.
var ErrInvalidJSON = errors.New("invalid json body")

// DecodeJSON decodifica el body en dest y valida sus tags `validate`.
// Devuelve ErrInvalidJSON o *validation.Errors.
func DecodeJSON(request *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, request.Body)
	}()

	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return ErrInvalidJSON
	}
	return validation.Struct(dest)
}

// FailDecode traduce un error de DecodeJSON a la respuesta estándar.
func FailDecode(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrors *validation.Errors
	switch {
	case errors.As(err, &fieldErrors):
		FailWithDetails(w, r, http.StatusBadRequest, "invalid_input", "invalid input data", fieldErrors.Fields)
	default:
		Fail(w, r, http.StatusBadRequest, "invalid_json", "invalid JSON body")
	}
}

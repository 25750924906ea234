package httpx

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response es el sobre de todas las respuestas JSON: data o error, más meta.
type Response struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
	Meta  *Meta      `json:"meta,omitempty"`
}

// Meta acompaña cada respuesta para correlacionar con los logs.
type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	TimeUTC   string `json:"time_utc,omitempty"`
}

// ErrorBody lleva un code estable (ej: "insufficient_stock"), un mensaje para
// humanos y, en validaciones, el detalle por campo.
type ErrorBody struct {
	Code    string            `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

const encodeFailure = `{"error":{"code":"internal_error","message":"internal server error"}}`

// JSON serializa resp antes de escribir headers, así un fallo de encodeo
// todavía puede contestar 500.
func JSON(w http.ResponseWriter, status int, resp Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailure))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func newMeta(r *http.Request) *Meta {
	return &Meta{
		RequestID: RequestIDFrom(r),
		TimeUTC:   time.Now().UTC().Format(time.RFC3339),
	}
}

// OK devuelve data con meta.
func OK(w http.ResponseWriter, r *http.Request, status int, data any) {
	JSON(w, status, Response{Data: data, Meta: newMeta(r)})
}

// Fail devuelve un error estructurado.
func Fail(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	FailWithDetails(w, r, status, code, message, nil)
}

// FailWithDetails es Fail con detalle por campo (validaciones).
func FailWithDetails(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]string) {
	JSON(w, status, Response{
		Error: &ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Meta: newMeta(r),
	})
}

// Attachment escribe un archivo descargable (CSV, JSON de export).
func Attachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgValidationFailed   = "ошибка валидации"
)

// ErrEmptyBody тело запроса отсутствует
var ErrEmptyBody = errors.New("request body is empty")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// В ошибках используем имена полей из json тегов
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError ошибка валидации поля
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// DecodeJSON декодирует тело запроса в v
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return ErrEmptyBody
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return err
	}
	return nil
}

// DecodeOptionalJSON как DecodeJSON, но пустое тело не считается ошибкой
func DecodeOptionalJSON(r *http.Request, v interface{}) error {
	if err := DecodeJSON(r, v); err != nil && !errors.Is(err, ErrEmptyBody) {
		return err
	}
	return nil
}

// Validate проверяет теги validate у структуры запроса
func Validate(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate декодирует тело и проверяет его.
// При ошибке сам пишет ответ 400 и возвращает false
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := DecodeJSON(r, v); err != nil {
		RespondBadRequest(w, msgInvalidRequestBody)
		return false
	}
	if err := Validate(v); err != nil {
		RespondValidationError(w, err)
		return false
	}
	return true
}

// RespondValidationError 400 со списком полей, не прошедших валидацию
func RespondValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}

	writeJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Message: msgValidationFailed,
		Errors:  fields,
	})
}

// PathID положительный int64 из переменной пути
func PathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return id, nil
}

// QueryInt целое из query, def если параметр не задан
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// QueryInt64Ptr необязательный int64 из query
func QueryInt64Ptr(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// QueryStringPtr необязательная строка из query
func QueryStringPtr(r *http.Request, name string) *string {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil
	}
	return &raw
}

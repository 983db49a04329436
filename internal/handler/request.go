package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
)

var (
	errInvalidJSON          = errors.New("invalid json body")
	errInvalidForm          = errors.New("invalid form body")
	errUnsupportedMediaType = errors.New("unsupported media type")
)

const maxFormMemory = 32 << 10

// mediaType returns the request's declared media type, or "" when absent.
func mediaType(r *http.Request) (string, error) {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return "", nil
	}
	mt, _, err := mime.ParseMediaType(ct)
	return mt, err
}

// decodeBody fills dst from a JSON body, or calls fromForm with the parsed
// form otherwise. Bodies without a Content-Type are treated as forms.
func decodeBody(r *http.Request, dst any, fromForm func(get func(string) string)) error {
	mt, err := mediaType(r)
	if err != nil {
		return errUnsupportedMediaType
	}

	switch mt {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("%w: %w", errInvalidJSON, err)
		}
		return nil
	case "", "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return fmt.Errorf("%w: %w", errInvalidForm, err)
		}
		fromForm(r.PostForm.Get)
		return nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return fmt.Errorf("%w: %w", errInvalidForm, err)
		}
		fromForm(r.PostForm.Get)
		return nil
	default:
		return errUnsupportedMediaType
	}
}

// writeDecodeError reports a body that could not be read.
func writeDecodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "request body too large")
	case errors.Is(err, errUnsupportedMediaType):
		writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "use application/json or application/x-www-form-urlencoded")
	case errors.Is(err, errInvalidJSON):
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
	default:
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "invalid request body")
	}
}

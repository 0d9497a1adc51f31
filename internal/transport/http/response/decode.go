package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

const maxBodyBytes = 1 << 20

// DecodeJSON decodes exactly one JSON value from the request body into dst.
// Unknown fields and trailing values are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidJSON(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
	}
	return nil
}

package envelope

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/baechuer/real-time-ressys/services/account-harness/internal/domain"
)

// Compare decides whether an observed response matches expected.
//
// An empty body with status 401 or 403 satisfies any expected failure
// envelope: the security layer of the system under test rejects requests
// before a handler can write one. Any other empty body is an
// empty_response error. Non-empty bodies must match field by field.
func Compare(status int, body []byte, expected Envelope) error {
	if len(bytes.TrimSpace(body)) == 0 {
		if isAuthRejection(status) && !expected.Success {
			return nil
		}
		return domain.ErrEmptyResponse(status)
	}

	var observed Envelope
	if err := json.Unmarshal(body, &observed); err != nil {
		return domain.WithMeta(
			domain.Wrap(domain.KindAssertion, "invalid_envelope",
				fmt.Sprintf("response body with status %d is not an envelope", status), err),
			map[string]string{"body": truncate(string(body), 256)},
		)
	}

	want, err := normalize(expected)
	if err != nil {
		return domain.ErrInternal(err)
	}

	if diffs := fieldDiffs(want, observed); len(diffs) > 0 {
		return domain.ErrAssertion(fmt.Sprintf(
			"envelope mismatch (status %d) in %s\n%s",
			status, strings.Join(diffs, ", "), unifiedDiff(want, observed),
		))
	}
	return nil
}

// CompareResponse reads and closes resp.Body, then delegates to Compare.
func CompareResponse(resp *http.Response, expected Envelope) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ErrInternal(fmt.Errorf("read response body: %w", err))
	}
	return Compare(resp.StatusCode, body, expected)
}

func isAuthRejection(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// normalize passes e through the same JSON codec the observed body went
// through, so Data compares by JSON value (7 == 7.0) rather than Go type.
func normalize(e Envelope) (Envelope, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal expected envelope: %w", err)
	}
	var out Envelope
	if err := json.Unmarshal(b, &out); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal expected envelope: %w", err)
	}
	return out, nil
}

func fieldDiffs(want, got Envelope) []string {
	var diffs []string
	if want.Success != got.Success {
		diffs = append(diffs, "success")
	}
	if !reflect.DeepEqual(want.Code, got.Code) {
		diffs = append(diffs, "code")
	}
	if !reflect.DeepEqual(want.RedirectURL, got.RedirectURL) {
		diffs = append(diffs, "redirectUrl")
	}
	if !reflect.DeepEqual(want.Messages, got.Messages) {
		diffs = append(diffs, "messages")
	}
	if !reflect.DeepEqual(want.Data, got.Data) {
		diffs = append(diffs, "data")
	}
	return diffs
}

func unifiedDiff(want, got Envelope) string {
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(pretty(want)),
		B:        difflib.SplitLines(pretty(got)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  2,
	})
	return diff
}

func pretty(e Envelope) string {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Sprintf("%+v", e)
	}
	return string(b) + "\n"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package judopay

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNewAPIErrorKinds(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   Kind
		is     error
	}{
		{status: 400, body: `{"message":"bad"}`, kind: KindBadRequest},
		{status: 400, body: `{"message":"bad","details":[{"fieldName":"amount","message":"required"}]}`, kind: KindValidation, is: ErrValidation},
		{status: 401, body: `{"message":"auth"}`, kind: KindUnauthorized, is: ErrUnauthorized},
		{status: 403, body: `{}`, kind: KindForbidden, is: ErrForbidden},
		{status: 404, body: `{}`, kind: KindNotFound, is: ErrNotFound},
		{status: 409, body: `{}`, kind: KindConflict},
		{status: 418, body: `{}`, kind: KindClient},
		{status: 422, body: `{}`, kind: KindValidation, is: ErrValidation},
		{status: 429, body: `{}`, kind: KindRateLimited, is: ErrRateLimited},
		{status: 500, body: `{}`, kind: KindServer, is: ErrServer},
		{status: 503, body: `<html>down</html>`, kind: KindServer, is: ErrServer},
	}

	for _, tc := range cases {
		apiErr := NewAPIError(&fakeResponse{status: tc.status, body: []byte(tc.body)})
		if apiErr.Kind != tc.kind {
			t.Fatalf("status %d: kind = %s, want %s", tc.status, apiErr.Kind, tc.kind)
		}
		if tc.is != nil && !errors.Is(apiErr, tc.is) {
			t.Fatalf("status %d: expected errors.Is %v", tc.status, tc.is)
		}
		if tc.is == nil && errors.Is(apiErr, ErrServer) {
			t.Fatalf("status %d: unexpected match on ErrServer", tc.status)
		}
	}
}

func TestNewAPIErrorNonJSONBody(t *testing.T) {
	apiErr := NewAPIError(&fakeResponse{status: http.StatusBadGateway, body: []byte("  gateway timeout \n")})
	if apiErr.Message != "gateway timeout" {
		t.Fatalf("message = %q", apiErr.Message)
	}
	if apiErr.Category != CategoryUnknown {
		t.Fatalf("category = %v", apiErr.Category)
	}
	if string(apiErr.Body) != "  gateway timeout \n" {
		t.Fatalf("raw body not kept")
	}
}

func TestNewAPIErrorSnippetKeepsWholeRunes(t *testing.T) {
	body := strings.Repeat("a", maxMessageSnippet-1) + "é tail"
	apiErr := NewAPIError(&fakeResponse{status: http.StatusBadGateway, body: []byte(body)})
	if !utf8.ValidString(apiErr.Message) {
		t.Fatalf("message is not valid UTF-8: %q", apiErr.Message[len(apiErr.Message)-4:])
	}
	if apiErr.Message != strings.Repeat("a", maxMessageSnippet-1) {
		t.Fatalf("expected cut before the split rune, got %d bytes", len(apiErr.Message))
	}
}

func TestAPIErrorMessage(t *testing.T) {
	apiErr := &APIError{
		StatusCode: 422,
		Kind:       KindValidation,
		Message:    "invalid",
		Details:    []ErrorDetail{{FieldName: "cv2", Message: "too short"}},
	}
	msg := apiErr.Error()
	for _, part := range []string{"422", "validation", "invalid", "cv2: too short"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q missing %q", msg, part)
		}
	}
}

func TestCategoryString(t *testing.T) {
	if CategoryProcessing.String() != "processing" || Category(42).String() != "unknown" {
		t.Fatalf("unexpected category names")
	}
}

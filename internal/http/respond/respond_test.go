package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestErrorEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	FieldErrors(rr, "invalid input", map[string]string{"phone": "required"})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body ErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error != "invalid input" || body.Fields["phone"] != "required" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	var dst struct{ A int }
	if err := Decode(req, &dst); err != nil || dst.A != 1 {
		t.Fatalf("decode failed: %v %+v", err, dst)
	}
	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	if err := Decode(bad, &dst); err == nil {
		t.Fatal("expected error for malformed body")
	}
}

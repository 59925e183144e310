package weberr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResponseSurvivesWrapping(t *testing.T) {
	base := errors.New("quantity must be positive")
	err := fmt.Errorf("adding item: %w", InvalidField(base, "quantity"))

	body, status, ok := Response(err)
	if !ok {
		t.Fatal("expected a response to be attached")
	}
	if status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", status)
	}

	exp := &ErrorResponse{Error: "quantity must be positive", Field: "quantity"}
	if diff := cmp.Diff(exp, body); diff != "" {
		t.Fatalf("wrong body (-want +got):\n%s", diff)
	}

	if !errors.Is(err, base) {
		t.Fatal("expected the original error to stay reachable")
	}
}

func TestWithFieldsMerges(t *testing.T) {
	err := Wrap(errors.New("boom"),
		WithFields(map[string]interface{}{"cart": "c1", "item": "i1"}),
		WithFields(map[string]interface{}{"item": "i2"}),
	)

	got, ok := Fields(err)
	if !ok {
		t.Fatal("expected fields")
	}

	exp := map[string]interface{}{"cart": "c1", "item": "i2"}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Fatalf("wrong fields (-want +got):\n%s", diff)
	}
}

package response

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestErrorOmitsData(t *testing.T) {
	b, err := json.Marshal(Error(404, "not found"))
	if err != nil {
		t.Fatal(err)
	}
	s := string(b)
	if strings.Contains(s, `"data"`) || strings.Contains(s, `"details"`) {
		t.Fatalf("unexpected fields in %s", s)
	}
	if !strings.Contains(s, `"status":"error"`) {
		t.Fatalf("missing status in %s", s)
	}
}

func TestErrorWithDetails(t *testing.T) {
	r := ErrorWithDetails(422, "validation failed", []string{"material"})
	if r.StatusCode != 422 || r.Details == nil {
		t.Fatalf("got %+v", r)
	}
}

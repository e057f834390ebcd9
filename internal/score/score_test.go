package score

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestSetLinesFixedPrecision(t *testing.T) {
	var s Set
	s.Add("R2", 0.8567)
	s.Add("RMSE", 1.2)

	lines := s.Lines(2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "R2: 0.86" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if lines[1] != "RMSE: 1.20" {
		t.Errorf("unexpected second line: %q", lines[1])
	}
	if got := s.Text(2); got != "R2: 0.86\nRMSE: 1.20" {
		t.Errorf("unexpected text: %q", got)
	}
}

func TestSetAddReplacesInPlace(t *testing.T) {
	var s Set
	s.Add("a", 1)
	s.Add("b", 2)
	s.Add("a", 3)

	if got := strings.Join(s.Names(), ","); got != "a,b" {
		t.Fatalf("unexpected order: %s", got)
	}
	if v, _ := s.Get("a"); v != 3 {
		t.Fatalf("expected replaced value 3, got %v", v)
	}
}

func TestLineTypesetsName(t *testing.T) {
	sc := Score{Name: "$R^2$", Value: 0.832}
	if got := sc.Line(3); got != "R²: 0.832" {
		t.Fatalf("unexpected line: %q", got)
	}
}

func TestUnmarshalYAMLKeepsOrder(t *testing.T) {
	var doc struct {
		Scores Set `yaml:"scores"`
	}
	content := `
scores:
  RMSE: 0.873
  R2: 0.832
  MAE: 0.5
`
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := strings.Join(doc.Scores.Names(), ","); got != "RMSE,R2,MAE" {
		t.Fatalf("unexpected order: %s", got)
	}
}

func TestUnmarshalJSONKeepsOrder(t *testing.T) {
	var s Set
	if err := json.Unmarshal([]byte(`{"RMSE": 0.22, "R2": 0.9}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := strings.Join(s.Names(), ","); got != "RMSE,R2" {
		t.Fatalf("unexpected order: %s", got)
	}

	var arr Set
	if err := json.Unmarshal([]byte(`[{"name":"b","value":1},{"name":"a","value":2}]`), &arr); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if got := strings.Join(arr.Names(), ","); got != "b,a" {
		t.Fatalf("unexpected array order: %s", got)
	}

	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"RMSE":0.22,"R2":0.9}` {
		t.Fatalf("unexpected marshal output: %s", out)
	}
}

func TestCompute(t *testing.T) {
	actual := []float64{1, 2, 3, 4}
	predicted := []float64{1, 2, 3, 5}

	s, err := Compute(actual, predicted)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if got := strings.Join(s.Names(), ","); got != "R2,RMSE,MAE,Bias" {
		t.Fatalf("unexpected names: %s", got)
	}

	check := func(name string, want float64) {
		t.Helper()
		got, ok := s.Get(name)
		if !ok {
			t.Fatalf("missing %s", name)
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	// ss_tot = 5, ss_res = 1
	check(R2, 0.8)
	check(RMSE, 0.5)
	check(MAE, 0.25)
	check(Bias, 0.25)
}

func TestComputeConstantActual(t *testing.T) {
	s, err := Compute([]float64{2, 2}, []float64{2, 3})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	r2, _ := s.Get(R2)
	if !math.IsNaN(r2) {
		t.Fatalf("expected NaN R2 for constant actual, got %v", r2)
	}
	if got := s.Finite().Names(); len(got) != 3 {
		t.Fatalf("expected NaN score to be dropped, got %v", got)
	}
}

func TestComputeErrors(t *testing.T) {
	if _, err := Compute([]float64{1}, nil); err != ErrLengthMismatch {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if _, err := Compute(nil, nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

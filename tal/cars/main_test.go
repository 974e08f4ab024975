package cars

import (
	_ "embed"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

//go:embed test.json
var testJson []byte

func TestCarsJSON(t *testing.T) {
	var data Data
	err := json.Unmarshal(testJson, &data)
	if err != nil {
		t.Fatalf("unmarshal: %s", err)
	}
	testJson2, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal: %s", err)
	}
	var data2 Data
	err = json.Unmarshal(testJson2, &data2)
	if err != nil {
		t.Fatalf("unmarshal again: %s", err)
	}
	if diff := cmp.Diff(data, data2); diff != "" {
		t.Fatalf("round trip (-first +second):\n%s", diff)
	}
}

func TestFormLength(t *testing.T) {
	var data Data
	err := json.Unmarshal(testJson, &data)
	if err != nil {
		t.Fatalf("unmarshal: %s", err)
	}
	f := data.Forms[uuid.MustParse("2fe1cbb0-b584-45f5-96ec-a9bfd55b1e91")]
	t.Logf("form: %#v", f)
	if got := f.Length(); got != 60 {
		t.Fatalf("Length: got %g, want 60", got)
	}
	id, happy, ok := data.Lookup("Happy Train")
	if !ok {
		t.Fatalf("Happy Train not found")
	}
	if id != uuid.MustParse("a3bcf1c4-1f0e-4a5e-8d5b-0f8f5e1f7d20") {
		t.Fatalf("Lookup id: %s", id)
	}
	if diff := cmp.Diff(Uniform("Happy Train", 5, 10), happy); diff != "" {
		t.Fatalf("Happy Train (-want +got):\n%s", diff)
	}
}

func TestInvalidForms(t *testing.T) {
	for name, raw := range map[string]string{
		"bad-key":     `{"sets": {"nope": {"cars": [{"length": 1}]}}}`,
		"no-cars":     `{"sets": {"2fe1cbb0-b584-45f5-96ec-a9bfd55b1e91": {"cars": []}}}`,
		"zero-length": `{"sets": {"2fe1cbb0-b584-45f5-96ec-a9bfd55b1e91": {"cars": [{"length": 0}]}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			var data Data
			if err := json.Unmarshal([]byte(raw), &data); err == nil {
				t.Fatalf("accepted %s", raw)
			}
		})
	}
}

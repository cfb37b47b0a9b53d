package toon

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var equateEmpty = cmpopts.EquateEmpty()

func TestRoundTrip(t *testing.T) {
	// Auto-discover test cases from testdata directory
	files, err := filepath.Glob(filepath.Join("testdata", "*.json"))
	if err != nil {
		t.Fatalf("Failed to find test files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("No test files found in testdata")
	}

	for _, jsonFile := range files {
		testCase := strings.TrimSuffix(filepath.Base(jsonFile), ".json")

		t.Run(testCase, func(t *testing.T) {
			jsonData, err := os.ReadFile(jsonFile)
			if err != nil {
				t.Fatalf("Failed to read JSON file %s: %v", jsonFile, err)
			}
			toonPath := filepath.Join("testdata", testCase+".toon")
			expectedToon, err := os.ReadFile(toonPath)
			if err != nil {
				t.Fatalf("Failed to read TOON file %s: %v", toonPath, err)
			}
			expectedToonStr := strings.TrimRight(string(expectedToon), "\n")

			jsonValue, err := ParseJSON(jsonData)
			if err != nil {
				t.Fatalf("Failed to parse JSON: %v", err)
			}

			encoded, err := Encode(jsonValue)
			if err != nil {
				t.Fatalf("Failed to encode to TOON: %v", err)
			}
			if diff := cmp.Diff(expectedToonStr, encoded); diff != "" {
				t.Errorf("Encoded TOON (-want +got):\n%s", diff)
			}

			decoded, err := Decode(expectedToonStr)
			if err != nil {
				t.Fatalf("Failed to decode TOON: %v", err)
			}
			if diff := cmp.Diff(jsonValue, decoded, equateEmpty); diff != "" {
				t.Errorf("Decoded value (-want +got):\n%s", diff)
			}

			reencoded, err := Encode(decoded)
			if err != nil {
				t.Fatalf("Failed to re-encode: %v", err)
			}
			if reencoded != encoded {
				t.Errorf("Re-encoding mismatch:\nFirst: %s\nSecond: %s", encoded, reencoded)
			}
		})
	}
}

func TestEncodeBasicTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"null", nil, "null"},
		{"true", true, "true"},
		{"false", false, "false"},
		{"integer", 42, "42"},
		{"integral float", 30.0, "30"},
		{"negative zero", math.Copysign(0, -1), "0"},
		{"float", 3.14, "3.14"},
		{"large float", 1e21, "1000000000000000000000"},
		{"small float", 0.000001, "0.000001"},
		{"NaN", math.NaN(), "null"},
		{"infinity", math.Inf(1), "null"},
		{"string", "hello", "hello"},
		{"string with space", "hello world", "hello world"},
		{"numeric string", "42", `"42"`},
		{"empty object", map[string]any{}, ""},
		{"empty array", []any{}, "[0]:"},
		{"inline array", []int{1, 2, 3}, "[3]: 1,2,3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Encode(tt.input)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestDecodeBasicTypes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"null", "null", nil},
		{"true", "true", true},
		{"false", "false", false},
		{"integer", "42", int64(42)},
		{"exponent", "1e3", int64(1000)},
		{"negative zero", "-0", int64(0)},
		{"float", "3.14", 3.14},
		{"leading zeros", "05", "05"},
		{"string", "hello", "hello"},
		{"quoted string", `"hello world"`, "hello world"},
		{"quoted keyword", `"true"`, "true"},
		{"unicode escape", `"caf\u00e9 \ud83d\ude00"`, "café 😀"},
		{"empty object", "", &Object{}},
		{"blank lines", "\n\n  \n", &Object{}},
		{"empty array", "[0]:", []any{}},
		{"root inline array", "[2]: a,1", []any{"a", int64(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if diff := cmp.Diff(tt.expected, result, equateEmpty); diff != "" {
				t.Errorf("Decode(%q) (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestStringQuoting(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", `""`},
		{"hello", "hello"},
		{"hello world", "hello world"},
		{"true", `"true"`},
		{"false", `"false"`},
		{"null", `"null"`},
		{"42", `"42"`},
		{"3.14", `"3.14"`},
		{"1E5", `"1E5"`},
		{"007", `"007"`},
		{"-5", `"-5"`},
		{"- item", `"- item"`},
		{" padded", `" padded"`},
		{"with:colon", `"with:colon"`},
		{"a,b", `"a,b"`},
		{"a|b", "a|b"},
		{"[x]", `"[x]"`},
		{`with"quote`, `"with\"quote"`},
		{`with\backslash`, `"with\\backslash"`},
		{"with\nnewline", `"with\nnewline"`},
		{"bell\x07", `"bell\u0007"`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var b strings.Builder
			writeString(&b, tt.input, DelimiterComma)
			if got := b.String(); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}

			// Every encoded form must decode back to the original string.
			decoded, err := parseScalar(b.String(), 1, 1)
			if err != nil {
				t.Fatalf("parseScalar(%q) failed: %v", b.String(), err)
			}
			if decoded != tt.input {
				t.Errorf("Unquoted %q, want %q", decoded, tt.input)
			}
		})
	}
}

func TestObjectScenario(t *testing.T) {
	input, err := ParseJSON([]byte(`{"name":"John","age":30}`))
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := Encode(input)
	if err != nil {
		t.Fatal(err)
	}
	if want := "name: John\nage: 30"; encoded != want {
		t.Errorf("Encode = %q, want %q", encoded, want)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	obj, ok := decoded.(*Object)
	if !ok {
		t.Fatalf("Decode returned %T, want *Object", decoded)
	}
	if diff := cmp.Diff([]string{"name", "age"}, obj.Keys()); diff != "" {
		t.Errorf("Key order (-want +got):\n%s", diff)
	}
}

func TestTabularScenario(t *testing.T) {
	input, err := ParseJSON([]byte(`{"items":[{"id":1,"ok":true},{"id":2,"ok":false}]}`))
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := Encode(input)
	if err != nil {
		t.Fatal(err)
	}
	want := "items[2]{id,ok}:\n  1,true\n  2,false"
	if encoded != want {
		t.Errorf("Encode = %q, want %q", encoded, want)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(input, decoded); diff != "" {
		t.Errorf("Decode (-want +got):\n%s", diff)
	}
}

func TestTabularEligibility(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected string
	}{
		{
			name:     "uniform",
			json:     `[{"a":1,"b":2},{"a":3,"b":4}]`,
			expected: "[2]{a,b}:\n  1,2\n  3,4",
		},
		{
			name:     "key order differs",
			json:     `[{"a":1,"b":2},{"b":4,"a":3}]`,
			expected: "[2]:\n  - a: 1\n    b: 2\n  - b: 4\n    a: 3",
		},
		{
			name:     "missing key",
			json:     `[{"a":1,"b":2},{"a":3}]`,
			expected: "[2]:\n  - a: 1\n    b: 2\n  - a: 3",
		},
		{
			name:     "nested value",
			json:     `[{"a":[1]},{"a":[2]}]`,
			expected: "[2]:\n  - a[1]: 1\n  - a[1]: 2",
		},
		{
			name:     "empty objects",
			json:     `[{},{}]`,
			expected: "[2]:\n  -\n  -",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := ParseJSON([]byte(tt.json))
			if err != nil {
				t.Fatal(err)
			}
			encoded, err := Encode(input)
			if err != nil {
				t.Fatal(err)
			}
			if encoded != tt.expected {
				t.Errorf("Encode = %q, want %q", encoded, tt.expected)
			}
			decoded, err := Decode(encoded)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(input, decoded, equateEmpty); diff != "" {
				t.Errorf("Round trip (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeStructOrder(t *testing.T) {
	type server struct {
		Host  string `json:"host"`
		Port  int    `json:"port"`
		Debug bool   `json:"debug,omitempty"`
	}
	type config struct {
		Name    string   `json:"name"`
		Servers []server `json:"servers"`
	}

	encoded, err := Encode(config{
		Name:    "prod",
		Servers: []server{{Host: "a", Port: 80}, {Host: "b", Port: 443}},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "name: prod\nservers[2]{host,port}:\n  a,80\n  b,443"
	if encoded != want {
		t.Errorf("Encode = %q, want %q", encoded, want)
	}
}

func TestConcurrentUse(t *testing.T) {
	input, err := ParseJSON([]byte(`{"users":[{"id":1,"name":"A"},{"id":2,"name":"B"}],"tags":["x","y"]}`))
	if err != nil {
		t.Fatal(err)
	}
	want, err := Encode(input)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			encoded, err := Encode(input)
			if err != nil || encoded != want {
				errs <- "encode mismatch"
				return
			}
			decoded, err := Decode(encoded)
			if err != nil || !cmp.Equal(input, decoded) {
				errs <- "decode mismatch"
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

package toon

import (
	"testing"
)

var benchmarkJSON = []byte(`{
	"users": [
		{"id": 1, "name": "Alice", "email": "alice@example.com", "tags": ["admin", "active"]},
		{"id": 2, "name": "Bob", "email": "bob@example.com", "tags": ["user", "inactive"]}
	],
	"config": {"debug": true, "timeout": 30, "servers": ["server1", "server2", "server3"]},
	"metrics": [
		{"cpu": 45.2, "memory": 78.1},
		{"cpu": 52.8, "memory": 82.3},
		{"cpu": 38.9, "memory": 71.5}
	]
}`)

func BenchmarkEncode(b *testing.B) {
	data, err := ParseJSON(benchmarkJSON)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Encode(data)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	data, err := ParseJSON(benchmarkJSON)
	if err != nil {
		b.Fatal(err)
	}
	toonData, err := Encode(data)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Decode(toonData)
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkParseJSON(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := ParseJSON(benchmarkJSON); err != nil {
			b.Fatal(err)
		}
	}
}

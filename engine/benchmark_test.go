package engine

import (
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/gofhir/fhir/r4"

	"github.com/gofhir/normalizer/pkg/codemap"
	"github.com/gofhir/normalizer/worker"
)

// Sample inputs for benchmarking
var (
	benchDates = []string{
		"1953",
		"1974-12",
		"2016-03-11",
		"2016-03-11T04:56:02Z",
		"2016-03-11T04:56:02.500-05:00",
	}

	benchStagings = []string{
		"T1 N0 M0",
		"cT3 cN1 cM0",
		"pT2a pN0 pM0",
		"Tis N0 M0",
	}

	benchBundle = []byte(`{
		"resourceType": "Bundle",
		"type": "collection",
		"entry": [
			{
				"resource": {
					"resourceType": "Patient",
					"id": "patient-1",
					"birthDate": "1953"
				}
			},
			{
				"resource": {
					"resourceType": "Condition",
					"id": "condition-1",
					"code": {"coding": [{"system": "http://snomed.info/sct", "code": "254837009"}]},
					"onsetDateTime": "2016-03-11"
				}
			},
			{
				"resource": {
					"resourceType": "Observation",
					"id": "obs-t",
					"code": {"coding": [{"system": "http://cancerstaging.org", "code": "cT0"}]},
					"valueCodeableConcept": {"coding": [{"system": "http://cancerstaging.org", "code": "cT3"}]}
				}
			},
			{
				"resource": {
					"resourceType": "Observation",
					"id": "obs-n",
					"code": {"coding": [{"system": "http://cancerstaging.org", "code": "cN0"}]},
					"valueCodeableConcept": {"coding": [{"system": "http://cancerstaging.org", "code": "cN1"}]}
				}
			}
		]
	}`)
)

func benchNormalizer(b *testing.B) *Normalizer {
	b.Helper()
	n, err := New(testMappings())
	if err != nil {
		b.Fatalf("New: %v", err)
	}
	return n
}

func BenchmarkParseDate(b *testing.B) {
	n := benchNormalizer(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := n.ParseDate(benchDates[i%len(benchDates)]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStageFromText(b *testing.B) {
	n := benchNormalizer(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n.StageFromText(benchStagings[i%len(benchStagings)])
	}
}

func BenchmarkProfilesForCodings(b *testing.B) {
	n := benchNormalizer(b)
	codings := []r4.Coding{
		{System: strPtr("http://snomed.info/sct"), Code: strPtr("254837009")},
		{System: strPtr("http://loinc.org"), Code: strPtr("21908-9")},
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := n.ProfilesForCodings(codings); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkScanBundle(b *testing.B) {
	n := benchNormalizer(b)
	input := string(benchBundle)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := n.ScanBundle(strings.NewReader(input)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkScanBundleParallel(b *testing.B) {
	n := benchNormalizer(b)
	input := string(benchBundle)
	b.SetParallelism(runtime.NumCPU())
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := n.ScanBundle(strings.NewReader(input)); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkScanBatch(b *testing.B) {
	n := benchNormalizer(b)

	jobs := make([]worker.Job, 32)
	for i := range jobs {
		jobs[i] = worker.Job{ID: fmt.Sprintf("bundle-%d", i), Bundle: benchBundle}
	}

	for _, workers := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers-%d", workers), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				batch := worker.ScanBatch(n, jobs, workers)
				if batch.HasErrors() {
					b.Fatal("batch errors")
				}
			}
		})
	}
}

func BenchmarkNewMapper(b *testing.B) {
	mappings := codemap.ProfileMappings{}
	for i := 0; i < 50; i++ {
		mappings[fmt.Sprintf("profile-%d", i)] = map[string][]string{
			"http://snomed.info/sct": {fmt.Sprintf("%d", 100000+i)},
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := codemap.NewMapper(mappings); err != nil {
			b.Fatal(err)
		}
	}
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// GoldenData summarises the primes up to Limit.
type GoldenData struct {
	Limit   int   `json:"limit"`
	Count   int   `json:"count"`
	Largest int   `json:"largest"`
	Sum     int64 `json:"sum"`
}

func main() {
	outputDir := flag.String("out", "internal/primes/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	filename := filepath.Join(*outputDir, "primes_golden.json")
	file, err := os.Create(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	// Edge bounds, a prime bound (7919 is the 1000th prime), powers of ten
	// and a power of two.
	targets := []int{0, 1, 2, 3, 10, 100, 1000, 7919, 10000, 65536, 100000, 1000000}

	fmt.Println("Generating golden data...")
	data := make([]GoldenData, 0, len(targets))
	for _, limit := range targets {
		data = append(data, summarise(limit))
		fmt.Printf("Generated π(%d)\n", limit)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully generated golden file at %s\n", filename)
}

// summarise walks 2..limit with trial division. It is deliberately
// independent of the sieve it checks.
func summarise(limit int) GoldenData {
	g := GoldenData{Limit: limit}
	for n := 2; n <= limit; n++ {
		if isPrime(n) {
			g.Count++
			g.Largest = n
			g.Sum += int64(n)
		}
	}
	return g
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

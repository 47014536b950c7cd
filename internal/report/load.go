package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/banshee-data/lidar.diag/internal/matrix"
)

// Document is a parsed diagnostic report.
type Document struct {
	Timestamp   string              `json:"timestamp"`
	TestResults []matrix.TestResult `json:"test_results"`
	Summary     Summary             `json:"summary"`
}

// Load reads and parses a finished report document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &doc, nil
}

package converters

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/feichai0017/document-condenser/internal/models"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatBytes renders n with base-1024 units and two decimals, e.g.
// "1.50 KB". Zero renders as "0 Bytes".
func FormatBytes(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	const k = 1024.0
	i := int(math.Floor(math.Log(float64(n)) / math.Log(k)))
	// Log rounding can land one unit short at exact powers of 1024.
	if i+1 < len(sizeUnits) && float64(n) >= math.Pow(k, float64(i+1)) {
		i++
	}
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	if i == 0 {
		return fmt.Sprintf("%d Bytes", n)
	}
	return fmt.Sprintf("%.2f %s", float64(n)/math.Pow(k, float64(i)), sizeUnits[i])
}

// ReductionPercent returns (original-processed)/original*100 rounded to one
// decimal. original must be positive.
func ReductionPercent(original, processed int) float64 {
	if original <= 0 {
		return 0
	}
	v := float64(original-processed) / float64(original) * 100
	return math.Round(v*10) / 10
}

// ReductionLabel formats ReductionPercent with exactly one decimal: "60.0".
func ReductionLabel(original, processed int) string {
	return strconv.FormatFloat(ReductionPercent(original, processed), 'f', 1, 64)
}

// PresentationConverter turns results into what the presentation sink shows.
type PresentationConverter interface {
	Convert(result models.CompressionResult) models.Presentation
}

// JSONConverter builds presentations and renders them as JSON.
type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Convert(result models.CompressionResult) models.Presentation {
	return models.Presentation{
		OriginalSize:  FormatBytes(int64(result.OriginalLength)),
		ProcessedSize: FormatBytes(int64(result.ProcessedLength)),
		Reduction:     strconv.FormatFloat(result.ReductionPercent, 'f', 1, 64) + "%",
		Download:      result.Artifact,
	}
}

// Marshal renders the presentation of result.
func (c *JSONConverter) Marshal(result models.CompressionResult) ([]byte, error) {
	data, err := json.Marshal(c.Convert(result))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal presentation: %w", err)
	}
	return data, nil
}

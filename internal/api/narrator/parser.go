package narrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/FACorreiaa/go-nearby-guide/internal/types"
)

func cleanJSONResponse(response string) string {
	response = strings.TrimSpace(response)

	// Remove markdown code block markers
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}

	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}

	response = strings.TrimSpace(response)

	// Extract JSON from response that might contain explanatory text
	// Look for the first { and last } to extract the JSON object
	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response // No JSON found, return as is
	}

	lastBrace := strings.LastIndex(response, "}")
	if lastBrace == -1 || lastBrace <= firstBrace {
		return response // No valid JSON structure found
	}

	return strings.TrimSpace(response[firstBrace : lastBrace+1])
}

func parseFilteredPlaces(jsonStr string) ([]types.PlaceCandidate, error) {
	var filtered struct {
		Places []types.PlaceCandidate `json:"places"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(jsonStr)), &filtered); err != nil {
		return nil, fmt.Errorf("failed to parse filtered places JSON: %w", err)
	}
	return filtered.Places, nil
}

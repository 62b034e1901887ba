// ABOUTME: MCP tool definitions and handlers
// ABOUTME: Records and reads animal positions and passes raw queries and deletes through

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harper/location/internal/models"
	"github.com/harper/location/internal/tsdb"
)

func (s *Server) registerTools() {
	s.registerRecordPositionTool()
	s.registerPositionsLastHourTool()
	s.registerQueryTool()
	s.registerDeleteRangeTool()
}

// toolError prefixes err with its kind so agents can tell a missing
// connection from bad arguments or a failing store.
func toolError(op string, err error) error {
	return fmt.Errorf("%s (%s): %w", op, tsdb.Kind(err), err)
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonBytes, _ := json.MarshalIndent(v, "", "  ") //nolint:errchkjson // output is always serializable
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(jsonBytes)}},
	}
}

// RecordPositionInput defines input for record_position tool.
type RecordPositionInput struct {
	AnimalID  string  `json:"animal_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// PositionOutput defines output for position tools.
type PositionOutput struct {
	AnimalID  string    `json:"animal_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
	Timestamp time.Time `json:"timestamp"`
}

func toPositionOutput(p models.AnimalPosition) PositionOutput {
	return PositionOutput{
		AnimalID:  p.AnimalID,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Altitude:  p.Altitude,
		Timestamp: p.Timestamp,
	}
}

func (s *Server) registerRecordPositionTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "record_position",
		Description: "Record the current location of an animal. The sample is timestamped by the server.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"animal_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the animal (e.g., 'animal1')",
				},
				"latitude": map[string]interface{}{
					"type":        "number",
					"description": "Latitude coordinate (-90 to 90)",
				},
				"longitude": map[string]interface{}{
					"type":        "number",
					"description": "Longitude coordinate (-180 to 180)",
				},
				"altitude": map[string]interface{}{
					"type":        "number",
					"description": "Altitude in meters",
				},
			},
			"required": []string{"animal_id", "latitude", "longitude", "altitude"},
		},
	}, s.handleRecordPosition)
}

func (s *Server) handleRecordPosition(ctx context.Context, _ *mcp.CallToolRequest, input RecordPositionInput) (*mcp.CallToolResult, PositionOutput, error) {
	if err := models.ValidateAnimalID(input.AnimalID); err != nil {
		return nil, PositionOutput{}, err
	}
	if err := models.ValidateCoordinates(input.Latitude, input.Longitude, input.Altitude); err != nil {
		return nil, PositionOutput{}, err
	}

	pos, err := s.repo.RecordPosition(ctx, input.AnimalID, input.Latitude, input.Longitude, input.Altitude)
	if err != nil {
		return nil, PositionOutput{}, toolError("record position", err)
	}

	output := toPositionOutput(*pos)
	return jsonResult(output), output, nil
}

// PositionsLastHourInput defines input for positions_last_hour tool.
type PositionsLastHourInput struct {
	AnimalID string `json:"animal_id"`
}

// TrackOutput defines output for positions_last_hour tool.
type TrackOutput struct {
	AnimalID  string           `json:"animal_id"`
	Positions []PositionOutput `json:"positions"`
	Count     int              `json:"count"`
}

func (s *Server) registerPositionsLastHourTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "positions_last_hour",
		Description: "Get every location recorded for an animal in the last hour, oldest first.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"animal_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the animal",
				},
			},
			"required": []string{"animal_id"},
		},
	}, s.handlePositionsLastHour)
}

func (s *Server) handlePositionsLastHour(ctx context.Context, _ *mcp.CallToolRequest, input PositionsLastHourInput) (*mcp.CallToolResult, TrackOutput, error) {
	if err := models.ValidateAnimalID(input.AnimalID); err != nil {
		return nil, TrackOutput{}, err
	}

	positions, err := s.repo.PositionsLastHour(ctx, input.AnimalID)
	if err != nil {
		return nil, TrackOutput{}, toolError("positions last hour", err)
	}

	outputs := make([]PositionOutput, len(positions))
	for i, p := range positions {
		outputs[i] = toPositionOutput(p)
	}

	output := TrackOutput{
		AnimalID:  input.AnimalID,
		Positions: outputs,
		Count:     len(outputs),
	}
	return jsonResult(output), output, nil
}

// QueryInput defines input for query tool.
type QueryInput struct {
	Org   string `json:"org"`
	Query string `json:"query"`
}

// SampleOutput is one flattened query record.
type SampleOutput struct {
	Time  *time.Time `json:"time,omitempty"`
	Type  string     `json:"type"`
	Value any        `json:"value"`
}

// QueryOutput defines output for query tool.
type QueryOutput struct {
	Samples []SampleOutput `json:"samples"`
	Count   int            `json:"count"`
}

func (s *Server) registerQueryTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query",
		Description: "Run a raw Flux query and return every record's time and value. Unscoped admin access; only supported by the influxdb backend.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"org": map[string]interface{}{
					"type":        "string",
					"description": "Organization to run the query in",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Flux query text, run verbatim",
				},
			},
			"required": []string{"org", "query"},
		},
	}, s.handleQuery)
}

func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	samples, err := s.repo.Store().ExecuteQuery(ctx, input.Org, input.Query)
	if err != nil {
		return nil, QueryOutput{}, toolError("query", err)
	}

	outputs := make([]SampleOutput, len(samples))
	for i, sm := range samples {
		outputs[i] = SampleOutput{
			Time:  sm.Time,
			Type:  string(sm.Value.Type()),
			Value: sm.Value.Interface(),
		}
	}

	output := QueryOutput{Samples: outputs, Count: len(outputs)}
	return jsonResult(output), output, nil
}

// DeleteRangeInput defines input for delete_range tool.
type DeleteRangeInput struct {
	Bucket    string `json:"bucket"`
	Org       string `json:"org"`
	Predicate string `json:"predicate"`
}

// DeleteRangeOutput defines output for delete_range tool.
type DeleteRangeOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) registerDeleteRangeTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_range",
		Description: "Delete every point in a bucket matching a predicate, across all time. This cannot be undone.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"bucket": map[string]interface{}{
					"type":        "string",
					"description": "Bucket to delete from",
				},
				"org": map[string]interface{}{
					"type":        "string",
					"description": "Organization owning the bucket",
				},
				"predicate": map[string]interface{}{
					"type":        "string",
					"description": "Delete predicate, e.g. _measurement=\"Animal_position\" AND Animal=\"animal1\"",
				},
			},
			"required": []string{"bucket", "org", "predicate"},
		},
	}, s.handleDeleteRange)
}

func (s *Server) handleDeleteRange(ctx context.Context, _ *mcp.CallToolRequest, input DeleteRangeInput) (*mcp.CallToolResult, DeleteRangeOutput, error) {
	if err := s.repo.Store().DeleteRange(ctx, input.Bucket, input.Org, input.Predicate); err != nil {
		return nil, DeleteRangeOutput{}, toolError("delete range", err)
	}

	s.logger.Info("deleted range", "bucket", input.Bucket, "org", input.Org, "predicate", input.Predicate)
	output := DeleteRangeOutput{
		Success: true,
		Message: fmt.Sprintf("Deleted points matching %s from %s", input.Predicate, input.Bucket),
	}
	return jsonResult(output), output, nil
}

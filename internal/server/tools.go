package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by plant_scan",
	}
}

// pipelineProperties are the option overrides shared by the pipeline tools.
func pipelineProperties() map[string]interface{} {
	return map[string]interface{}{
		"session_id": sessionIDProperty(),
		"method": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"balanced", "first-valley", "manual"},
			"description": "Threshold selection method",
		},
		"value": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"maximum":     255,
			"description": "Threshold value for the manual method",
		},
		"reference": map[string]interface{}{
			"type":        "string",
			"description": "Element tag of the channel the mask is derived from (default: first channel)",
		},
		"min_area_fraction": map[string]interface{}{
			"type":        "number",
			"description": "Regions with polygon area at or below this fraction of the image are dropped (default: 0.01)",
		},
		"row_tolerance": map[string]interface{}{
			"type":        "integer",
			"description": "Height in pixels of the reading-order row bands (default: 50)",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Discovery
		{
			Name:        "plant_scan",
			Description: "Group element channel files (\"<plant> - <element>.<ext>\") by plant and open a session for each plant. Files that do not follow the naming convention are reported as rejected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Directory to scan, or a single channel file",
					},
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Additional directories or files",
					},
				},
			},
		},
		{
			Name:        "plant_source_info",
			Description: "Load one channel file and report its format, size, header and count statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the channel file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Pipeline
		{
			Name:        "plant_threshold",
			Description: "Compute the threshold of the session's reference channel. Option overrides persist in the session.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pipelineProperties(),
				"required":   []string{"session_id"},
			},
		},
		{
			Name:        "plant_mask",
			Description: "Threshold and segment the reference channel into ordered regions. Returns region geometry and, optionally, mask, debug and overlay images as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"include_images": map[string]interface{}{
						"type":        "boolean",
						"description": "Return mask, debug and overlay images (default: false)",
					},
				}),
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "plant_quantify",
			Description: "Sum every element channel inside each region of the last mask (segmenting first if needed). Returns the region x element table and per-element summaries, and writes exports when output_dir is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(pipelineProperties(), map[string]interface{}{
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for exported files; nothing is written when omitted",
					},
					"csv": map[string]interface{}{
						"type":        "boolean",
						"description": "Write the quantity table as CSV",
					},
					"sqlite": map[string]interface{}{
						"type":        "string",
						"description": "SQLite database path to store regions and quantities in",
					},
					"images": map[string]interface{}{
						"type":        "boolean",
						"description": "Write mask, debug and overlay PNGs",
					},
					"histogram_plot": map[string]interface{}{
						"type":        "boolean",
						"description": "Write the reference histogram plot",
					},
				}),
				"required": []string{"session_id"},
			},
		},

		// Inspection
		{
			Name:        "plant_region_preview",
			Description: "Crop one region's bounding box from a channel and return it as a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"region": map[string]interface{}{
						"type":        "integer",
						"description": "Region index in reading order",
					},
					"element": map[string]interface{}{
						"type":        "string",
						"description": "Element channel to crop (default: the reference)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for output (default: 1.0)",
					},
					"masked": map[string]interface{}{
						"type":        "boolean",
						"description": "Clear pixels outside the region (default: false)",
					},
				},
				"required": []string{"session_id", "region"},
			},
		},
		{
			Name:        "plant_histogram_plot",
			Description: "Plot the reference channel's intensity histogram with the threshold marked, as a base64 PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pipelineProperties(),
				"required":   []string{"session_id"},
			},
		},
		{
			Name:        "plant_session_close",
			Description: "Discard a plant session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
				},
				"required": []string{"session_id"},
			},
		},
	}
}

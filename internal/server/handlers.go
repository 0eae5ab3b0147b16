package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/plantquant/internal/detection"
	"github.com/ironsheep/plantquant/internal/export"
	"github.com/ironsheep/plantquant/internal/imaging"
	"github.com/ironsheep/plantquant/internal/plant"
	"github.com/ironsheep/plantquant/internal/quant"
	"github.com/ironsheep/plantquant/internal/threshold"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plant_scan", "plant_mask").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Discovery
	case "plant_scan":
		return s.handlePlantScan(args)
	case "plant_source_info":
		return s.handleSourceInfo(args)

	// Pipeline
	case "plant_threshold":
		return s.handleThreshold(args)
	case "plant_mask":
		return s.handleMask(args)
	case "plant_quantify":
		return s.handleQuantify(args)

	// Inspection
	case "plant_region_preview":
		return s.handleRegionPreview(args)
	case "plant_histogram_plot":
		return s.handleHistogramPlot(args)

	case "plant_session_close":
		return s.handleSessionClose(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Discovery Handlers ===

type plantScanArgs struct {
	Path  string   `json:"path"`
	Paths []string `json:"paths"`
}

type plantEntry struct {
	Plant     string       `json:"plant"`
	SessionID string       `json:"session_id"`
	Elements  []string     `json:"elements"`
	Files     []plant.File `json:"files"`
}

type plantScanResult struct {
	Plants   []plantEntry      `json:"plants"`
	Rejected []plant.Rejection `json:"rejected,omitempty"`
}

func (s *Server) handlePlantScan(args json.RawMessage) (interface{}, error) {
	var a plantScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	paths := a.Paths
	if a.Path != "" {
		paths = append([]string{a.Path}, paths...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("path or paths is required")
	}

	cat, err := plant.Collect(paths)
	if err != nil {
		return nil, err
	}
	opts, err := s.cfg.SessionOptions()
	if err != nil {
		return nil, err
	}

	res := plantScanResult{Plants: []plantEntry{}, Rejected: cat.Rejected}
	for _, g := range cat.Groups {
		cache := imaging.NewSourceCache()
		id := s.sessions.add(plant.NewSession(g, cache, opts), cache)
		res.Plants = append(res.Plants, plantEntry{
			Plant:     g.Plant,
			SessionID: id,
			Elements:  g.Elements(),
			Files:     g.Files,
		})
	}
	return res, nil
}

type sourceInfoArgs struct {
	Path string `json:"path"`
}

type sourceInfoResult struct {
	Path   string              `json:"path"`
	Format string              `json:"format"`
	Width  int                 `json:"width"`
	Height int                 `json:"height"`
	HasRaw bool                `json:"has_raw"`
	Header *imaging.GridHeader `json:"header,omitempty"`
	Stats  *imaging.RawStats   `json:"stats,omitempty"`
}

func (s *Server) handleSourceInfo(args json.RawMessage) (interface{}, error) {
	var a sourceInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := imaging.LoadSource(a.Path)
	if err != nil {
		return nil, err
	}
	size := src.Size()
	res := sourceInfoResult{
		Path:   src.Path,
		Format: src.Format.String(),
		Width:  size.X,
		Height: size.Y,
		HasRaw: src.HasRaw(),
		Header: src.Header,
	}
	if src.HasRaw() {
		st := imaging.ComputeRawStats(src.Raw)
		res.Stats = &st
	}
	return res, nil
}

// === Pipeline Handlers ===

// pipelineArgs are per-call overrides of a session's options. Unset fields
// keep the session's current value.
type pipelineArgs struct {
	SessionID       string   `json:"session_id"`
	Method          string   `json:"method"`
	Value           *int     `json:"value"`
	Reference       string   `json:"reference"`
	MinAreaFraction *float64 `json:"min_area_fraction"`
	RowTolerance    *int     `json:"row_tolerance"`
}

// apply updates ps's options from the overrides. Options are only replaced
// when something changed, so the last segmentation survives plain calls.
func (a pipelineArgs) apply(ps *plant.Session) error {
	opts := ps.Options()
	changed := false

	if a.Method != "" {
		m, err := threshold.ParseMethod(a.Method)
		if err != nil {
			return err
		}
		if m != opts.Selection.Method {
			opts.Selection.Method = m
			changed = true
		}
	}
	if a.Value != nil {
		if *a.Value < 0 || *a.Value > 255 {
			return fmt.Errorf("value %d outside 0..255", *a.Value)
		}
		if v := uint8(*a.Value); v != opts.Selection.Value {
			opts.Selection.Value = v
			changed = true
		}
	}
	if a.Reference != "" && a.Reference != opts.Reference {
		if _, err := ps.Group.File(a.Reference); err != nil {
			return err
		}
		opts.Reference = a.Reference
		changed = true
	}
	if a.MinAreaFraction != nil {
		f := *a.MinAreaFraction
		if f <= 0 || f >= 1 {
			return fmt.Errorf("min_area_fraction %v outside (0, 1)", f)
		}
		if f != opts.Segment.MinAreaFraction {
			opts.Segment.MinAreaFraction = f
			changed = true
		}
	}
	if a.RowTolerance != nil {
		if *a.RowTolerance <= 0 {
			return fmt.Errorf("row_tolerance must be positive, got %d", *a.RowTolerance)
		}
		if *a.RowTolerance != opts.RowTolerance {
			opts.RowTolerance = *a.RowTolerance
			changed = true
		}
	}

	if changed {
		ps.SetOptions(opts)
	}
	return nil
}

type thresholdResult struct {
	Plant     string `json:"plant"`
	Reference string `json:"reference"`
	Method    string `json:"method"`
	Value     uint8  `json:"value"`
	Pixels    int    `json:"pixels"`
	Populated int    `json:"populated_bins"`
	MinLevel  int    `json:"min_level"`
	MaxLevel  int    `json:"max_level"`
}

func (s *Server) handleThreshold(args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var res thresholdResult
	err := s.sessions.with(a.SessionID, func(ps *plant.Session) error {
		if err := a.apply(ps); err != nil {
			return err
		}
		ref, _, t, err := ps.Threshold()
		if err != nil {
			return err
		}
		first, last, _ := t.Histogram.Span()
		res = thresholdResult{
			Plant:     ps.Group.Plant,
			Reference: ref.Element,
			Method:    t.Method.String(),
			Value:     t.Value,
			Pixels:    t.Histogram.Total(),
			Populated: t.Histogram.Populated(),
			MinLevel:  first,
			MaxLevel:  last,
		}
		return nil
	})
	return res, err
}

type maskArgs struct {
	pipelineArgs
	IncludeImages bool `json:"include_images"`
}

type maskImages struct {
	Mask    *imaging.PreviewResult `json:"mask"`
	Debug   *imaging.PreviewResult `json:"debug"`
	Overlay *imaging.PreviewResult `json:"overlay"`
}

type maskResult struct {
	Plant       string             `json:"plant"`
	Reference   string             `json:"reference"`
	Method      string             `json:"method"`
	Threshold   uint8              `json:"threshold"`
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	RegionCount int                `json:"region_count"`
	Regions     []plant.RegionInfo `json:"regions"`
	MaskArea    int                `json:"mask_area"`
	Images      *maskImages        `json:"images,omitempty"`
}

func (s *Server) handleMask(args json.RawMessage) (interface{}, error) {
	var a maskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var res maskResult
	err := s.sessions.with(a.SessionID, func(ps *plant.Session) error {
		if err := a.apply(ps); err != nil {
			return err
		}
		seg, err := ps.Segment()
		if err != nil {
			return err
		}
		res = maskResult{
			Plant:       seg.Plant,
			Reference:   seg.Reference.Element,
			Method:      seg.Threshold.Method.String(),
			Threshold:   seg.Threshold.Value,
			Width:       seg.Size.X,
			Height:      seg.Size.Y,
			RegionCount: len(seg.Regions),
			Regions:     seg.RegionInfo(),
			MaskArea:    seg.MaskArea(),
		}
		if a.IncludeImages {
			imgs, err := s.maskImages(ps, seg)
			if err != nil {
				return err
			}
			res.Images = imgs
		}
		return nil
	})
	return res, err
}

func (s *Server) maskImages(ps *plant.Session, seg *plant.Segmentation) (*maskImages, error) {
	src, err := ps.Load(seg.Reference.Path)
	if err != nil {
		return nil, err
	}
	var imgs maskImages
	if imgs.Mask, err = imaging.EncodePreview(seg.Mask()); err != nil {
		return nil, err
	}
	if imgs.Debug, err = imaging.EncodePreview(seg.Debug()); err != nil {
		return nil, err
	}
	if imgs.Overlay, err = imaging.EncodePreview(detection.RenderOverlay(src.Intensity, seg.Regions)); err != nil {
		return nil, err
	}
	return &imgs, nil
}

type quantifyArgs struct {
	pipelineArgs
	OutputDir     string `json:"output_dir"`
	CSV           *bool  `json:"csv"`
	SQLite        string `json:"sqlite"`
	Images        *bool  `json:"images"`
	HistogramPlot *bool  `json:"histogram_plot"`
}

// exportOptions merges the call's output flags over the configured ones.
func (a quantifyArgs) exportOptions(def export.Options) export.Options {
	opts := def
	if a.CSV != nil {
		opts.CSV = *a.CSV
	}
	if a.SQLite != "" {
		opts.SQLite = a.SQLite
	}
	if a.Images != nil {
		opts.Images = *a.Images
	}
	if a.HistogramPlot != nil {
		opts.HistogramPlot = *a.HistogramPlot
	}
	return opts
}

type quantifyResult struct {
	Plant    string                 `json:"plant"`
	Elements []string               `json:"elements"`
	Regions  []string               `json:"regions"`
	Rows     [][]uint64             `json:"rows"`
	Entries  []quant.Entry          `json:"entries"`
	Summary  []quant.ElementSummary `json:"summary"`
	Outputs  *export.Outputs        `json:"outputs,omitempty"`
}

func (s *Server) handleQuantify(args json.RawMessage) (interface{}, error) {
	var a quantifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	ctx := context.Background()
	var res quantifyResult
	err := s.sessions.with(a.SessionID, func(ps *plant.Session) error {
		if err := a.apply(ps); err != nil {
			return err
		}
		q, err := ps.Quantify(ctx)
		if err != nil {
			return err
		}

		rows := make([][]uint64, q.Table.Regions())
		for i := range rows {
			rows[i] = q.Table.Row(i)
		}
		res = quantifyResult{
			Plant:    q.Plant,
			Elements: q.Table.Elements,
			Regions:  q.Table.RowLabels(),
			Rows:     rows,
			Entries:  q.Table.Entries(),
			Summary:  q.Summary,
		}

		// Files are only written when the caller names a directory.
		if a.OutputDir == "" {
			return nil
		}
		src, err := ps.Load(q.Reference.Path)
		if err != nil {
			return err
		}
		out, err := export.WriteResult(ctx, a.OutputDir, q, src.Intensity, a.exportOptions(s.cfg.ExportOptions()))
		if err != nil {
			return err
		}
		res.Outputs = &out
		return nil
	})
	return res, err
}

// === Inspection Handlers ===

type regionPreviewArgs struct {
	SessionID string  `json:"session_id"`
	Region    int     `json:"region"`
	Element   string  `json:"element"`
	Scale     float64 `json:"scale"`
	Masked    bool    `json:"masked"`
}

type regionPreviewResult struct {
	Plant   string `json:"plant"`
	Region  int    `json:"region"`
	Element string `json:"element"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	*imaging.PreviewResult
}

func (s *Server) handleRegionPreview(args json.RawMessage) (interface{}, error) {
	var a regionPreviewArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	var res regionPreviewResult
	err := s.sessions.with(a.SessionID, func(ps *plant.Session) error {
		seg := ps.Last()
		if seg == nil {
			var err error
			if seg, err = ps.Segment(); err != nil {
				return err
			}
		}
		if a.Region < 0 || a.Region >= len(seg.Regions) {
			return fmt.Errorf("region %d out of range (0..%d)", a.Region, len(seg.Regions)-1)
		}

		file := seg.Reference
		if a.Element != "" {
			var err error
			if file, err = ps.Group.File(a.Element); err != nil {
				return err
			}
		}
		src, err := ps.Load(file.Path)
		if err != nil {
			return err
		}
		if src.Size() != seg.Size {
			return fmt.Errorf("%w: %s is %v, mask is %v", quant.ErrShapeMismatch, file.Element, src.Size(), seg.Size)
		}

		r := seg.Regions[a.Region]
		var img image.Image = src.Intensity
		if a.Masked {
			img = maskedIntensity(src.Intensity, detection.RegionMask(seg.Size, r))
		}
		p, err := imaging.CropPreview(img, r.Bounds, a.Scale)
		if err != nil {
			return err
		}
		res = regionPreviewResult{
			Plant:         seg.Plant,
			Region:        a.Region,
			Element:       file.Element,
			X:             r.Bounds.Min.X,
			Y:             r.Bounds.Min.Y,
			PreviewResult: p,
		}
		return nil
	})
	return res, err
}

// maskedIntensity returns a copy of g with pixels outside mask cleared.
func maskedIntensity(g, mask *image.Gray) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, m := range mask.Pix {
		if m != 0 {
			out.Pix[i] = g.Pix[i]
		}
	}
	return out
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

type histogramPlotResult struct {
	Plant       string `json:"plant"`
	Reference   string `json:"reference"`
	Method      string `json:"method"`
	Value       uint8  `json:"value"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleHistogramPlot(args json.RawMessage) (interface{}, error) {
	var a pipelineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var res histogramPlotResult
	err := s.sessions.with(a.SessionID, func(ps *plant.Session) error {
		if err := a.apply(ps); err != nil {
			return err
		}
		ref, _, t, err := ps.Threshold()
		if err != nil {
			return err
		}
		data, err := export.HistogramPNG(t.Histogram, t.Value, fmt.Sprintf("%s %s", ps.Group.Plant, ref.Element))
		if err != nil {
			return err
		}
		res = histogramPlotResult{
			Plant:       ps.Group.Plant,
			Reference:   ref.Element,
			Method:      t.Method.String(),
			Value:       t.Value,
			ImageBase64: base64.StdEncoding.EncodeToString(data),
			MimeType:    "image/png",
		}
		return nil
	})
	return res, err
}

func (s *Server) handleSessionClose(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if !s.sessions.remove(a.SessionID) {
		return nil, fmt.Errorf("unknown session: %q", a.SessionID)
	}
	return map[string]interface{}{
		"session_id": a.SessionID,
		"closed":     true,
	}, nil
}

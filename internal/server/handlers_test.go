package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeGrid writes a headerless w x h numeric grid holding bg everywhere
// except the square of side size at (bx, by), which holds v.
func writeGrid(t *testing.T, dir, name string, w, h int, bg uint64, bx, by, size int, v uint64) string {
	t.Helper()
	var b strings.Builder
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			val := bg
			if x >= bx && x < bx+size && y >= by && y < by+size {
				val = v
			}
			if x > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "%d", val)
		}
		b.WriteByte('\n')
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// createPlantDir writes one 30x30 plant with a 10x10 block of K at (10, 10)
// and uniform Ca, plus a file that does not follow the naming convention.
func createPlantDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeGrid(t, dir, "Leaf 1 - K.csv", 30, 30, 0, 10, 10, 10, 40)
	writeGrid(t, dir, "Leaf 1 - Ca.csv", 30, 30, 2, 0, 0, 0, 0)
	writeGrid(t, dir, "notes.csv", 30, 30, 0, 0, 0, 0, 0)
	return dir
}

// callTool invokes a tool through handleRequest and decodes its text result
// into out.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}, out interface{}) *MCPError {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, _ := json.Marshal(params)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleRequest returned nil")
	}
	if resp.Error != nil {
		return resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	if len(content) != 1 || content[0]["type"] != "text" {
		t.Fatalf("unexpected content: %v", content)
	}
	if out != nil {
		if err := json.Unmarshal([]byte(content[0]["text"].(string)), out); err != nil {
			t.Fatalf("failed to decode result: %v", err)
		}
	}
	return nil
}

// openSession scans a plant directory and returns the session of its only
// plant.
func openSession(t *testing.T, s *Server) (string, string) {
	t.Helper()
	dir := createPlantDir(t)

	var scan plantScanResult
	if err := callTool(t, s, "plant_scan", map[string]interface{}{"path": dir}, &scan); err != nil {
		t.Fatalf("plant_scan failed: %+v", err)
	}
	if len(scan.Plants) != 1 {
		t.Fatalf("got %d plants, want 1", len(scan.Plants))
	}
	return scan.Plants[0].SessionID, dir
}

func TestPlantScan(t *testing.T) {
	s := newTestServer()
	dir := createPlantDir(t)

	var scan plantScanResult
	if err := callTool(t, s, "plant_scan", map[string]interface{}{"path": dir}, &scan); err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}

	if len(scan.Plants) != 1 {
		t.Fatalf("got %d plants, want 1", len(scan.Plants))
	}
	p := scan.Plants[0]
	if p.Plant != "Leaf 1" {
		t.Errorf("plant: got %q", p.Plant)
	}
	if len(p.Elements) != 2 || p.Elements[0] != "Ca" || p.Elements[1] != "K" {
		t.Errorf("elements: got %v", p.Elements)
	}
	if p.SessionID == "" {
		t.Error("expected a session ID")
	}
	if len(scan.Rejected) != 1 || filepath.Base(scan.Rejected[0].Path) != "notes.csv" {
		t.Errorf("rejected: got %+v", scan.Rejected)
	}
}

func TestPlantScan_MissingPath(t *testing.T) {
	s := newTestServer()
	err := callTool(t, s, "plant_scan", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("expected error without a path")
	}
	if err.Code != -32000 {
		t.Errorf("Error code: got %d, want -32000", err.Code)
	}
}

func TestSourceInfo(t *testing.T) {
	s := newTestServer()
	path := writeGrid(t, t.TempDir(), "P - K.csv", 8, 6, 1, 0, 0, 2, 9)

	var info sourceInfoResult
	if err := callTool(t, s, "plant_source_info", map[string]interface{}{"path": path}, &info); err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	if info.Width != 8 || info.Height != 6 || !info.HasRaw {
		t.Errorf("info: got %+v", info)
	}
	if info.Stats == nil || info.Stats.Max != 9 || info.Stats.Total != 44+36 {
		t.Errorf("stats: got %+v", info.Stats)
	}
}

func TestSourceInfo_NonExistentFile(t *testing.T) {
	s := newTestServer()
	err := callTool(t, s, "plant_source_info", map[string]interface{}{"path": "/nonexistent/P - K.csv"}, nil)
	if err == nil {
		t.Fatal("expected error for non-existent file")
	}
}

func TestThreshold(t *testing.T) {
	s := newTestServer()
	id, _ := openSession(t, s)

	var res thresholdResult
	err := callTool(t, s, "plant_threshold", map[string]interface{}{
		"session_id": id,
		"reference":  "K",
		"method":     "manual",
		"value":      100,
	}, &res)
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	if res.Reference != "K" || res.Method != "manual" || res.Value != 100 {
		t.Errorf("threshold: got %+v", res)
	}
	if res.Pixels != 900 || res.Populated != 2 || res.MinLevel != 0 || res.MaxLevel != 255 {
		t.Errorf("histogram: got %+v", res)
	}
}

func TestThreshold_BadArguments(t *testing.T) {
	s := newTestServer()
	id, _ := openSession(t, s)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"unknown session", map[string]interface{}{"session_id": "nope"}},
		{"bad method", map[string]interface{}{"session_id": id, "method": "otsu"}},
		{"value range", map[string]interface{}{"session_id": id, "method": "manual", "value": 256}},
		{"unknown reference", map[string]interface{}{"session_id": id, "reference": "Zn"}},
		{"row tolerance", map[string]interface{}{"session_id": id, "row_tolerance": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := callTool(t, s, "plant_threshold", tt.args, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMask(t *testing.T) {
	s := newTestServer()
	id, _ := openSession(t, s)

	var res maskResult
	err := callTool(t, s, "plant_mask", map[string]interface{}{
		"session_id":     id,
		"reference":      "K",
		"method":         "manual",
		"value":          128,
		"include_images": true,
	}, &res)
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}

	if res.RegionCount != 1 || len(res.Regions) != 1 {
		t.Fatalf("regions: got %+v", res.Regions)
	}
	r := res.Regions[0]
	if r.X != 10 || r.Y != 10 || r.Width != 10 || r.Height != 10 || r.PixelArea != 100 {
		t.Errorf("region: got %+v", r)
	}
	if res.MaskArea != 100 {
		t.Errorf("mask area: got %d, want 100", res.MaskArea)
	}
	if res.Images == nil || res.Images.Mask.ImageBase64 == "" || res.Images.Overlay.Width != 30 {
		t.Errorf("images: got %+v", res.Images)
	}
}

func TestQuantify_WithExports(t *testing.T) {
	s := newTestServer()
	id, _ := openSession(t, s)
	out := t.TempDir()

	var res quantifyResult
	err := callTool(t, s, "plant_quantify", map[string]interface{}{
		"session_id": id,
		"reference":  "K",
		"method":     "manual",
		"value":      128,
		"output_dir": out,
		"sqlite":     filepath.Join(out, "quant.db"),
		"images":     true,
	}, &res)
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}

	if len(res.Rows) != 1 || len(res.Elements) != 2 {
		t.Fatalf("table: got %+v", res)
	}
	// Elements are sorted: Ca holds 2 and K holds 40 in each of 100 pixels.
	if res.Elements[0] != "Ca" || res.Rows[0][0] != 200 || res.Rows[0][1] != 4000 {
		t.Errorf("rows: got %v %v", res.Elements, res.Rows)
	}
	if len(res.Summary) != 2 {
		t.Errorf("summary: got %+v", res.Summary)
	}

	if res.Outputs == nil {
		t.Fatal("expected outputs")
	}
	for _, p := range []string{res.Outputs.CSV, res.Outputs.SQLite, res.Outputs.Images.Mask} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %q: %v", p, err)
		}
	}
	if res.Outputs.Histogram != "" {
		t.Error("histogram plot was not requested")
	}
}

func TestQuantify_NoOutputDir(t *testing.T) {
	s := newTestServer()
	id, _ := openSession(t, s)

	var res quantifyResult
	err := callTool(t, s, "plant_quantify", map[string]interface{}{
		"session_id": id,
		"reference":  "K",
		"method":     "manual",
		"value":      128,
	}, &res)
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	if res.Outputs != nil {
		t.Errorf("nothing should be written without output_dir: %+v", res.Outputs)
	}
}

func TestRegionPreview(t *testing.T) {
	s := newTestServer()
	id, _ := openSession(t, s)

	if err := callTool(t, s, "plant_mask", map[string]interface{}{
		"session_id": id, "reference": "K", "method": "manual", "value": 128,
	}, nil); err != nil {
		t.Fatalf("plant_mask failed: %+v", err)
	}

	var res regionPreviewResult
	err := callTool(t, s, "plant_region_preview", map[string]interface{}{
		"session_id": id,
		"region":     0,
		"element":    "Ca",
		"scale":      2.0,
		"masked":     true,
	}, &res)
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	if res.Element != "Ca" || res.X != 10 || res.Y != 10 {
		t.Errorf("preview: got %+v", res)
	}
	if res.PreviewResult == nil || res.Width != 20 || res.Height != 20 || res.MimeType != "image/png" {
		t.Errorf("image: got %+v", res.PreviewResult)
	}

	if err := callTool(t, s, "plant_region_preview", map[string]interface{}{
		"session_id": id,
		"region":     5,
	}, nil); err == nil {
		t.Error("expected error for out-of-range region")
	}
}

func TestHistogramPlot(t *testing.T) {
	s := newTestServer()
	id, _ := openSession(t, s)

	var res histogramPlotResult
	err := callTool(t, s, "plant_histogram_plot", map[string]interface{}{
		"session_id": id,
		"reference":  "K",
		"method":     "manual",
		"value":      60,
	}, &res)
	if err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	if res.Value != 60 || res.ImageBase64 == "" || res.MimeType != "image/png" {
		t.Errorf("plot: got value %d, mime %q", res.Value, res.MimeType)
	}
}

// quantifyCa runs plant_quantify on a K-masked session and returns the Ca
// total of its single region.
func quantifyCa(t *testing.T, s *Server, id string) uint64 {
	t.Helper()
	var res quantifyResult
	err := callTool(t, s, "plant_quantify", map[string]interface{}{
		"session_id": id,
		"reference":  "K",
		"method":     "manual",
		"value":      128,
	}, &res)
	if err != nil {
		t.Fatalf("plant_quantify failed: %+v", err)
	}
	if len(res.Rows) != 1 || res.Elements[0] != "Ca" {
		t.Fatalf("table: got %v %v", res.Elements, res.Rows)
	}
	return res.Rows[0][0]
}

func TestQuantify_RescanAfterRewrite(t *testing.T) {
	s := newTestServer()
	id, dir := openSession(t, s)

	if got := quantifyCa(t, s, id); got != 200 {
		t.Fatalf("Ca before rewrite: got %v, want 200", got)
	}
	if err := callTool(t, s, "plant_session_close", map[string]interface{}{"session_id": id}, nil); err != nil {
		t.Fatalf("plant_session_close failed: %+v", err)
	}

	writeGrid(t, dir, "Leaf 1 - Ca.csv", 30, 30, 20, 0, 0, 0, 0)

	var scan plantScanResult
	if err := callTool(t, s, "plant_scan", map[string]interface{}{"path": dir}, &scan); err != nil {
		t.Fatalf("plant_scan failed: %+v", err)
	}
	if len(scan.Plants) != 1 {
		t.Fatalf("got %d plants, want 1", len(scan.Plants))
	}
	if got := quantifyCa(t, s, scan.Plants[0].SessionID); got != 2000 {
		t.Errorf("Ca after rewrite: got %v, want 2000", got)
	}

	var info sourceInfoResult
	path := filepath.Join(dir, "Leaf 1 - Ca.csv")
	if err := callTool(t, s, "plant_source_info", map[string]interface{}{"path": path}, &info); err != nil {
		t.Fatalf("plant_source_info failed: %+v", err)
	}
	if info.Stats == nil || info.Stats.Max != 20 {
		t.Errorf("source info stats: got %+v", info.Stats)
	}
}

// Sessions opened by separate scans never share decoded channels.
func TestPlantScan_SeparateCaches(t *testing.T) {
	s := newTestServer()
	first, _ := openSession(t, s)
	second, _ := openSession(t, s)

	a, b := s.sessions.entries[first], s.sessions.entries[second]
	if a.cache == b.cache {
		t.Fatal("sessions share a source cache")
	}
	quantifyCa(t, s, first)
	if a.cache.Len() == 0 {
		t.Error("quantify did not populate the session cache")
	}
	if b.cache.Len() != 0 {
		t.Errorf("untouched session cache holds %d sources", b.cache.Len())
	}
}

func TestSessionClose(t *testing.T) {
	s := newTestServer()
	id, _ := openSession(t, s)
	quantifyCa(t, s, id)
	cache := s.sessions.entries[id].cache

	if err := callTool(t, s, "plant_session_close", map[string]interface{}{"session_id": id}, nil); err != nil {
		t.Fatalf("Unexpected error: %+v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("closed session still caches %d sources", cache.Len())
	}
	if err := callTool(t, s, "plant_session_close", map[string]interface{}{"session_id": id}, nil); err == nil {
		t.Error("closing twice should fail")
	}
	if err := callTool(t, s, "plant_threshold", map[string]interface{}{"session_id": id}, nil); err == nil {
		t.Error("closed session should be unknown")
	}
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer()
	err := callTool(t, s, "plant_unknown", map[string]interface{}{}, nil)
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if err.Code != -32000 || !strings.Contains(fmt.Sprint(err.Data), "unknown tool") {
		t.Errorf("error: got %+v", err)
	}
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer()
	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Errorf("expected -32602, got %+v", resp.Error)
	}
}

package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/voxpilot/voxpilot/internal/config"
	"github.com/voxpilot/voxpilot/internal/llmclient"
	"github.com/voxpilot/voxpilot/internal/platform"
)

const analyzeSystemPrompt = `You analyze desktop screenshots for an automation
agent. Reply with JSON only:
{"description": "<one sentence>",
 "elements": [{"label": "<visible text or purpose>", "box": [x, y, w, h]}]}
List every clickable element you can see. Box coordinates are pixels in the
provided image.`

// Element is an interactive element located by the vision model. Bounds are
// in screen coordinates (already scaled back from the uploaded image).
type Element struct {
	Label  string `json:"label"`
	Bounds [4]int `json:"box"`
}

// Center returns the element's center point in screen coordinates.
func (e *Element) Center() (x, y int) {
	return e.Bounds[0] + e.Bounds[2]/2, e.Bounds[1] + e.Bounds[3]/2
}

// Analysis is the perception result for one screenshot.
type Analysis struct {
	Description string
	Elements    []Element
}

// Reasoner is the slice of the model client the analyzer needs.
type Reasoner interface {
	Generate(ctx context.Context, req llmclient.Request) (string, error)
}

// Analyzer implements the slow path: capture a screenshot, downscale it, and
// ask the vision model to locate interactive elements.
type Analyzer struct {
	model   Reasoner
	shotter platform.Screenshotter
	cfg     config.VisionConfig
	log     *zap.Logger
}

// New creates an Analyzer.
func New(model Reasoner, shotter platform.Screenshotter, cfg config.VisionConfig, log *zap.Logger) *Analyzer {
	return &Analyzer{
		model:   model,
		shotter: shotter,
		cfg:     cfg,
		log:     log.Named("vision"),
	}
}

// Analyze captures the scoped screen and returns the model's description and
// element list, with bounds converted back to screen coordinates.
func (a *Analyzer) Analyze(ctx context.Context, scope platform.Scope) (Analysis, error) {
	if a.shotter == nil {
		return Analysis{}, fmt.Errorf("no screenshotter available on this platform")
	}

	raw, err := a.shotter.Capture(ctx, scope)
	if err != nil {
		return Analysis{}, fmt.Errorf("screenshot capture failed: %w", err)
	}

	upload, scale, err := downscalePNG(raw, a.cfg.MaxEdge)
	if err != nil {
		return Analysis{}, fmt.Errorf("screenshot downscale failed: %w", err)
	}

	reply, err := a.model.Generate(ctx, llmclient.Request{
		System:       analyzeSystemPrompt,
		Prompt:       "Locate the interactive elements in this screenshot.",
		ImagePNG:     upload,
		JSONResponse: true,
	})
	if err != nil {
		return Analysis{}, fmt.Errorf("vision model call failed: %w", err)
	}

	analysis, err := parseReply(reply)
	if err != nil {
		return Analysis{}, err
	}

	// The model saw the downscaled image; map its boxes back to the screen.
	if scale != 1.0 {
		for i := range analysis.Elements {
			for j, v := range analysis.Elements[i].Bounds {
				analysis.Elements[i].Bounds[j] = int(float64(v) / scale)
			}
		}
	}

	a.log.Debug("screenshot analyzed",
		zap.Int("elements", len(analysis.Elements)),
		zap.Float64("scale", scale))
	return analysis, nil
}

type replyPayload struct {
	Description string `json:"description"`
	Elements    []struct {
		Label string `json:"label"`
		Box   [4]int `json:"box"`
	} `json:"elements"`
}

func parseReply(reply string) (Analysis, error) {
	reply = strings.TrimSpace(reply)
	if fenced := strings.TrimPrefix(reply, "```json"); fenced != reply {
		reply = strings.TrimSuffix(strings.TrimSpace(fenced), "```")
	} else if fenced := strings.TrimPrefix(reply, "```"); fenced != reply {
		reply = strings.TrimSuffix(strings.TrimSpace(fenced), "```")
	}

	var payload replyPayload
	if err := json.Unmarshal([]byte(reply), &payload); err != nil {
		return Analysis{}, fmt.Errorf("unparseable vision reply: %w", err)
	}

	analysis := Analysis{Description: payload.Description}
	for _, e := range payload.Elements {
		if e.Label == "" || e.Box[2] <= 0 || e.Box[3] <= 0 {
			continue
		}
		analysis.Elements = append(analysis.Elements, Element{Label: e.Label, Bounds: e.Box})
	}
	return analysis, nil
}

// downscalePNG shrinks the image so its longest edge is at most maxEdge and
// returns the re-encoded PNG plus the applied scale factor (<= 1.0). Images
// already small enough pass through untouched with scale 1.0.
func downscalePNG(data []byte, maxEdge int) ([]byte, float64, error) {
	if maxEdge <= 0 {
		return data, 1.0, nil
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("decode png: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxEdge {
		return data, 1.0, nil
	}

	scale := float64(maxEdge) / float64(longest)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, 0, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), scale, nil
}

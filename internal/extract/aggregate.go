package extract

import (
	"image"

	"github.com/ironsheep/form-tools-mcp/internal/imaging"
	"github.com/ironsheep/form-tools-mcp/internal/template"
)

// Result is the outcome for one field. It is never modified after the
// engine creates it.
type Result struct {
	FieldID        string             `json:"field_id"`
	Text           string             `json:"text"`
	Confidence     float64            `json:"confidence"`
	OriginalBBox   template.BBox      `json:"original_bbox"`
	ResolvedBBoxPx Box                `json:"resolved_bbox_px"`
	FieldType      template.FieldType `json:"field_type"`
	Accepted       bool               `json:"accepted"`
	Reason         Reason             `json:"reason_if_rejected,omitempty"`
	Detail         string             `json:"detail,omitempty"`

	// Cells holds the grid cells, in source-image pixels, when grid
	// segmentation ran on a box_grid field.
	Cells []Box `json:"cells,omitempty"`
}

// Extraction is the output of one run. Accepted fields are in Fields and
// rejected ones in Rejected; a field id appears in at most one of them.
// Fields that were not processed (another page) appear in neither.
type Extraction struct {
	RunID       string `json:"run_id"`
	FormName    string `json:"form_name"`
	ImagePath   string `json:"image_path,omitempty"`
	ImageWidth  int    `json:"image_width"`
	ImageHeight int    `json:"image_height"`

	Fields   map[string]Result `json:"fields"`
	Rejected map[string]Result `json:"rejected"`

	// Order lists processed field ids in template order.
	Order []string `json:"order"`

	// MissingRequired lists processed fields marked required that were not
	// accepted.
	MissingRequired []string `json:"missing_required"`
}

// Result returns the outcome for id, accepted or not.
func (e *Extraction) Result(id string) (Result, bool) {
	if r, ok := e.Fields[id]; ok {
		return r, true
	}
	r, ok := e.Rejected[id]
	return r, ok
}

// Aggregate assembles per-field results in the order of fields. Results for
// ids not in fields are ignored, as are later duplicates of an id.
func Aggregate(fields []template.Field, results []Result) *Extraction {
	byID := make(map[string]Result, len(results))
	for _, r := range results {
		if _, dup := byID[r.FieldID]; !dup {
			byID[r.FieldID] = r
		}
	}

	ext := &Extraction{
		Fields:          make(map[string]Result),
		Rejected:        make(map[string]Result),
		Order:           []string{},
		MissingRequired: []string{},
	}
	for _, f := range fields {
		r, ok := byID[f.ID]
		if !ok {
			continue
		}
		if _, seen := ext.Result(f.ID); seen {
			continue
		}

		ext.Order = append(ext.Order, f.ID)
		if r.Accepted {
			ext.Fields[f.ID] = r
		} else {
			ext.Rejected[f.ID] = r
			if f.Validate.Required {
				ext.MissingRequired = append(ext.MissingRequired, f.ID)
			}
		}
	}
	return ext
}

// OverlayBoxes returns one box per processed field with a usable resolved
// rectangle, in template order.
func OverlayBoxes(ext *Extraction) []imaging.OverlayBox {
	boxes := make([]imaging.OverlayBox, 0, len(ext.Order))
	for _, id := range ext.Order {
		r, _ := ext.Result(id)
		rect := r.ResolvedBBoxPx.Rect()
		if rect.Empty() {
			continue
		}
		boxes = append(boxes, imaging.OverlayBox{Label: id, Rect: rect, Accepted: r.Accepted})
		for _, c := range r.Cells {
			boxes = append(boxes, imaging.OverlayBox{Rect: c.Rect(), Accepted: r.Accepted})
		}
	}
	return boxes
}

func boxesFromRects(rects []image.Rectangle, offset image.Point) []Box {
	out := make([]Box, len(rects))
	for i, r := range rects {
		out[i] = BoxFromRect(r.Add(offset))
	}
	return out
}

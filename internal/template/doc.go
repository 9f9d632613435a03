// Package template models form templates: the declarative list of fields,
// their bounding boxes and recognition settings that drive extraction.
//
// A template is a JSON or YAML document:
//
//	{
//	  "form_name": "business_front",
//	  "version": "1.0",
//	  "metadata": {"dpi": 300, "language": "nep", "image_path": "business_front.jpg"},
//	  "fields": [
//	    {
//	      "id": "f001",
//	      "name": "registration_no",
//	      "label": "Registration No.",
//	      "type": "box_grid",
//	      "page": 1,
//	      "bbox": {"px": [120, 340, 410, 42], "mm": [10.16, 28.79, 34.71, 3.56]},
//	      "ocr": {"lang": "eng", "psm": 7},
//	      "conf_required": 0.8,
//	      "validate": {"required": true, "type": "digits", "min_len": 6}
//	    }
//	  ]
//	}
//
// # Bounding Boxes
//
// A box may be given in pixels ("px"), millimetres ("mm") or both, each as
// [x, y, w, h] with the origin at the top-left corner. When both are present
// the pixel box is authoritative. A millimetre-only box needs metadata.dpi to
// be converted, so Load rejects such a template when the DPI is missing.
//
// # Validation
//
// Templates are validated eagerly by Load and Parse. Every structural problem
// is reported as an error matching ErrParse; nothing is deferred to
// extraction time.
//
// # Bootstrap
//
// Bootstrap turns whole-page OCR detections into a draft template, one
// text_line field per detected line. The result is a starting point that a
// person is expected to edit, not a guaranteed-correct template.
package template

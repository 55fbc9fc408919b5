package hocr

import (
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/piscan/model"
)

// ParseFile parses an hOCR file from disk.
func ParseFile(filename string) (*Document, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads an hOCR document. Pages, lines and words keep their source
// order. Geometry is not validated here; see Normalize.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing hOCR: %w", err)
	}

	doc := &Document{}
	ctx := &parseContext{}
	doc.traverseNode(root, ctx)
	doc.flushPage(ctx)

	if len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}
	return doc, nil
}

// parseContext tracks the current parsing state.
type parseContext struct {
	page    *RawPage
	line    *RawLine
	region  int
	regions int
}

// traverseNode recursively processes DOM nodes.
func (d *Document) traverseNode(n *html.Node, ctx *parseContext) {
	if n.Type == html.ElementNode {
		classes := classList(n)
		switch {
		case hasClass(classes, "ocr_page"):
			d.flushPage(ctx)
			ctx.page = newRawPage(n)
			ctx.region = -1
			ctx.regions = 0
			d.traverseChildren(n, ctx)
			d.flushPage(ctx)
			return

		case ctx.page != nil && isRegionClass(classes):
			prev := ctx.region
			ctx.region = ctx.regions
			ctx.regions++
			d.traverseChildren(n, ctx)
			ctx.region = prev
			return

		case ctx.page != nil && isLineClass(classes):
			d.flushLine(ctx)
			ctx.line = newRawLine(n, ctx.region)
			d.traverseChildren(n, ctx)
			d.flushLine(ctx)
			return

		case ctx.page != nil && hasClass(classes, "ocrx_word"):
			word := newRawWord(n)
			if word.Text == "" {
				return
			}
			if ctx.line == nil {
				// Word outside any line element: give it a line of its own.
				ctx.page.Lines = append(ctx.page.Lines, RawLine{Region: ctx.region, Words: []RawWord{word}})
				return
			}
			ctx.line.Words = append(ctx.line.Words, word)
			return
		}
	}

	d.traverseChildren(n, ctx)
}

func (d *Document) traverseChildren(n *html.Node, ctx *parseContext) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.traverseNode(c, ctx)
	}
}

func (d *Document) flushLine(ctx *parseContext) {
	if ctx.page == nil || ctx.line == nil {
		return
	}
	if len(ctx.line.Words) > 0 {
		ctx.page.Lines = append(ctx.page.Lines, *ctx.line)
	}
	ctx.line = nil
}

func (d *Document) flushPage(ctx *parseContext) {
	if ctx.page == nil {
		return
	}
	d.flushLine(ctx)
	d.Pages = append(d.Pages, *ctx.page)
	ctx.page = nil
}

func newRawPage(n *html.Node) *RawPage {
	props := parseTitle(getAttr(n, "title"))
	page := &RawPage{
		ID:     getAttr(n, "id"),
		PageNo: -1,
	}
	page.BBox, page.HasBBox = props.bbox()
	if img, ok := props["image"]; ok && len(img) > 0 {
		page.Image = path.Base(strings.ReplaceAll(img[0], "\\", "/"))
	}
	if v, ok := props.ints("ppageno", 1); ok {
		page.PageNo = v[0]
	}
	if v, ok := props.floats("scan_res", 2); ok {
		page.ScanRes = [2]float64{v[0], v[1]}
	}
	return page
}

func newRawLine(n *html.Node, region int) *RawLine {
	props := parseTitle(getAttr(n, "title"))
	line := &RawLine{
		ID:     getAttr(n, "id"),
		Region: region,
	}
	line.BBox, line.HasBBox = props.bbox()
	return line
}

func newRawWord(n *html.Node) RawWord {
	props := parseTitle(getAttr(n, "title"))
	word := RawWord{
		ID:         getAttr(n, "id"),
		Text:       strings.TrimSpace(getTextContent(n)),
		Confidence: -1,
	}
	word.BBox, word.HasBBox = props.bbox()
	if v, ok := props.floats("x_wconf", 1); ok {
		word.Confidence = v[0]
	}
	return word
}

// properties holds the parsed title attribute: property name to its
// whitespace-separated values (quoted values are unquoted).
type properties map[string][]string

// parseTitle parses an hOCR title attribute such as
// `bbox 10 20 30 40; x_wconf 93; image "/scans/0001.jp2"`.
func parseTitle(title string) properties {
	props := make(properties)
	for _, part := range splitProperties(title) {
		fields := splitFields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

// splitProperties splits on semicolons that are not inside double quotes.
func splitProperties(s string) []string {
	var parts []string
	var sb strings.Builder
	inQuote := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			sb.WriteRune(r)
		case r == ';' && !inQuote:
			parts = append(parts, sb.String())
			sb.Reset()
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() > 0 {
		parts = append(parts, sb.String())
	}
	return parts
}

// splitFields splits on whitespace, keeping double-quoted strings whole.
func splitFields(s string) []string {
	var fields []string
	var sb strings.Builder
	inQuote := false
	flush := func() {
		if sb.Len() > 0 {
			fields = append(fields, sb.String())
			sb.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			if inQuote {
				fields = append(fields, sb.String())
				sb.Reset()
			} else {
				flush()
			}
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			sb.WriteRune(r)
		}
	}
	flush()
	return fields
}

func (p properties) floats(key string, n int) ([]float64, bool) {
	vals, ok := p[key]
	if !ok || len(vals) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(vals[i], 64)
		if err != nil {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func (p properties) ints(key string, n int) ([]int, bool) {
	vals, ok := p[key]
	if !ok || len(vals) < n {
		return nil, false
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		v, err := strconv.Atoi(vals[i])
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func (p properties) bbox() (model.BBox, bool) {
	v, ok := p.floats("bbox", 4)
	if !ok {
		return model.BBox{}, false
	}
	return model.NewBBoxFromCorners(v[0], v[1], v[2], v[3]), true
}

var regionClasses = map[string]bool{
	"ocr_carea":     true,
	"ocrx_block":    true,
	"ocr_par":       true,
	"ocr_column":    true,
	"ocr_photo":     true,
	"ocr_separator": true,
	"ocr_table":     true,
}

var lineClasses = map[string]bool{
	"ocr_line":      true,
	"ocrx_line":     true,
	"ocr_header":    true,
	"ocr_caption":   true,
	"ocr_textfloat": true,
}

func isRegionClass(classes []string) bool {
	for _, c := range classes {
		if regionClasses[c] {
			return true
		}
	}
	return false
}

func isLineClass(classes []string) bool {
	for _, c := range classes {
		if lineClasses[c] {
			return true
		}
	}
	return false
}

func classList(n *html.Node) []string {
	return strings.Fields(getAttr(n, "class"))
}

func hasClass(classes []string, name string) bool {
	for _, c := range classes {
		if c == name {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// getTextContent returns the concatenated text of all descendant text nodes.
func getTextContent(n *html.Node) string {
	var sb strings.Builder
	getTextContentRecursive(n, &sb)
	return sb.String()
}

func getTextContentRecursive(n *html.Node, result *strings.Builder) {
	if n.Type == html.TextNode {
		result.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		getTextContentRecursive(c, result)
	}
}

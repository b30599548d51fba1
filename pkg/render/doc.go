// Package render turns DOT text into image files.
//
// # Overview
//
// Graphviz does the layout. [RenderSVG] and [RenderPNG] run the dot engine
// in-process through go-graphviz, so no Graphviz installation is needed for
// those formats. [ToPDF] converts an SVG with the external rsvg-convert tool
// (from librsvg).
//
// # Output Formats
//
// [FormatFromPath] picks the output format from a file extension:
//
//	.svg        FormatSVG
//	.png        FormatPNG
//	.pdf        FormatPDF (SVG, then rsvg-convert)
//	.dot, .gv   FormatDOT (the DOT text itself)
//
// Any other extension is an INVALID_FORMAT error.
//
//	dot, _ := tree.MarshalDOT()
//	err := render.WriteFile(ctx, "tree.pdf", dot)
package render

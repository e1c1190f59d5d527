// Package export serializes a labeled graph into its output formats.
//
// Two serializations are provided, both deterministic: [DotGraph] emits
// Graphviz DOT text, and [FromGraph] builds a [GraphDef] interchange
// message with hierarchical node names and string attribute maps, mirroring
// the store's edges-owned-by-target layout. Re-exporting an unchanged graph
// is byte-identical in either format; nothing time- or order-dependent
// enters the output.
//
// [RenderSVG] and [RenderPNG] rasterize DOT text with Graphviz.
package export

// Package internal contains the implementation packages of sketchdoc.
//
// # Package Organization
//
//   - directive: parsing of drawing directives and their options
//   - engine: the builtin interpreter with PNG and SVG canvases, and the
//     external command engine
//   - renderer: content-addressed image naming, reuse and atomic writes
//   - highlight: chroma listings of drawing scripts
//   - markup: the goldmark extension and the html, text and man writers
//   - build: document discovery, page layout, page cache and reports
//   - watcher: file system monitoring with debouncing
//   - server: static preview server with websocket live reload
//   - config, logging, errors, version: shared infrastructure
//
// A build flows from build through markup to renderer and engine.
package internal

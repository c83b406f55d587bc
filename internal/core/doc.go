// Package core provides the business logic for the serology dashboard.
//
// This package is the heart of the import-and-analysis workflow,
// containing all domain logic independent of any UI or transport layer.
// It can be used by web handlers, CLI tools, or tests without
// modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Dataset: an ordered tabular snapshot of a serology panel, either
//     freshly extracted from a PDF upload or loaded from a stored
//     analysis. [Prepare] normalizes a raw dataset into canonical shape.
//   - Extractor: turns upload bytes into a Dataset, dispatching on a
//     closed set of file formats and delegating PDF table recognition
//     to an injected [TableReader].
//   - Confidence: [Score] rates an extracted dataset in [0, 1] from
//     column presence and LISS value validity, driving whether the
//     comparison view is read-only or editable.
//   - Comparison: [BuildComparison] pairs an imported dataset with a
//     stored one and emits the rendering descriptors for the
//     reconciliation screen.
//   - Analysis: [Analyze] runs the antigen exclusion rules over a
//     prepared dataset, and the report builders summarize the outcome
//     for physicians and lab staff.
//
// # Error Handling
//
// Extraction failures form a closed taxonomy (ErrNoTableFound,
// ErrNotImplemented, ErrUnsupportedFormat); [Service.HandleUpload]
// converts every failure into a fixed user-facing message, logging
// anything unexpected. Technical errors elsewhere are mapped to
// user messages with support codes via [MapError].
package core

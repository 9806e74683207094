package domain

import "errors"

var (
	// ErrExtraction means the PDF could not be opened or parsed.
	ErrExtraction = errors.New("pdf extraction failed")
	// ErrEmptyContent means no chunk survived pre-processing.
	ErrEmptyContent = errors.New("no valid text extracted from the PDF")
	// ErrNoSession means a query arrived before any PDF was uploaded.
	ErrNoSession = errors.New("agent not initialized")
	// ErrQueryExecution means routing, retrieval or synthesis failed for a query.
	ErrQueryExecution = errors.New("query execution failed")
)

package web

import "toolshub/internal/header"

// Page wraps the shared header view and page-specific content.
type Page[T any] struct {
	Header  header.View
	Content T
}

type HomeContent struct {
	Title       string
	Description string
	LoginError  string
}

type PageContent struct {
	Title       string
	Description string
}

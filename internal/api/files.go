package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
)

// FilesService browses and edits the agent's filesystem.
type FilesService struct {
	client *Client
}

// List returns the entries of a directory.
func (s *FilesService) List(ctx context.Context, path string) (*DirListing, error) {
	query := url.Values{"path": {path}}
	var listing DirListing
	if err := s.client.do(ctx, http.MethodGet, "/api/files", query, nil, &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

// Read fetches a text file's content.
func (s *FilesService) Read(ctx context.Context, path string) (*FileContent, error) {
	query := url.Values{"path": {path}}
	var content FileContent
	if err := s.client.do(ctx, http.MethodGet, "/api/files/content", query, nil, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// Write replaces a file's content, creating the file if needed.
func (s *FilesService) Write(ctx context.Context, path, content string) error {
	body := map[string]string{"path": path, "content": content}
	return s.client.do(ctx, http.MethodPost, "/api/files/content", nil, body, nil)
}

// Mkdir creates a directory, including missing parents.
func (s *FilesService) Mkdir(ctx context.Context, path string) error {
	body := map[string]string{"path": path}
	return s.client.do(ctx, http.MethodPost, "/api/files/mkdir", nil, body, nil)
}

// Delete removes a file or directory tree.
func (s *FilesService) Delete(ctx context.Context, path string) error {
	query := url.Values{"path": {path}}
	return s.client.do(ctx, http.MethodDelete, "/api/files", query, nil, nil)
}

// Upload streams r as a multipart form file into the remote directory dir.
// The form field is named "file"; the remote filename is the base of name.
func (s *FilesService) Upload(ctx context.Context, dir, name string, r io.Reader) (*UploadResult, error) {
	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)

	go func() {
		part, err := form.CreateFormFile("file", filepath.Base(name))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(form.Close())
	}()

	query := url.Values{"path": {dir}}

	ctx, cancel := s.client.callContext(ctx, 0)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.client.buildURL("/api/files/upload", query), pr)
	if err != nil {
		return nil, fmt.Errorf("api: failed to build upload request: %w", err)
	}
	s.client.setAuthHeader(req)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.client.roundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := s.client.checkResponse(resp); err != nil {
		return nil, err
	}
	s.client.reportStatus(StatusOnline)

	var result UploadResult
	if err := decodeBody(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Download opens a raw byte stream for a remote file. The caller must close
// the returned reader. No deadline is applied beyond the caller's context
// since large transfers can legitimately outlive any fixed timeout.
func (s *FilesService) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	query := url.Values{"path": {path}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.buildURL("/api/files/download", query), nil)
	if err != nil {
		return nil, fmt.Errorf("api: failed to build download request: %w", err)
	}
	s.client.setAuthHeader(req)

	resp, err := s.client.roundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := s.client.checkResponse(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	s.client.reportStatus(StatusOnline)

	return resp.Body, nil
}

// DownloadURL builds a browser-usable link for a remote file. Links cannot
// carry headers, so the credential rides as a query parameter.
func (s *FilesService) DownloadURL(path string) string {
	query := url.Values{"path": {path}}
	if name, value := s.client.credentialQuery(); name != "" {
		query.Set(name, value)
	}
	return s.client.buildURL("/api/files/download", query)
}

// SearchOpts tunes a filesystem search rooted at Path. When Content is set
// the agent greps file contents instead of matching names.
type SearchOpts struct {
	Path    string
	Query   string
	Content bool
	Limit   int
}

// Search matches filenames, or file contents when opts.Content is set.
func (s *FilesService) Search(ctx context.Context, opts SearchOpts) (*SearchResult, error) {
	query := url.Values{
		"path": {opts.Path},
		"q":    {opts.Query},
	}
	if opts.Content {
		query.Set("content", "true")
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	var result SearchResult
	if err := s.client.do(ctx, http.MethodGet, "/api/files/search", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

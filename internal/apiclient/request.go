package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// Request is one backend call. Body is sent as-is, so a replay is byte-identical.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	// Anonymous requests carry no bearer and never trigger a refresh.
	Anonymous bool
}

// Response is a fully read backend response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into dest; an empty body leaves dest untouched.
func (r *Response) Decode(dest any) error {
	if dest == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

func (r *Response) result() (*Response, error) {
	if r.Status >= 200 && r.Status < 300 {
		return r, nil
	}
	return nil, errorFromBody(r.Status, r.Body)
}

// JSONRequest encodes body (when non-nil) as the request payload.
func JSONRequest(method, path string, body any) (Request, error) {
	req := Request{Method: method, Path: path}
	if body == nil {
		return req, nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Request{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode request body")
	}
	req.Body = payload
	req.ContentType = "application/json"
	return req, nil
}

// File is one part of a multipart upload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Content     []byte
}

// MultipartRequest builds a multipart/form-data request from plain fields and files.
func MultipartRequest(method, path string, fields map[string]string, files []File) (Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for _, key := range sortedKeys(fields) {
		if err := writer.WriteField(key, fields[key]); err != nil {
			return Request{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "write form field")
		}
	}
	for _, file := range files {
		part, err := createFilePart(writer, file)
		if err != nil {
			return Request{}, err
		}
		if _, err := part.Write(file.Content); err != nil {
			return Request{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "write form file")
		}
	}
	if err := writer.Close(); err != nil {
		return Request{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "close multipart body")
	}
	return Request{Method: method, Path: path, Body: buf.Bytes(), ContentType: writer.FormDataContentType()}, nil
}

// DoJSON sends req and decodes a successful response into dest.
func (c *Client) DoJSON(ctx context.Context, req Request, dest any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(dest)
}

func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, dest any) error {
	return c.DoJSON(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, dest)
}

func (c *Client) PostJSON(ctx context.Context, path string, body, dest any) error {
	req, err := JSONRequest(http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.DoJSON(ctx, req, dest)
}

func (c *Client) PutJSON(ctx context.Context, path string, body, dest any) error {
	req, err := JSONRequest(http.MethodPut, path, body)
	if err != nil {
		return err
	}
	return c.DoJSON(ctx, req, dest)
}

func (c *Client) Delete(ctx context.Context, path string, dest any) error {
	return c.DoJSON(ctx, Request{Method: http.MethodDelete, Path: path}, dest)
}

// PutMultipart sends a multipart form, used for profile and game uploads.
func (c *Client) PutMultipart(ctx context.Context, path string, fields map[string]string, files []File, dest any) error {
	req, err := MultipartRequest(http.MethodPut, path, fields, files)
	if err != nil {
		return err
	}
	return c.DoJSON(ctx, req, dest)
}

func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, files []File, dest any) error {
	req, err := MultipartRequest(http.MethodPost, path, fields, files)
	if err != nil {
		return err
	}
	return c.DoJSON(ctx, req, dest)
}

// PathEscape joins a path prefix and an escaped id segment.
func PathEscape(prefix, id string) string {
	return fmt.Sprintf("%s/%s", prefix, url.PathEscape(id))
}

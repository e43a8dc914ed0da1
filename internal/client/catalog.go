package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"autek/internal/domain"
)

// Response is the success envelope of every endpoint
type Response[T any] struct {
	Data     T        `json:"data"`
	Message  string   `json:"message,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// File is an image attached to a form submission
type File struct {
	Name    string
	Content io.Reader
}

// Form is a multipart submission. Only the fields set are sent, so updates
// leave every other field untouched.
type Form struct {
	Fields url.Values
	Image  *File
}

// Set adds a field and returns the form for chaining
func (f *Form) Set(key, value string) *Form {
	if f.Fields == nil {
		f.Fields = url.Values{}
	}
	f.Fields.Set(key, value)
	return f
}

func (f *Form) SetFloat(key string, value float64) *Form {
	return f.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
}

func (f *Form) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, values := range f.Fields {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				return nil, "", fmt.Errorf("failed to write form field %s: %w", key, err)
			}
		}
	}

	if f.Image != nil {
		part, err := writer.CreateFormFile("image", f.Image.Name)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, f.Image.Content); err != nil {
			return nil, "", fmt.Errorf("failed to write form file: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func call[T any](ctx context.Context, c *Client, req Request) (Response[T], error) {
	var resp Response[T]

	body, err := c.Do(ctx, req)
	if err != nil {
		return resp, err
	}

	if err := json.Unmarshal(body, &resp); err != nil {
		return resp, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}

func submit[T any](ctx context.Context, c *Client, method, path string, form Form) (Response[T], error) {
	body, contentType, err := form.encode()
	if err != nil {
		return Response[T]{}, err
	}

	return call[T](ctx, c, Request{
		Method:  method,
		URL:     path,
		Headers: map[string]string{"Content-Type": contentType},
		Body:    body,
	})
}

func byID(id int64) url.Values {
	return url.Values{"id": {strconv.FormatInt(id, 10)}}
}

// Showcase

func (c *Client) Showcases(ctx context.Context) ([]domain.Showcase, error) {
	resp, err := call[[]domain.Showcase](ctx, c, Request{Method: http.MethodGet, URL: "showcase"})
	return resp.Data, err
}

// UpdateShowcase submits the showcase form; the form must carry the id
func (c *Client) UpdateShowcase(ctx context.Context, form Form) (Response[domain.Showcase], error) {
	return submit[domain.Showcase](ctx, c, http.MethodPut, "showcase", form)
}

// Category

func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	resp, err := call[[]domain.Category](ctx, c, Request{Method: http.MethodGet, URL: "category"})
	return resp.Data, err
}

// CategoryProducts lists the products whose category matches title
func (c *Client) CategoryProducts(ctx context.Context, title string) ([]domain.Product, error) {
	resp, err := call[[]domain.Product](ctx, c, Request{
		Method: http.MethodGet,
		URL:    "category",
		Params: url.Values{"title": {title}},
	})
	return resp.Data, err
}

func (c *Client) CreateCategory(ctx context.Context, title string, image File) (Response[domain.Category], error) {
	form := Form{Image: &image}
	form.Set("title", title)
	return submit[domain.Category](ctx, c, http.MethodPost, "category", form)
}

func (c *Client) UpdateCategory(ctx context.Context, form Form) (Response[domain.Category], error) {
	return submit[domain.Category](ctx, c, http.MethodPut, "category", form)
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) (Response[domain.Category], error) {
	return call[domain.Category](ctx, c, Request{Method: http.MethodDelete, URL: "category", Params: byID(id)})
}

// Popular products

func (c *Client) PopularProducts(ctx context.Context) ([]domain.PopularProduct, error) {
	resp, err := call[[]domain.PopularProduct](ctx, c, Request{Method: http.MethodGet, URL: "popular-prod"})
	return resp.Data, err
}

func (c *Client) CreatePopularProduct(ctx context.Context, form Form) (Response[domain.PopularProduct], error) {
	return submit[domain.PopularProduct](ctx, c, http.MethodPost, "popular-prod", form)
}

func (c *Client) UpdatePopularProduct(ctx context.Context, form Form) (Response[domain.PopularProduct], error) {
	return submit[domain.PopularProduct](ctx, c, http.MethodPut, "popular-prod", form)
}

func (c *Client) DeletePopularProduct(ctx context.Context, id int64) (Response[domain.PopularProduct], error) {
	return call[domain.PopularProduct](ctx, c, Request{Method: http.MethodDelete, URL: "popular-prod", Params: byID(id)})
}

// Products

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	resp, err := call[[]domain.Product](ctx, c, Request{Method: http.MethodGet, URL: "product"})
	return resp.Data, err
}

func (c *Client) Product(ctx context.Context, id int64) (domain.Product, error) {
	resp, err := call[domain.Product](ctx, c, Request{Method: http.MethodGet, URL: productPath(id)})
	return resp.Data, err
}

func (c *Client) CreateProduct(ctx context.Context, form Form) (Response[domain.Product], error) {
	return submit[domain.Product](ctx, c, http.MethodPost, "product", form)
}

// UpdateProduct sends a JSON patch of top-level product fields
func (c *Client) UpdateProduct(ctx context.Context, id int64, patch map[string]any) (Response[domain.Product], error) {
	return call[domain.Product](ctx, c, Request{Method: http.MethodPut, URL: productPath(id), Body: patch})
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) (Response[domain.Product], error) {
	return call[domain.Product](ctx, c, Request{Method: http.MethodDelete, URL: productPath(id)})
}

// ExportProducts downloads the catalog workbook
func (c *Client) ExportProducts(ctx context.Context) ([]byte, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, URL: "product/export"})
}

func productPath(id int64) string {
	return "product/" + strconv.FormatInt(id, 10)
}

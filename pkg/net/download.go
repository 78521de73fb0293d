package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

// MaxDownloadBytes caps the size of a remote manifest.
const MaxDownloadBytes int64 = 64 << 20

var (
	ErrorURLNotFound = errors.New("URL not found")
	ErrorTooLarge    = errors.New("remote content exceeds size limit")
)

func getResp(ctx context.Context, u string) (resp *http.Response, err error) {
	c, err := GetHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP client: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}

	req.Header.Set("User-Agent", clientAgent)

	return c.Do(req) //nolint:gosec // G704: URL supplied by the operator
}

// Download saves the content of url into filepath and returns the file name
// the server advertised for it, falling back to the last URL path segment.
func Download(ctx context.Context, u string, filepath string) (name string, retErr error) {
	resp, err := getResp(ctx, u)
	if err != nil {
		return "", fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	defer resp.Body.Close()
	PrintHTTPResponse(resp)

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrorURLNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error downloading file (status: %d - %s): %s", resp.StatusCode, resp.Status, u)
	}

	if resp.ContentLength > MaxDownloadBytes {
		return "", ErrorTooLarge
	}

	out, err := os.Create(filepath)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	n, err := io.Copy(out, io.LimitReader(resp.Body, MaxDownloadBytes+1))
	if err != nil {
		return "", fmt.Errorf("error saving downloaded content to file: %w", err)
	}
	if n > MaxDownloadBytes {
		return "", ErrorTooLarge
	}

	return FileName(resp), nil
}

// FileName derives the file name of a response body.
func FileName(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if fn := strings.TrimSpace(params["filename"]); fn != "" {
				return path.Base(strings.ReplaceAll(fn, "\\", "/"))
			}
		}
	}
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}
	return nameFromURL(resp.Request.URL)
}

func nameFromURL(u *url.URL) string {
	p := strings.TrimSuffix(u.Path, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

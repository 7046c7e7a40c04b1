package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	fetch "submix/internal/collectors/http"
	"submix/internal/logger"
	"submix/internal/publishers"
)

const (
	DefaultAPI        = "https://api.github.com"
	DefaultMessage    = "Update proxy subscription [submix]"
	defaultRetryDelay = time.Second
)

type Publisher struct{}

type fileRequest struct {
	Message string `json:"message"`
	Content string `json:"content"` // base64
	Sha     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type fileResponse struct {
	Sha string `json:"sha"`
}

type target struct {
	url    string
	token  string
	branch string
	msg    string

	retries int
	delay   time.Duration
	client  *http.Client
}

func parseTarget(config map[string]interface{}) (*target, error) {
	token, _ := config["token"].(string)
	owner, _ := config["owner"].(string)
	repo, _ := config["repo"].(string)
	path, _ := config["path"].(string)
	if token == "" || owner == "" || repo == "" || path == "" {
		return nil, fmt.Errorf("github publisher requires token, owner, repo, and path")
	}

	t := &target{token: token, delay: defaultRetryDelay}
	t.branch, _ = config["branch"].(string)
	t.msg, _ = config["message"].(string)
	if t.msg == "" {
		t.msg = DefaultMessage
	}

	apiBase, _ := config["api_url"].(string)
	if apiBase == "" {
		apiBase = DefaultAPI
	}
	t.url = fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		strings.TrimRight(apiBase, "/"), owner, repo, strings.TrimPrefix(path, "/"))

	timeout := 30 * time.Second
	if d, ok := config["_timeout"].(time.Duration); ok && d > 0 {
		timeout = d
	}
	if r, ok := config["_retries"].(int); ok && r > 0 {
		t.retries = r
	}
	if d, ok := config["_retry_delay"].(time.Duration); ok && d >= 0 {
		t.delay = d
	}

	proxyURL, _ := config["_proxy_url"].(string)
	client, err := fetch.NewClient(timeout, proxyURL)
	if err != nil {
		return nil, err
	}
	t.client = client
	return t, nil
}

// Publish creates or updates one file through the GitHub contents API:
// a GET for the current blob sha, then a PUT with the new content.
func (p *Publisher) Publish(ctx context.Context, doc *publishers.Document, config map[string]interface{}) error {
	t, err := parseTarget(config)
	if err != nil {
		return err
	}

	sha, err := t.currentSha(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(fileRequest{
		Message: t.msg,
		Content: base64.StdEncoding.EncodeToString([]byte(doc.Content)),
		Sha:     sha,
		Branch:  t.branch,
	})
	if err != nil {
		return err
	}

	err = t.retry(ctx, "Uploading file", func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.url, bytes.NewReader(body))
		if err != nil {
			return false, err
		}
		t.authorize(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return false, nil
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return true, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	})
	if err != nil {
		return fmt.Errorf("github upload failed: %w", err)
	}
	return nil
}

// currentSha returns "" when the file does not exist yet.
func (t *target) currentSha(ctx context.Context) (string, error) {
	var sha string
	err := t.retry(ctx, "Fetching file info", func() (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
		if err != nil {
			return false, err
		}
		t.authorize(req)
		if t.branch != "" {
			q := req.URL.Query()
			q.Set("ref", t.branch)
			req.URL.RawQuery = q.Encode()
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return true, err
		}
		defer resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusOK:
			var existing fileResponse
			if err := json.NewDecoder(resp.Body).Decode(&existing); err != nil {
				return false, fmt.Errorf("failed to parse github response: %w", err)
			}
			sha = existing.Sha
			logger.Log.Debugf("GitHub: file exists (sha %s), updating", sha)
			return false, nil
		case http.StatusNotFound:
			logger.Log.Debugf("GitHub: file not found, creating")
			return false, nil
		default:
			return true, fmt.Errorf("status %d", resp.StatusCode)
		}
	})
	if err != nil {
		return "", fmt.Errorf("github fetch failed: %w", err)
	}
	return sha, nil
}

func (t *target) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
}

// retry runs fn up to retries+1 times while it reports a retryable error.
func (t *target) retry(ctx context.Context, what string, fn func() (retryable bool, err error)) error {
	var err error
	for i := 0; i <= t.retries; i++ {
		logger.Log.Debugf("GitHub: %s (attempt %d/%d)", what, i+1, t.retries+1)
		var again bool
		again, err = fn()
		if err == nil || !again {
			return err
		}
		if i < t.retries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.delay):
			}
		}
	}
	return err
}

func init() {
	publishers.Register("github", func() publishers.Publisher { return &Publisher{} })
}

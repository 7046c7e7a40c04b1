package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"submix/internal/clash"
	"submix/internal/link"
	"submix/internal/logger"
	"submix/internal/node"
	"submix/internal/publishers"
)

const headerSkipped = "X-Skipped-Links"

type convertHandler struct {
	opt Options
}

type convertRequest struct {
	Links  []string
	Subs   []string
	Mode   clash.Mode
	Detail clash.Detail
	Format string
}

func (h *convertHandler) handleConvert(w http.ResponseWriter, r *http.Request) {
	req, apiErr := h.parseRequest(w, r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opt.ConvertTimeout)
	defer cancel()

	links := req.Links
	for _, sub := range req.Subs {
		fetched, err := h.opt.Fetcher.Fetch(ctx, sub)
		if err != nil {
			logger.Log.Warnf("⚠️ Subscription fetch failed: %v", err)
			writeError(w, &apiError{
				Status:  http.StatusBadGateway,
				Code:    "FETCH_FAILED",
				Message: "subscription could not be fetched",
			})
			return
		}
		links = append(links, fetched...)
	}

	doc, batch, err := publishers.BuildDocument(links, publishers.BuildOptions{
		Generator: h.opt.Generator,
		Mode:      req.Mode,
		Detail:    req.Detail,
		Format:    req.Format,
		Dedupe:    h.opt.Dedupe,
		Decorate:  h.opt.Decorate,
		Metrics:   h.opt.Metrics,
	})
	w.Header().Set(headerSkipped, strconv.Itoa(batch.SkippedCount()))
	if err != nil {
		if errors.Is(err, node.ErrEmptyNodeList) {
			writeError(w, &apiError{
				Status:  http.StatusUnprocessableEntity,
				Code:    "NO_NODES",
				Message: fmt.Sprintf("no usable proxy link (%d skipped)", batch.SkippedCount()),
			})
			return
		}
		logger.Log.Errorf("❌ Conversion failed: %v", err)
		writeError(w, &apiError{Status: http.StatusInternalServerError, Code: "INTERNAL_ERROR", Message: err.Error()})
		return
	}

	contentType := "text/plain; charset=utf-8"
	if doc.Format == publishers.FormatYAML {
		contentType = "text/yaml; charset=utf-8"
	}
	writeText(w, http.StatusOK, contentType, doc.Content)
}

func (h *convertHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*convertRequest, *apiError) {
	q := r.URL.Query()

	mode, err := clash.ParseMode(q.Get("mode"))
	if err != nil {
		return nil, badRequest("INVALID_MODE", "%v", err)
	}
	detail, err := clash.ParseDetail(q.Get("detail"))
	if err != nil {
		return nil, badRequest("INVALID_DETAIL", "%v", err)
	}
	format, err := publishers.ParseFormat(q.Get("format"))
	if err != nil {
		return nil, badRequest("INVALID_FORMAT", "%v", err)
	}

	req := &convertRequest{Mode: mode, Detail: detail, Format: format}
	for _, l := range q["link"] {
		if l = strings.TrimSpace(l); l != "" {
			req.Links = append(req.Links, l)
		}
	}
	for _, s := range q["sub"] {
		if s = strings.TrimSpace(s); s != "" {
			req.Subs = append(req.Subs, s)
		}
	}

	if r.Method == http.MethodPost {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opt.MaxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, &apiError{Status: http.StatusRequestEntityTooLarge, Code: "BODY_TOO_LARGE", Message: "request body too large"}
			}
			return nil, badRequest("INVALID_BODY", "failed to read body")
		}
		req.Links = append(req.Links, link.Collect(body)...)
	}

	if len(req.Links) == 0 && len(req.Subs) == 0 {
		return nil, badRequest("MISSING_INPUT", "provide at least one link or sub")
	}
	if len(req.Subs) > h.opt.MaxSubscriptions {
		return nil, badRequest("TOO_MANY_SUBS", "at most %d subscriptions per request", h.opt.MaxSubscriptions)
	}
	return req, nil
}

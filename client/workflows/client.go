// Copyright 2026 Northern.tech AS
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/mendersoftware/go-lib-micro/requestid"
	"github.com/mendersoftware/go-lib-micro/rest_utils"
	"github.com/pkg/errors"
)

const (
	HealthCheckURI = "/api/v1/health"
	AuditlogsURI   = "/api/v1/workflow/emit_auditlog"
)

const (
	defaultTimeout = 5 * time.Second
)

// Client submits the audit trail of the device transitions to the
// workflows service
//
//go:generate ../../utils/mockgen.sh
type Client interface {
	CheckHealth(ctx context.Context) error
	SubmitAuditLog(ctx context.Context, log AuditLog) error
}

type ClientOptions struct {
	Client *http.Client
}

// NewClient returns a new workflows client
func NewClient(url string, opts ...ClientOptions) Client {
	httpClient := &http.Client{}
	for _, opt := range opts {
		if opt.Client != nil {
			httpClient = opt.Client
		}
	}
	return &client{
		url:    strings.TrimSuffix(url, "/"),
		client: httpClient,
	}
}

type client struct {
	url    string
	client *http.Client
}

// withTimeout bounds requests issued with a context without a deadline
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}

// CheckHealth queries the health end-point of the workflows service; an
// unhealthy service answering with an API error returns it as is
func (c *client) CheckHealth(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx,
		http.MethodGet, c.url+HealthCheckURI, nil)
	if err != nil {
		return errors.Wrap(err, "workflows: error preparing HTTP request")
	}
	rsp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "workflows: health check failed")
	}
	defer rsp.Body.Close()
	if rsp.StatusCode >= http.StatusOK && rsp.StatusCode < 300 {
		return nil
	}

	var apiErr rest_utils.ApiError
	if err := json.NewDecoder(rsp.Body).Decode(&apiErr); err != nil {
		return errors.Errorf("workflows: health check HTTP error: %s", rsp.Status)
	}
	return &apiErr
}

// SubmitAuditLog starts the audit log workflow for a device transition
func (c *client) SubmitAuditLog(ctx context.Context, log AuditLog) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if log.EventTS.IsZero() {
		log.EventTS = time.Now()
	}
	if err := log.Validate(); err != nil {
		return errors.Wrap(err, "workflows: invalid AuditLog entry")
	}
	payload, _ := json.Marshal(AuditWorkflow{
		RequestID: requestid.FromContext(ctx),
		AuditLog:  log,
	})
	req, err := http.NewRequestWithContext(ctx,
		http.MethodPost, c.url+AuditlogsURI, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "workflows: error preparing HTTP request")
	}
	req.Header.Set("Content-Type", "application/json")

	rsp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "workflows: failed to submit auditlog")
	}
	defer rsp.Body.Close()

	switch {
	case rsp.StatusCode < 300:
		return nil
	case rsp.StatusCode == http.StatusNotFound:
		return errors.New(`workflows: workflow "auditlogs" not defined`)
	default:
		return errors.Errorf(
			"workflows: unexpected HTTP status from workflows service: %s",
			rsp.Status)
	}
}

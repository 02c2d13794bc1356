package paas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RailwayClient implements Client against the Railway GraphQL API. All
// services live in one project/environment dedicated to gateway instances.
type RailwayClient struct {
	httpClient    *http.Client
	apiURL        string
	token         string
	projectID     string
	environmentID string
}

func NewRailwayClient(apiURL, token, projectID, environmentID string) *RailwayClient {
	return &RailwayClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		apiURL:        apiURL,
		token:         token,
		projectID:     projectID,
		environmentID: environmentID,
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

// do posts one GraphQL document and decodes the data payload into out.
// API-level errors are classified so cooldown responses surface as
// transient.
func (c *RailwayClient) do(ctx context.Context, op, query string, vars map[string]any, out any) error {
	body, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode >= 300 {
		return classifyAPIError(op, resp.StatusCode, string(raw))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return classifyAPIError(op, resp.StatusCode, strings.Join(messages, "; "))
	}

	if out != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("%s: decode data: %w", op, err)
		}
	}
	return nil
}

func (c *RailwayClient) CreateService(ctx context.Context, name, image string, env map[string]string) (string, error) {
	const query = `
		mutation serviceCreate($input: ServiceCreateInput!) {
			serviceCreate(input: $input) { id }
		}`

	variables := make(map[string]any, len(env))
	for k, v := range env {
		variables[k] = v
	}

	var data struct {
		ServiceCreate struct {
			ID string `json:"id"`
		} `json:"serviceCreate"`
	}
	err := c.do(ctx, "create service", query, map[string]any{
		"input": map[string]any{
			"projectId": c.projectID,
			"name":      name,
			"source":    map[string]any{"image": image},
			"variables": variables,
		},
	}, &data)
	if err != nil {
		return "", err
	}
	return data.ServiceCreate.ID, nil
}

func (c *RailwayClient) UpdateStartCommand(ctx context.Context, serviceID, cmd string) error {
	const query = `
		mutation serviceInstanceUpdate($serviceId: String!, $environmentId: String!, $input: ServiceInstanceUpdateInput!) {
			serviceInstanceUpdate(serviceId: $serviceId, environmentId: $environmentId, input: $input)
		}`

	return c.do(ctx, "update start command", query, map[string]any{
		"serviceId":     serviceID,
		"environmentId": c.environmentID,
		"input":         map[string]any{"startCommand": cmd},
	}, nil)
}

func (c *RailwayClient) DeleteService(ctx context.Context, serviceID string) error {
	const query = `
		mutation serviceDelete($id: String!) {
			serviceDelete(id: $id)
		}`

	return c.do(ctx, "delete service", query, map[string]any{"id": serviceID}, nil)
}

func (c *RailwayClient) FindServiceByName(ctx context.Context, name string) (string, error) {
	const query = `
		query project($id: String!) {
			project(id: $id) {
				services { edges { node { id name } } }
			}
		}`

	var data struct {
		Project struct {
			Services struct {
				Edges []struct {
					Node struct {
						ID   string `json:"id"`
						Name string `json:"name"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"services"`
		} `json:"project"`
	}
	if err := c.do(ctx, "find service by name", query, map[string]any{"id": c.projectID}, &data); err != nil {
		return "", err
	}
	for _, edge := range data.Project.Services.Edges {
		if edge.Node.Name == name {
			return edge.Node.ID, nil
		}
	}
	return "", nil
}

func (c *RailwayClient) LatestDeployment(ctx context.Context, serviceID string) (*Deployment, error) {
	const query = `
		query deployments($input: DeploymentListInput!) {
			deployments(first: 1, input: $input) {
				edges { node { id status staticUrl } }
			}
		}`

	var data struct {
		Deployments struct {
			Edges []struct {
				Node struct {
					ID        string `json:"id"`
					Status    string `json:"status"`
					StaticURL string `json:"staticUrl"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"deployments"`
	}
	err := c.do(ctx, "latest deployment", query, map[string]any{
		"input": map[string]any{
			"projectId":     c.projectID,
			"environmentId": c.environmentID,
			"serviceId":     serviceID,
		},
	}, &data)
	if err != nil {
		return nil, err
	}
	if len(data.Deployments.Edges) == 0 {
		return nil, nil
	}
	node := data.Deployments.Edges[0].Node
	return &Deployment{ID: node.ID, Status: node.Status, URL: node.StaticURL}, nil
}

func (c *RailwayClient) RestartDeployment(ctx context.Context, deploymentID string) error {
	const query = `
		mutation deploymentRestart($id: String!) {
			deploymentRestart(id: $id)
		}`

	return c.do(ctx, "restart deployment", query, map[string]any{"id": deploymentID}, nil)
}

func (c *RailwayClient) RedeployService(ctx context.Context, serviceID string) error {
	const query = `
		mutation serviceInstanceRedeploy($serviceId: String!, $environmentId: String!) {
			serviceInstanceRedeploy(serviceId: $serviceId, environmentId: $environmentId)
		}`

	return c.do(ctx, "redeploy service", query, map[string]any{
		"serviceId":     serviceID,
		"environmentId": c.environmentID,
	}, nil)
}

func (c *RailwayClient) RemoveDeployment(ctx context.Context, deploymentID string) error {
	const query = `
		mutation deploymentRemove($id: String!) {
			deploymentRemove(id: $id)
		}`

	return c.do(ctx, "remove deployment", query, map[string]any{"id": deploymentID}, nil)
}

func (c *RailwayClient) Logs(ctx context.Context, deploymentID string, tail int) ([]LogLine, error) {
	const query = `
		query deploymentLogs($deploymentId: String!, $limit: Int!) {
			deploymentLogs(deploymentId: $deploymentId, limit: $limit) {
				timestamp severity message
			}
		}`

	var data struct {
		DeploymentLogs []struct {
			Timestamp time.Time `json:"timestamp"`
			Severity  string    `json:"severity"`
			Message   string    `json:"message"`
		} `json:"deploymentLogs"`
	}
	err := c.do(ctx, "deployment logs", query, map[string]any{
		"deploymentId": deploymentID,
		"limit":        tail,
	}, &data)
	if err != nil {
		return nil, err
	}

	lines := make([]LogLine, 0, len(data.DeploymentLogs))
	for _, l := range data.DeploymentLogs {
		lines = append(lines, LogLine{Timestamp: l.Timestamp, Severity: l.Severity, Message: l.Message})
	}
	return lines, nil
}

// Exec is unsupported: Railway exposes no remote-exec API, only the
// dashboard terminal. Pairing falls through to the next tier.
func (c *RailwayClient) Exec(ctx context.Context, serviceID string, cmd []string) (*ExecResult, error) {
	return nil, ErrExecUnsupported
}

// InternalHost returns the service's address on Railway's private IPv6
// network. Private networking is plain HTTP, no TLS.
func (c *RailwayClient) InternalHost(serviceName string) string {
	return serviceName + ".railway.internal"
}

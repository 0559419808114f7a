package services

import (
	"context"
	"fmt"

	http_client "fms-project/backend/utils"

	"github.com/sony/gobreaker"
)

// HTTPWorkflowClient mirrors step nodes and dependency edges into the
// workflow service through a circuit breaker.
type HTTPWorkflowClient struct {
	baseURL string
	client  *http_client.HTTPClient
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPWorkflowClient(baseURL string, client *http_client.HTTPClient, breaker *gobreaker.CircuitBreaker) *HTTPWorkflowClient {
	return &HTTPWorkflowClient{baseURL: baseURL, client: client, breaker: breaker}
}

func (c *HTTPWorkflowClient) EnsureStepNode(ctx context.Context, projectID, taskID, description string, stepNo int) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		payload := map[string]interface{}{
			"id":          taskID,
			"projectId":   projectID,
			"description": description,
			"stepNo":      stepNo,
		}
		return nil, c.client.PostJSON(ctx, c.baseURL+"/api/workflow/step-node", payload, nil)
	})
	if err != nil {
		return fmt.Errorf("workflow service call failed: %v", err)
	}
	return nil
}

func (c *HTTPWorkflowClient) AddDependency(ctx context.Context, projectID, fromTaskID, toTaskID string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		payload := map[string]string{
			"projectId":  projectID,
			"fromTaskId": fromTaskID,
			"toTaskId":   toTaskID,
		}
		return nil, c.client.PostJSON(ctx, c.baseURL+"/api/workflow/dependency", payload, nil)
	})
	if err != nil {
		return fmt.Errorf("workflow service call failed: %v", err)
	}
	return nil
}

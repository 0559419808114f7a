package services

import (
	"context"
	"fmt"

	http_client "fms-project/backend/utils"

	"github.com/sony/gobreaker"
)

// NotificationsClient delivers per-user notifications. Delivery is best
// effort and goes through the outbox dispatcher.
type NotificationsClient interface {
	Notify(ctx context.Context, userID, message string) error
}

// HTTPProjectsClient calls the projects service through a circuit breaker.
type HTTPProjectsClient struct {
	baseURL string
	client  *http_client.HTTPClient
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPProjectsClient(baseURL string, client *http_client.HTTPClient, breaker *gobreaker.CircuitBreaker) *HTTPProjectsClient {
	return &HTTPProjectsClient{baseURL: baseURL, client: client, breaker: breaker}
}

func (c *HTTPProjectsClient) MaterializeProject(ctx context.Context, templateID, triggeredBy string) (string, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var resp struct {
			ProjectID string `json:"projectId"`
		}
		payload := map[string]string{"templateId": templateID, "triggeredBy": triggeredBy}
		if err := c.client.PostJSON(ctx, c.baseURL+"/api/projects/materialize", payload, &resp); err != nil {
			return nil, err
		}
		return resp.ProjectID, nil
	})
	if err != nil {
		return "", fmt.Errorf("projects service call failed: %v", err)
	}
	return result.(string), nil
}

func (c *HTTPProjectsClient) MaterializeNextStep(ctx context.Context, projectID string, stepNo int) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/api/projects/%s/steps/%d/materialize", c.baseURL, projectID, stepNo)
		return nil, c.client.PostJSON(ctx, url, map[string]string{}, nil)
	})
	if err != nil {
		return fmt.Errorf("projects service call failed: %v", err)
	}
	return nil
}

// HTTPNotificationsClient posts notifications through a circuit breaker.
type HTTPNotificationsClient struct {
	baseURL string
	client  *http_client.HTTPClient
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPNotificationsClient(baseURL string, client *http_client.HTTPClient, breaker *gobreaker.CircuitBreaker) *HTTPNotificationsClient {
	return &HTTPNotificationsClient{baseURL: baseURL, client: client, breaker: breaker}
}

func (c *HTTPNotificationsClient) Notify(ctx context.Context, userID, message string) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		payload := map[string]string{"userId": userID, "message": message}
		return nil, c.client.PostJSON(ctx, c.baseURL+"/api/notifications/add", payload, nil)
	})
	if err != nil {
		return fmt.Errorf("notifications service call failed: %v", err)
	}
	return nil
}

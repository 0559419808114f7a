package services

import (
	"context"
	"fmt"

	http_client "fms-project/backend/utils"

	"github.com/sony/gobreaker"
)

// NotificationsClient delivers user notifications. Failures are logged and
// never fail the objection operation that produced them.
type NotificationsClient interface {
	Notify(ctx context.Context, userID, message string) error
}

type HTTPNotificationsClient struct {
	baseURL string
	client  *http_client.HTTPClient
	breaker *gobreaker.CircuitBreaker
}

func NewHTTPNotificationsClient(baseURL string, client *http_client.HTTPClient, breaker *gobreaker.CircuitBreaker) *HTTPNotificationsClient {
	return &HTTPNotificationsClient{baseURL: baseURL, client: client, breaker: breaker}
}

func (c *HTTPNotificationsClient) Notify(ctx context.Context, userID, message string) error {
	payload := map[string]string{
		"userId":  userID,
		"message": message,
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		url := fmt.Sprintf("%s/api/notifications/add", c.baseURL)
		return nil, c.client.PostJSON(ctx, url, payload, nil)
	})
	return err
}

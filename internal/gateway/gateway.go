// Package gateway is the client for the outbound bulk-SMS HTTP gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the gateway's /rest/mtsms endpoint.
type Client struct {
	baseURL string
	apiKey  string
	sender  string
	http    *http.Client
}

// Recipient is one destination MSISDN in a batch call.
type Recipient struct {
	MSISDN string `json:"msisdn"`
}

type sendRequest struct {
	Sender         string      `json:"sender"`
	Message        string      `json:"message"`
	Recipients     []Recipient `json:"recipients"`
	Class          string      `json:"class"`
	Priority       string      `json:"priority"`
	ValidityPeriod int         `json:"validity_period"`
	Encoding       string      `json:"encoding"`
	DestAddr       string      `json:"destaddr"`
}

// SendResult carries the gateway's per-recipient message identifiers.
type SendResult struct {
	MessageIDs []int64 `json:"ids"`
}

func NewClient(baseURL, apiKey, sender string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		sender:  sender,
		http:    &http.Client{Timeout: timeout},
	}
}

// SendBulk issues one gateway call for up to the gateway's per-call recipient
// limit. The whole batch succeeds or fails together; a non-2xx response is a
// batch failure.
func (c *Client) SendBulk(ctx context.Context, message string, phones []string) (SendResult, error) {
	if len(phones) == 0 {
		return SendResult{}, nil
	}

	recipients := make([]Recipient, 0, len(phones))
	for _, phone := range phones {
		recipients = append(recipients, Recipient{MSISDN: phone})
	}
	payload := sendRequest{
		Sender:         c.sender,
		Message:        message,
		Recipients:     recipients,
		Class:          "standard",
		Priority:       "NORMAL",
		ValidityPeriod: 86400,
		Encoding:       "UTF8",
		DestAddr:       "MOBILE",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rest/mtsms", bytes.NewReader(body))
	if err != nil {
		return SendResult{}, fmt.Errorf("failed to create gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("gateway call failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return SendResult{}, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, respBody)
	}

	var result SendResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		// Delivery succeeded; the ids are a bonus we can live without.
		return SendResult{}, nil
	}
	return result, nil
}

// SendOne sends a single confirmation SMS.
func (c *Client) SendOne(ctx context.Context, message, phone string) error {
	_, err := c.SendBulk(ctx, message, []string{phone})
	return err
}

package hass_rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type RestControllerClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *log.Logger
}

func CreateRestControllerClient(host string, port uint, accessToken string, timeout time.Duration,
	logger *log.Logger) ControllerClient {
	return &RestControllerClient{
		baseURL:     fmt.Sprintf("http://%s:%d", host, port),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Validate checks API reachability and token validity against /api/.
func (c *RestControllerClient) Validate() error {
	body, err := c.doRequest(http.MethodGet, "/api/", nil)
	if err != nil {
		return err
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("unexpected /api/ response: %w", err)
	}
	c.logger.Debugf("controller api: %s", resp.Message)
	return nil
}

func (c *RestControllerClient) GetStates() ([]Entity, error) {
	start := time.Now()
	body, err := c.doRequest(http.MethodGet, "/api/states", nil)
	if err != nil {
		return nil, err
	}
	var entities []Entity
	if err := json.Unmarshal(body, &entities); err != nil {
		return nil, fmt.Errorf("could not parse states: %w", err)
	}
	c.logger.Tracef("rest [GetStates]: %d entities in %d millis", len(entities), time.Since(start).Milliseconds())
	return entities, nil
}

func (c *RestControllerClient) GetState(entityID string) (*Entity, error) {
	body, err := c.doRequest(http.MethodGet, fmt.Sprintf("/api/states/%s", entityID), nil)
	if err != nil {
		return nil, err
	}
	var entity Entity
	if err := json.Unmarshal(body, &entity); err != nil {
		return nil, fmt.Errorf("could not parse state of %s: %w", entityID, err)
	}
	return &entity, nil
}

func (c *RestControllerClient) CallService(domain string, service string, data map[string]any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("could not encode service data: %w", err)
	}
	start := time.Now()
	_, err = c.doRequest(http.MethodPost, fmt.Sprintf("/api/services/%s/%s", domain, service), payload)
	if err != nil {
		return err
	}
	c.logger.Tracef("rest [CallService %s.%s]: %d millis", domain, service, time.Since(start).Milliseconds())
	return nil
}

func (c *RestControllerClient) doRequest(method string, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("controller rejected access token (401)")
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("controller api error %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

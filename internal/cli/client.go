package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/catattack05/functionary/internal/domain"
)

// client 调用 functionary 服务端的 HTTP API。
type client struct {
	host  string
	token string
	http  *http.Client
}

func newClient(v *viper.Viper) (*client, error) {
	host := strings.TrimRight(v.GetString("host"), "/")
	if host == "" {
		return nil, errors.New("no server configured: set --host or FUNCTIONARY_HOST")
	}
	return &client{
		host:  host,
		token: v.GetString("token"),
		http:  &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (c *client) publish(environment, filename string, contents []byte) (*domain.Build, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("package_contents", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(contents); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	endpoint := "/api/v1/environments/" + url.PathEscape(environment) + "/publish"
	req, err := http.NewRequest(http.MethodPost, c.host+endpoint, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var build domain.Build
	if err := c.do(req, &build); err != nil {
		return nil, err
	}
	return &build, nil
}

func (c *client) get(endpoint string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.host+endpoint, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("X-API-Key", c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", c.host, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%s %s: unexpected response %d: %s", req.Method, req.URL.Path, resp.StatusCode, bytes.TrimSpace(data))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.New("unauthorized request, check the API token")
	case resp.StatusCode >= 400:
		return fmt.Errorf("%s %s failed (%d): %s", req.Method, req.URL.Path, resp.StatusCode, env.Error)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

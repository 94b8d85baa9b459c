package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var client = http.Client{Timeout: 10 * time.Second}

// apiError is a failed call carrying the status code as the numeric reason.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("(%d) %s", e.Status, e.Message)
}

// call sends a JSON request to the brain and decodes the response into out
// when out is not nil.
func call(method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var er struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		json.NewDecoder(resp.Body).Decode(&er)

		msg := er.Error
		for k, v := range er.Fields {
			msg += fmt.Sprintf(" [%s: %s]", k, v)
		}
		return &apiError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type result struct {
	Status  string `json:"status"`
	User    string `json:"user"`
	Code    string `json:"code"`
	Granted *bool  `json:"granted"`
}

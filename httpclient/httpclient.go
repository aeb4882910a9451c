package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

var (
	ErrStatusCodeMismatch  = fmt.Errorf("status code mismatch")
	ErrContentTypeMismatch = fmt.Errorf("content type mismatch")
)

// MakePost posts out as JSON to url and unmarshals the 2xx response body in
// to in.
func MakePost(timeout time.Duration, url string, out, in any) error {
	status, body, err := MakePostStatus(timeout, url, out)
	if err != nil {
		return err
	}

	switch status {
	case fasthttp.StatusOK, fasthttp.StatusCreated, fasthttp.StatusAccepted:
	case fasthttp.StatusNoContent:
		return nil
	default:
		return errors.Join(
			ErrStatusCodeMismatch,
			fmt.Errorf("expected status code %d but got %d", fasthttp.StatusOK, status))
	}

	return json.Unmarshal(body, in)
}

// MakePostStatus posts out as JSON to url and returns the raw status code and
// response body. Callers interpreting non 2xx bodies, such as the wait
// endpoint's 403/404/504 payloads, use this variant.
func MakePostStatus(timeout time.Duration, url string, out any) (int, []byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.SetRequestURI(url)
	req.Header.SetMethod("POST")
	req.Header.SetContentType("application/json")
	raw, err := json.Marshal(out)
	if err != nil {
		return 0, nil, err
	}
	req.SetBody(raw)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := fasthttp.DoTimeout(req, resp, timeout); err != nil {
		return 0, nil, err
	}

	contentType := resp.Header.Peek("Content-Type")
	if bytes.Index(contentType, []byte("application/json")) != 0 {
		return 0, nil, errors.Join(
			ErrContentTypeMismatch,
			fmt.Errorf("expected content type application/json but got %s", contentType))
	}

	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return resp.StatusCode(), body, nil
}

// MakeGet reads url and unmarshals the 2xx response body in to out.
func MakeGet(timeout time.Duration, url string, out any) error {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	req.SetRequestURI(url)
	req.Header.SetMethod("GET")

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if err := fasthttp.DoTimeout(req, resp, timeout); err != nil {
		return err
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNoContent:
		return nil
	default:
		return errors.Join(
			ErrStatusCodeMismatch,
			fmt.Errorf("expected status code %d but got %d", fasthttp.StatusOK, resp.StatusCode()))
	}

	return json.Unmarshal(resp.Body(), out)
}

package httpclient

import (
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// Response HTTP 响应封装
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte

	// Duration 请求总耗时
	Duration time.Duration
	// Attempts includes the first try
	Attempts int
}

// IsSuccess 判断响应是否成功（2xx）
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsServerError 判断是否服务端错误（5xx）
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

// JSON 反序列化 JSON 响应
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

func readResponse(httpResp *http.Response) (*Response, error) {
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

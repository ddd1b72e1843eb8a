package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// 与服务端统一响应信封约定的成功码
const apiCodeSuccess = 1000

// apiEnvelope 服务端统一响应结构
type apiEnvelope struct {
	Code int             `json:"code"`
	Msg  json.RawMessage `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// HttpTransport 请求响应兜底通道实现
// 实时通道不可用或确认超时后，发送和历史拉取均走这里
type HttpTransport struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHttpTransport 创建兜底通道
// baseURL 形如 http://host:port，token 为访问令牌
func NewHttpTransport(baseURL, token string) *HttpTransport {
	return &HttpTransport{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Send 通过 POST /message/send 发送消息，返回落库后的确认消息
func (t *HttpTransport) Send(ctx context.Context, draft Draft) (*Message, error) {
	body, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+"/message/send", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var msg Message
	if err := t.do(req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// History 通过 GET /message/history 拉取历史，服务端返回旧到新排序
// beforeId 大于 0 时只返回 id 小于它的消息，用于向上翻页
func (t *HttpTransport) History(ctx context.Context, peerId int64, limit int, beforeId int64) ([]Message, error) {
	query := url.Values{}
	query.Set("peer_id", strconv.FormatInt(peerId, 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if beforeId > 0 {
		query.Set("before_id", strconv.FormatInt(beforeId, 10))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.baseURL+"/message/history?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var messages []Message
	if err := t.do(req, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// do 发出请求并解开统一响应信封
func (t *HttpTransport) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+t.token)
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("unexpected response (status %d): %w", resp.StatusCode, err)
	}
	if envelope.Code != apiCodeSuccess {
		return fmt.Errorf("api error %d: %s", envelope.Code, string(envelope.Msg))
	}
	if out != nil && len(envelope.Data) > 0 {
		return json.Unmarshal(envelope.Data, out)
	}
	return nil
}

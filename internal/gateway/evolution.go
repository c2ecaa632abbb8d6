package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rfagundes/zapblast/internal/logger"
	"go.uber.org/zap"
)

// EvolutionClient talks to one Evolution API deployment over HTTP. All calls
// carry the apikey header; send/check calls are guarded by the breaker.
type EvolutionClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	br      *MicroBreaker
}

var _ Client = (*EvolutionClient)(nil)

func NewEvolutionClient(baseURL, apiKey string, timeoutMs, failThreshold, openForMs int) *EvolutionClient {
	if timeoutMs <= 0 {
		timeoutMs = 15000
	}

	return &EvolutionClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
		br:      NewMicroBreaker(failThreshold, time.Duration(openForMs)*time.Millisecond),
	}
}

var ErrGatewayUnavailable = fmt.Errorf("gateway unavailable (breaker open)")

// do performs one JSON round-trip. out may be nil when the response body is
// irrelevant.
func (g *EvolutionClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", g.apiKey)

	res, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("gateway %s %s: status=%d", method, path, res.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("gateway %s %s: decode: %w", method, path, err)
		}
	}
	return nil
}

// guarded wraps do with the breaker for calls whose latency matters to the
// dispatch loop.
func (g *EvolutionClient) guarded(ctx context.Context, method, path string, body, out any) error {
	if !g.br.TryAcquire() {
		return ErrGatewayUnavailable
	}
	if err := g.do(ctx, method, path, body, out); err != nil {
		g.br.OnFailure()
		return err
	}
	g.br.OnSuccess()
	return nil
}

// sendResponse mirrors the Evolution API send payload.
type sendResponse struct {
	Key struct {
		RemoteJid string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	Status string `json:"status"`
}

func (g *EvolutionClient) SendText(ctx context.Context, instance, phone, text string) (SendResult, error) {
	var res sendResponse
	err := g.guarded(ctx, http.MethodPost, "/message/sendText/"+instance, map[string]any{
		"number": phone,
		"text":   text,
		"delay":  0,
	}, &res)
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: res.Key.ID, RemoteJid: res.Key.RemoteJid, Status: res.Status}, nil
}

func (g *EvolutionClient) SendMedia(ctx context.Context, instance, phone, mediaURL, caption string) (SendResult, error) {
	var res sendResponse
	err := g.guarded(ctx, http.MethodPost, "/message/sendMedia/"+instance, map[string]any{
		"number":  phone,
		"media":   mediaURL,
		"caption": caption,
		"delay":   0,
	}, &res)
	if err != nil {
		return SendResult{}, err
	}
	return SendResult{MessageID: res.Key.ID, RemoteJid: res.Key.RemoteJid, Status: res.Status}, nil
}

// SetPresence signals the typing indicator. Failures are swallowed: a missed
// indicator must never abort a send.
func (g *EvolutionClient) SetPresence(ctx context.Context, instance, phone string, presence Presence) {
	err := g.do(ctx, http.MethodPost, "/chat/sendPresence/"+instance, map[string]any{
		"number":   phone,
		"presence": string(presence),
	}, nil)
	if err != nil && logger.Log != nil {
		logger.Log.Debug("presence signal failed",
			zap.String("instance", instance),
			zap.String("presence", string(presence)),
			zap.Error(err))
	}
}

func (g *EvolutionClient) CheckNumber(ctx context.Context, instance, phone string) (NumberCheck, error) {
	var res []struct {
		Exists bool   `json:"exists"`
		Name   string `json:"name"`
	}
	err := g.guarded(ctx, http.MethodPost, "/chat/whatsappNumbers/"+instance, map[string]any{
		"numbers": []string{phone},
	}, &res)
	if err != nil {
		return NumberCheck{}, err
	}
	if len(res) == 0 {
		return NumberCheck{}, nil
	}
	return NumberCheck{Exists: res[0].Exists, Name: res[0].Name}, nil
}

func (g *EvolutionClient) CreateInstance(ctx context.Context, name string) error {
	return g.do(ctx, http.MethodPost, "/instance/create", map[string]any{
		"instanceName": name,
		"qrcode":       true,
		"integration":  "WHATSAPP-BAILEYS",
	}, nil)
}

func (g *EvolutionClient) ConnectInstance(ctx context.Context, name string) (ConnectInfo, error) {
	var res struct {
		Base64 string `json:"base64"`
		Code   string `json:"code"`
		State  string `json:"state"`
	}
	if err := g.do(ctx, http.MethodGet, "/instance/connect/"+name, nil, &res); err != nil {
		return ConnectInfo{}, err
	}
	qr := res.Base64
	if qr == "" {
		qr = res.Code
	}
	return ConnectInfo{QRCode: qr, State: res.State}, nil
}

func (g *EvolutionClient) ConnectionState(ctx context.Context, name string) (string, error) {
	var res struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	if err := g.do(ctx, http.MethodGet, "/instance/connectionState/"+name, nil, &res); err != nil {
		return "", err
	}
	return res.Instance.State, nil
}

func (g *EvolutionClient) RestartInstance(ctx context.Context, name string) error {
	return g.do(ctx, http.MethodPut, "/instance/restart/"+name, nil, nil)
}

func (g *EvolutionClient) LogoutInstance(ctx context.Context, name string) error {
	return g.do(ctx, http.MethodDelete, "/instance/logout/"+name, nil, nil)
}

func (g *EvolutionClient) DeleteInstance(ctx context.Context, name string) error {
	return g.do(ctx, http.MethodDelete, "/instance/delete/"+name, nil, nil)
}

func (g *EvolutionClient) SetWebhook(ctx context.Context, name, url string, events []string) error {
	return g.do(ctx, http.MethodPost, "/webhook/set/"+name, map[string]any{
		"url":               url,
		"webhook_by_events": false,
		"webhook_base64":    false,
		"events":            events,
	}, nil)
}

package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	logx "wabatch/pkg/logx"
)

// Config is what the client needs from the runtime configuration.
type Config struct {
	PhoneNumberID string
	AccessToken   string
	APIVersion    string
	CountryCode   string
	BaseURL       string
	Timeout       time.Duration

	// RatePerSec caps outgoing requests with a token bucket. 0 disables it.
	RatePerSec int
}

// Outcome is the result of one send attempt. It is never modified after Send returns.
type Outcome struct {
	Success   bool   `json:"success"`
	Phone     string `json:"phone"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	Status    int    `json:"status,omitempty"`

	err error
}

// Err returns the typed failure (nil on success): *ProviderError, or an error
// wrapping ErrTimeout / ErrTransport.
func (o Outcome) Err() error {
	if o.Success {
		return nil
	}
	if o.err != nil {
		return o.err
	}
	return errors.New(o.Error)
}

// Client sends text messages through the WhatsApp Business Cloud API.
//
// It holds no per-recipient state; every Send is one independent request.
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	log      logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://graph.facebook.com"
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	c := &Client{
		cfg:      cfg,
		endpoint: fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(cfg.BaseURL, "/"), cfg.APIVersion, cfg.PhoneNumberID),
		http:     &http.Client{Timeout: cfg.Timeout},
		log:      log,
	}
	if cfg.RatePerSec > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1)
	}
	return c
}

// Endpoint returns the messages URL for the configured sender.
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) FormatPhone(raw string) string { return FormatPhone(raw, c.cfg.CountryCode) }

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type apiResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string   `json:"message"`
		Type    string   `json:"type"`
		Code    flexCode `json:"code"`
	} `json:"error"`
}

// flexCode accepts both numeric and string error codes.
type flexCode string

func (f *flexCode) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	*f = flexCode(strings.Trim(s, `"`))
	return nil
}

// Send delivers message to phone in exactly one request. Failures are folded
// into the Outcome; Send never retries.
func (c *Client) Send(ctx context.Context, phone, message string) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	to := c.FormatPhone(phone)
	start := time.Now()

	out := c.send(ctx, to, message)
	took := time.Since(start)

	if out.Success {
		c.log.Info("message sent",
			logx.String("phone", to),
			logx.String("message_id", out.MessageID),
			logx.Duration("took", took),
		)
	} else {
		c.log.Error("message failed",
			logx.String("phone", to),
			logx.String("code", out.ErrorCode),
			logx.Int("status", out.Status),
			logx.String("err", out.Error),
			logx.Duration("took", took),
		)
	}
	return out
}

func (c *Client) send(ctx context.Context, to, message string) Outcome {
	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{PreviewURL: false, Body: message},
	})
	if err != nil {
		return failure(to, fmt.Errorf("%w: marshal payload: %v", ErrTransport, err))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return transportFailure(to, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return failure(to, fmt.Errorf("%w: build request: %v", ErrTransport, err))
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return transportFailure(to, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return transportFailure(to, err)
	}

	var parsed apiResponse
	decodeErr := json.Unmarshal(body, &parsed)

	if res.StatusCode == http.StatusOK {
		if decodeErr == nil && len(parsed.Messages) > 0 && parsed.Messages[0].ID != "" {
			return Outcome{Success: true, Phone: to, MessageID: parsed.Messages[0].ID, Status: res.StatusCode}
		}
		return providerFailure(to, &ProviderError{Status: res.StatusCode, Code: unknownCode, Message: unknownResponse})
	}

	pe := &ProviderError{Status: res.StatusCode, Code: unknownCode, Message: unknownError}
	if decodeErr == nil && parsed.Error != nil {
		if m := strings.TrimSpace(parsed.Error.Message); m != "" {
			pe.Message = m
		}
		if code := string(parsed.Error.Code); code != "" {
			pe.Code = code
		}
		pe.Type = parsed.Error.Type
	}
	return providerFailure(to, pe)
}

func failure(to string, err error) Outcome {
	return Outcome{Success: false, Phone: to, Error: err.Error(), err: err}
}

func providerFailure(to string, pe *ProviderError) Outcome {
	return Outcome{Success: false, Phone: to, Error: pe.Message, ErrorCode: pe.Code, Status: pe.Status, err: pe}
}

func transportFailure(to string, err error) Outcome {
	if isTimeout(err) {
		return Outcome{Success: false, Phone: to, Error: "Request timeout", err: fmt.Errorf("%w: %v", ErrTimeout, err)}
	}
	return Outcome{Success: false, Phone: to, Error: err.Error(), err: fmt.Errorf("%w: %v", ErrTransport, err)}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
